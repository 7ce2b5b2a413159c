package service

import (
	"context"
	"errors"
	"testing"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

func (f *fixture) mustTenant(t *testing.T, owner, name string) *domain.Tenant {
	t.Helper()
	tn, err := f.tenants.Create(context.Background(), ports.CreateTenantInput{Name: name, OwnerID: owner})
	if err != nil {
		t.Fatalf("create tenant %s: %v", name, err)
	}
	return tn
}

func TestTenantService_CreateWritesOwnerMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tn := f.mustTenant(t, "u1", "Acme Corp")

	m, err := f.tenants.GetMember(ctx, tn.ID, "u1")
	if err != nil {
		t.Fatalf("expected owner membership, got: %v", err)
	}
	if m.Role != domain.TenantOwner {
		t.Errorf("expected owner role, got %s", m.Role)
	}
	mine, err := f.tenants.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != tn.ID {
		t.Errorf("expected [%s], got %+v", tn.ID, mine)
	}

	if _, err := f.tenants.Create(ctx, ports.CreateTenantInput{Name: " ", OwnerID: "u1"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got: %v", err)
	}
}

func TestTenantService_MemberRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tn := f.mustTenant(t, "u1", "Acme Corp")

	if _, err := f.tenants.AddMember(ctx, ports.AddTenantMemberInput{TenantID: tn.ID, UserID: "u2", Role: domain.TenantOwner}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for a second owner, got: %v", err)
	}
	m, err := f.tenants.AddMember(ctx, ports.AddTenantMemberInput{TenantID: tn.ID, UserID: "u2"})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m.Role != domain.TenantMember {
		t.Errorf("expected default role member, got %s", m.Role)
	}
	if _, err := f.tenants.AddMember(ctx, ports.AddTenantMemberInput{TenantID: tn.ID, UserID: "u2"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate member, got: %v", err)
	}
	if _, err := f.tenants.AddMember(ctx, ports.AddTenantMemberInput{TenantID: "missing", UserID: "u3"}); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got: %v", err)
	}

	members, _ := f.tenants.ListMembers(ctx, tn.ID)
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}

	if err := f.tenants.RemoveMember(ctx, tn.ID, "u1"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation removing the owner, got: %v", err)
	}
	if err := f.tenants.RemoveMember(ctx, tn.ID, "u2"); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if _, err := f.tenants.GetMember(ctx, tn.ID, "u2"); !errors.Is(err, domain.ErrTenantMemberNotFound) {
		t.Errorf("expected membership gone, got: %v", err)
	}
	if mine, _ := f.tenants.ListByUser(ctx, "u2"); len(mine) != 0 {
		t.Errorf("expected no tenants for removed member, got %d", len(mine))
	}
}

func TestTenantService_ProjectsFiledUnderTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tn := f.mustTenant(t, "u1", "Acme Corp")
	f.mustProject(t, "u1", "Personal")

	p, err := f.projects.Create(ctx, ports.CreateProjectInput{Name: "Sales", OwnerID: "u1", TenantID: tn.ID})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.TenantID != tn.ID {
		t.Errorf("expected tenantId %s, got %q", tn.ID, p.TenantID)
	}

	if _, err := f.projects.Create(ctx, ports.CreateProjectInput{Name: "x", OwnerID: "u9", TenantID: tn.ID}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for an outsider, got: %v", err)
	}
	if _, err := f.projects.Create(ctx, ports.CreateProjectInput{Name: "x", OwnerID: "u1", TenantID: "missing"}); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got: %v", err)
	}

	projects, err := f.tenants.ListProjects(ctx, tn.ID)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != p.ID {
		t.Errorf("expected only the tenant's project, got %+v", projects)
	}

	if err := f.tenants.Delete(ctx, tn.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict deleting a tenant with projects, got: %v", err)
	}
	if err := f.projects.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if projects, _ := f.tenants.ListProjects(ctx, tn.ID); len(projects) != 0 {
		t.Errorf("expected tenant link removed with the project, got %d", len(projects))
	}

	if err := f.tenants.Delete(ctx, tn.ID); err != nil {
		t.Fatalf("delete tenant: %v", err)
	}
	if left, _ := f.store.Query(ctx, ports.QueryInput{PK: keys.Tenant(tn.ID)}); len(left) != 0 {
		t.Errorf("expected tenant partition emptied, got %d items", len(left))
	}
	if mine, _ := f.tenants.ListByUser(ctx, "u1"); len(mine) != 0 {
		t.Errorf("expected no tenants after delete, got %d", len(mine))
	}
}

func TestTenantService_UpdateVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tn := f.mustTenant(t, "u1", "Acme Corp")

	updated, err := f.tenants.Update(ctx, tn.ID, ports.TenantPatch{Name: ptr("Acme Holdings"), ExpectedVersion: 1})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Acme Holdings" || updated.Version != 2 {
		t.Errorf("unexpected tenant: %+v", updated)
	}
	if _, err := f.tenants.Update(ctx, tn.ID, ports.TenantPatch{Name: ptr("Stale"), ExpectedVersion: 1}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}
	if _, err := f.tenants.Update(ctx, "missing", ports.TenantPatch{Name: ptr("x")}); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got: %v", err)
	}
}
