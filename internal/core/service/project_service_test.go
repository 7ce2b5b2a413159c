package service

import (
	"context"
	"errors"
	"testing"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

func TestProjectService_CreateWritesOwnerMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, "u1", "Launch")

	if p.Status != domain.ProjectActive || p.OwnerID != "u1" || p.Version != 1 {
		t.Errorf("unexpected project: %+v", p)
	}
	m, err := f.members.Get(ctx, p.ID, "u1")
	if err != nil {
		t.Fatalf("expected owner membership, got: %v", err)
	}
	if m.Role != domain.RoleOwner {
		t.Errorf("expected owner role, got %s", m.Role)
	}

	got, err := f.projects.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	sameJSON(t, got, p)
}

func TestProjectService_CreateValidates(t *testing.T) {
	f := newFixture(t)
	if _, err := f.projects.Create(context.Background(), ports.CreateProjectInput{Name: "  ", OwnerID: "u1"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got: %v", err)
	}
	if _, err := f.projects.Create(context.Background(), ports.CreateProjectInput{Name: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for missing owner, got: %v", err)
	}
}

func TestProjectService_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := ports.CreateProjectInput{Name: "Once", OwnerID: "u1", IdempotencyKey: "req-1"}

	first, err := f.projects.Create(ctx, in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := f.projects.Create(ctx, in)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected replay to return %s, got %s", first.ID, second.ID)
	}
	owned, _ := f.projects.ListOwned(ctx, "u1")
	if len(owned) != 1 {
		t.Errorf("expected exactly one project, got %d", len(owned))
	}
}

func TestProjectService_ListByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.mustProject(t, "u1", "Mine")
	shared := f.mustProject(t, "u2", "Shared")
	f.mustProject(t, "u2", "Private")

	if _, err := f.members.Add(ctx, ports.AddMemberInput{ProjectID: shared.ID, UserID: "u1", Role: domain.RoleEditor}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	got, err := f.projects.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := map[string]bool{}
	for _, p := range got {
		ids[p.ID] = true
	}
	if len(got) != 2 || !ids[mine.ID] || !ids[shared.ID] {
		t.Errorf("expected [%s %s], got %+v", mine.ID, shared.ID, got)
	}

	owned, _ := f.projects.ListOwned(ctx, "u1")
	if len(owned) != 1 || owned[0].ID != mine.ID {
		t.Errorf("expected only owned project, got %+v", owned)
	}
}

func TestProjectService_UpdateVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, "u1", "Versioned")

	if _, err := f.projects.Update(ctx, p.ID, ports.ProjectPatch{Name: ptr("v2"), ExpectedVersion: 1}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err := f.projects.Update(ctx, p.ID, ports.ProjectPatch{Name: ptr("stale"), ExpectedVersion: 1})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}

	got, _ := f.projects.Get(ctx, p.ID)
	if got.Name != "v2" || got.Version != 2 {
		t.Errorf("expected v2 at version 2, got %s at %d", got.Name, got.Version)
	}

	if _, err := f.projects.Update(ctx, "missing", ports.ProjectPatch{Name: ptr("x")}); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got: %v", err)
	}
	if _, err := f.projects.Update(ctx, p.ID, ports.ProjectPatch{Status: ptr(domain.ProjectStatus("paused"))}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got: %v", err)
	}
}

func TestProjectService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, "u1", "Doomed")
	other := f.mustProject(t, "u1", "Survivor")
	f.mustTask(t, p.ID, "a")
	f.mustTask(t, other.ID, "b")
	stage, _ := f.stages.Create(ctx, ports.CreateStageInput{ProjectID: p.ID, Name: "Hearing"})
	target, _ := f.targets.Create(ctx, ports.CreateTargetInput{ProjectID: p.ID, Name: "ACME"})
	if _, err := f.matrix.UpsertCell(ctx, ports.UpsertCellInput{ProjectID: p.ID, TargetID: target.ID, StageID: stage.ID, Assignees: &[]string{"u1"}, DueDate: ptr("2025-03-10")}); err != nil {
		t.Fatalf("upsert cell: %v", err)
	}

	if err := f.projects.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.projects.Delete(ctx, p.ID); err != nil {
		t.Fatalf("second delete should succeed, got: %v", err)
	}

	if _, err := f.projects.Get(ctx, p.ID); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected project gone, got: %v", err)
	}
	left, _ := f.store.Query(ctx, ports.QueryInput{PK: keys.Project(p.ID)})
	cells, _ := f.store.Query(ctx, ports.QueryInput{PK: keys.Cell(p.ID, target.ID)})
	if len(left) != 0 || len(cells) != 0 {
		t.Errorf("expected no children left, got %d items and %d cells", len(left), len(cells))
	}
	assigned, _ := f.matrix.ListByAssignee(ctx, ports.AssignmentQuery{UserID: "u1"})
	if len(assigned) != 0 {
		t.Errorf("expected assignee index emptied, got %d", len(assigned))
	}

	survivors, _ := f.tasks.ListByProject(ctx, other.ID, ports.TaskFilter{})
	if len(survivors) != 1 {
		t.Errorf("expected other project untouched, got %d tasks", len(survivors))
	}
}
