package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

func TestInvitationService_AcceptAddsMemberOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, "u1", "P")
	f.mustUser(t, "u2", "guest@example.com", "Guest")

	inv, token, err := f.invitations.Create(ctx, ports.CreateInvitationInput{ProjectID: p.ID, InviterID: "u1", Email: "guest@example.com", Role: domain.RoleEditor})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if token == "" || inv.TokenHash != "" || inv.Status != domain.InvitationPending {
		t.Errorf("unexpected invitation: %+v", inv)
	}
	if !inv.ExpiresAt.Equal(inv.CreatedAt.Add(48 * time.Hour)) {
		t.Errorf("expected expiry 48h after creation, got %s", inv.ExpiresAt)
	}
	if got := f.pub.byType(domain.NotifyProjectInvited); len(got) != 1 || got[0].UserID != "u2" {
		t.Errorf("expected invitee notified, got %+v", got)
	}

	m, err := f.invitations.Accept(ctx, p.ID, inv.ID, token, "u2")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if m.Role != domain.RoleEditor || m.InvitedBy != "u1" {
		t.Errorf("unexpected member: %+v", m)
	}

	if _, err := f.invitations.Accept(ctx, p.ID, inv.ID, token, "u2"); !errors.Is(err, domain.ErrInvitationGone) {
		t.Errorf("second accept: expected ErrInvitationGone, got: %v", err)
	}
	got, _ := f.invitations.Get(ctx, p.ID, inv.ID)
	if got.Status != domain.InvitationAccepted || got.RespondedAt == nil {
		t.Errorf("expected accepted with respondedAt, got %+v", got)
	}
	members, _ := f.members.List(ctx, p.ID)
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}
}

func TestInvitationService_RejectsBadTokenAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, "u1", "P")

	inv, token, err := f.invitations.Create(ctx, ports.CreateInvitationInput{ProjectID: p.ID, InviterID: "u1", Email: "late@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Role != domain.RoleMember {
		t.Errorf("expected default role member, got %s", inv.Role)
	}
	if _, err := f.invitations.Accept(ctx, p.ID, inv.ID, "not-the-token", "u9"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got: %v", err)
	}

	f.clock.Advance(49 * time.Hour)
	if _, err := f.invitations.Accept(ctx, p.ID, inv.ID, token, "u9"); !errors.Is(err, domain.ErrInvitationGone) {
		t.Errorf("expected ErrInvitationGone after expiry, got: %v", err)
	}
	got, _ := f.invitations.Get(ctx, p.ID, inv.ID)
	if got.Status != domain.InvitationExpired {
		t.Errorf("expected expired, got %s", got.Status)
	}
	if _, err := f.members.Get(ctx, p.ID, "u9"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("expired invitation must not add a member, got: %v", err)
	}
}

func TestInvitationService_DeclineAndRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, "u1", "P")

	inv, token, _ := f.invitations.Create(ctx, ports.CreateInvitationInput{ProjectID: p.ID, InviterID: "u1", Email: "No@Example.com"})
	declined, err := f.invitations.Decline(ctx, p.ID, inv.ID, token)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != domain.InvitationDeclined || declined.TokenHash != "" {
		t.Errorf("unexpected declined invitation: %+v", declined)
	}

	forEmail, _ := f.invitations.ListForEmail(ctx, "no@example.com")
	if len(forEmail) != 1 {
		t.Errorf("expected lookup by normalized email, got %d", len(forEmail))
	}

	if err := f.invitations.Revoke(ctx, p.ID, inv.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	list, _ := f.invitations.List(ctx, p.ID)
	if len(list) != 0 {
		t.Errorf("expected no invitations, got %d", len(list))
	}
}

func TestInvitationService_CreateValidates(t *testing.T) {
	f := newFixture(t)
	p := f.mustProject(t, "u1", "P")
	cases := []ports.CreateInvitationInput{
		{ProjectID: p.ID, Email: "nope"},
		{ProjectID: p.ID, Email: "a@b.c", Role: domain.RoleOwner},
		{ProjectID: p.ID, Email: "a@b.c", Role: "boss"},
	}
	for _, in := range cases {
		if _, _, err := f.invitations.Create(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%+v: expected ErrValidation, got: %v", in, err)
		}
	}
	if _, _, err := f.invitations.Create(context.Background(), ports.CreateInvitationInput{ProjectID: "missing", Email: "a@b.c"}); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got: %v", err)
	}
}
