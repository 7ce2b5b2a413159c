package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

func sameJSON(t *testing.T, got, want any) {
	t.Helper()
	g, _ := json.Marshal(got)
	w, _ := json.Marshal(want)
	if string(g) != string(w) {
		t.Errorf("mismatch:\n got: %s\nwant: %s", g, w)
	}
}

func TestUserService_CreateThenGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.Create(ctx, ports.CreateUserInput{Email: "Alice@Example.com", Name: "Alice"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("expected server-stamped id and timestamps, got %+v", created)
	}
	if created.Subscription.Plan != domain.PlanFree || !created.IsActive {
		t.Errorf("unexpected defaults: %+v", created)
	}

	got, err := f.users.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	sameJSON(t, got, created)
}

func TestUserService_DuplicateEmailRejected(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "u1", "bob@example.com", "Bob")

	_, err := f.users.Create(context.Background(), ports.CreateUserInput{Email: "BOB@example.com", Name: "Bobby"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got: %v", err)
	}
}

func TestUserService_GetByEmail_CaseInsensitiveExactMatch(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "u1", "a@b.com", "A")
	f.mustUser(t, "u2", "a@b.com.au", "B")

	u, err := f.users.GetByEmail(context.Background(), "A@B.COM")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("expected u1, got %s", u.ID)
	}
}

func TestUserService_SearchByName(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "u1", "tanaka@example.com", "Taro Tanaka")
	f.mustUser(t, "u2", "suzuki@example.com", "Hanako Suzuki")
	f.mustUser(t, "u3", "tanabe@example.com", "Jiro Tanabe")

	got, err := f.users.SearchByName(context.Background(), "TANA", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}

	limited, _ := f.users.SearchByName(context.Background(), "tana", 1)
	if len(limited) != 1 {
		t.Errorf("expected limit 1 to be honoured, got %d", len(limited))
	}
}

func TestUserService_DeactivateIsSoftAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustUser(t, "u1", "gone@example.com", "Gone")
	f.mustUser(t, "u2", "stay@example.com", "Stay")

	if err := f.users.Deactivate(ctx, "u1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := f.users.Deactivate(ctx, "u1"); err != nil {
		t.Fatalf("second deactivate should succeed, got: %v", err)
	}
	if _, err := f.users.Get(ctx, "u1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected deactivated user to be hidden, got: %v", err)
	}

	item, _ := f.store.GetItem(ctx, userKey("u1"))
	if item == nil {
		t.Fatal("expected the row to remain after soft delete")
	}

	all, _ := f.users.List(ctx, 0)
	if len(all) != 1 || all[0].ID != "u2" {
		t.Errorf("expected only u2 listed, got %+v", all)
	}

	if err := f.users.Deactivate(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound for unknown user, got: %v", err)
	}
}

func TestUserService_UpdateOnlyTouchesSuppliedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.mustUser(t, "u1", "old@example.com", "Old Name")

	after, err := f.users.Update(ctx, "u1", ports.UserPatch{Name: ptr("New Name")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if after.Name != "New Name" {
		t.Errorf("expected name updated, got %s", after.Name)
	}
	if after.Email != before.Email || after.Subscription != before.Subscription || !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("untouched fields changed: before=%+v after=%+v", before, after)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("expected updatedAt to move forward")
	}
	if after.Version != before.Version+1 {
		t.Errorf("expected version %d, got %d", before.Version+1, after.Version)
	}
}

func TestUserService_UpdateEmailReindexes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustUser(t, "u1", "first@example.com", "One")
	f.mustUser(t, "u2", "second@example.com", "Two")

	if _, err := f.users.Update(ctx, "u1", ports.UserPatch{Email: ptr("second@example.com")}); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists when taking another user's email, got: %v", err)
	}

	if _, err := f.users.Update(ctx, "u1", ports.UserPatch{Email: ptr("renamed@example.com")}); err != nil {
		t.Fatalf("update email: %v", err)
	}
	if _, err := f.users.GetByEmail(ctx, "first@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("old email should no longer resolve, got: %v", err)
	}
	u, err := f.users.GetByEmail(ctx, "renamed@example.com")
	if err != nil || u.ID != "u1" {
		t.Errorf("new email should resolve to u1, got %+v, %v", u, err)
	}
}
