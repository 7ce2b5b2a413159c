package service

import (
	"context"
	"errors"
	"testing"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

func TestActionCatalogService_CRUDAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, "u1", "Sales")

	for _, in := range []ports.CreateActionInput{
		{Key: "visit", Name: "Visit", Category: "field"},
		{Key: "call", Name: "Call", Category: "phone"},
		{Key: "email", Name: "Email", Category: "field", IsDefault: true},
		{Key: "book", Name: "Book", Category: "field"},
	} {
		in.ProjectID = p.ID
		if _, err := f.catalog.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Key, err)
		}
	}

	got, err := f.catalog.List(ctx, p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"email", "book", "visit", "call"}
	if len(got) != len(want) {
		t.Fatalf("expected %d actions, got %d", len(want), len(got))
	}
	for i, k := range want {
		if got[i].Key != k {
			t.Errorf("position %d: got %s, want %s", i, got[i].Key, k)
		}
	}

	if _, err := f.catalog.Create(ctx, ports.CreateActionInput{ProjectID: p.ID, Key: "call", Name: "Again"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate key, got: %v", err)
	}
	if _, err := f.catalog.Create(ctx, ports.CreateActionInput{ProjectID: p.ID, Key: "Send Quote", Name: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for a non-slug key, got: %v", err)
	}
	if _, err := f.catalog.Create(ctx, ports.CreateActionInput{ProjectID: "missing", Key: "x", Name: "x"}); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got: %v", err)
	}

	updated, err := f.catalog.Update(ctx, p.ID, "call", ports.ActionPatch{Name: ptr("Phone call"), IsDefault: ptr(true), ExpectedVersion: 1})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Phone call" || !updated.IsDefault || updated.Version != 2 {
		t.Errorf("unexpected action: %+v", updated)
	}
	if _, err := f.catalog.Update(ctx, p.ID, "nope", ports.ActionPatch{Name: ptr("x")}); !errors.Is(err, domain.ErrActionNotFound) {
		t.Errorf("expected ErrActionNotFound, got: %v", err)
	}

	if err := f.catalog.Delete(ctx, p.ID, "visit"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.catalog.Get(ctx, p.ID, "visit"); !errors.Is(err, domain.ErrActionNotFound) {
		t.Errorf("expected action gone, got: %v", err)
	}
}

func TestMatrixService_ActionKeyMustBeInCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := newGrid(t, f)

	in := g.cell(0, 0)
	in.ActionKey = ptr("call")
	if _, err := f.matrix.UpsertCell(ctx, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for an unknown action, got: %v", err)
	}

	if _, err := f.catalog.Create(ctx, ports.CreateActionInput{ProjectID: g.project.ID, Key: "call", Name: "Call"}); err != nil {
		t.Fatalf("create action: %v", err)
	}
	cell, err := f.matrix.UpsertCell(ctx, in)
	if err != nil {
		t.Fatalf("upsert with catalog action: %v", err)
	}
	if cell.ActionKey != "call" {
		t.Errorf("expected actionKey call, got %q", cell.ActionKey)
	}

	view, err := f.matrix.View(ctx, g.project.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.ActionCatalog) != 1 || view.ActionCatalog[0].Key != "call" {
		t.Errorf("expected the catalog in the view, got %+v", view.ActionCatalog)
	}

	if err := f.catalog.Delete(ctx, g.project.ID, "call"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict deleting an action in use, got: %v", err)
	}

	unset := g.cell(0, 0)
	unset.ActionKey = ptr("")
	cleared, err := f.matrix.UpsertCell(ctx, unset)
	if err != nil {
		t.Fatalf("clear action: %v", err)
	}
	if cleared.ActionKey != "" {
		t.Errorf("expected actionKey cleared, got %q", cleared.ActionKey)
	}
	if err := f.catalog.Delete(ctx, g.project.ID, "call"); err != nil {
		t.Errorf("delete after clearing: %v", err)
	}
}
