package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

var (
	_ ports.UserService           = (*UserService)(nil)
	_ ports.ProjectService        = (*ProjectService)(nil)
	_ ports.TenantService         = (*TenantService)(nil)
	_ ports.ActionCatalogService  = (*ActionCatalogService)(nil)
	_ ports.MemberService         = (*MemberService)(nil)
	_ ports.TaskService           = (*TaskService)(nil)
	_ ports.StageService          = (*StageService)(nil)
	_ ports.TargetService         = (*TargetService)(nil)
	_ ports.MatrixService         = (*MatrixService)(nil)
	_ ports.InvitationService     = (*InvitationService)(nil)
	_ ports.NotificationService   = (*NotificationService)(nil)
	_ ports.ReminderService       = (*ReminderService)(nil)
	_ ports.NotificationPublisher = (*InlinePublisher)(nil)
)

// Entities travel to and from the store through their JSON form, so the json
// tags on domain types are the attribute names of the table.

func systemClock() time.Time { return time.Now().UTC() }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// toItem converts an entity into an item and adds the given key attributes.
func toItem(v any, keyAttrs map[string]string) (ports.Item, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	item := ports.Item{}
	if err := json.Unmarshal(b, &item); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	for k, v := range keyAttrs {
		if v != "" {
			item[k] = v
		}
	}
	return item, nil
}

// fromItem decodes an item into an entity. Storage-only attributes have no
// matching field and are dropped.
func fromItem[T any](item ports.Item) (*T, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &out, nil
}

func fromItems[T any](items []ports.Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, err := fromItem[T](it)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// plain reduces structs, typed slices and typed maps to the JSON-like values
// every backend accepts in an update.
func plain(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// changes accumulates the attributes of a partial update.
type changes struct {
	set    map[string]any
	remove []string
}

func newChanges() *changes { return &changes{set: map[string]any{}} }

func (c *changes) put(name string, v any) { c.set[name] = plain(v) }

func (c *changes) drop(name string) { c.remove = append(c.remove, name) }

func (c *changes) input(now time.Time, expectedVersion int64) ports.UpdateInput {
	c.set[ports.AttrUpdatedAt] = stamp(now)
	return ports.UpdateInput{Set: c.set, Remove: c.remove, ExpectedVersion: expectedVersion}
}

// getEntity loads one entity, returning notFound when the key is absent.
func getEntity[T any](ctx context.Context, store ports.Store, key ports.Key, notFound error) (*T, error) {
	item, err := store.GetItem(ctx, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound
	}
	return fromItem[T](item)
}

// updateEntity applies a partial update and decodes the result. A missing
// item is reported as notFound.
func updateEntity[T any](ctx context.Context, store ports.Store, key ports.Key, in ports.UpdateInput, notFound error) (*T, error) {
	item, err := store.UpdateItem(ctx, key, in)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return fromItem[T](item)
}

func queryEntities[T any](ctx context.Context, store ports.Store, in ports.QueryInput) ([]T, error) {
	items, err := store.Query(ctx, in)
	if err != nil {
		return nil, err
	}
	return fromItems[T](items)
}

func queryIndexEntities[T any](ctx context.Context, store ports.Store, in ports.QueryInput) ([]T, error) {
	items, err := store.QueryIndex(ctx, ports.IndexGSI1, in)
	if err != nil {
		return nil, err
	}
	return fromItems[T](items)
}

// projectExists reports ErrProjectNotFound for unknown projects.
func projectExists(ctx context.Context, store ports.Store, projectID string) (*domain.Project, error) {
	if projectID == "" {
		return nil, domain.Validationf("projectId is required")
	}
	return getEntity[domain.Project](ctx, store, projectKey(projectID), domain.ErrProjectNotFound)
}

// deletePartition removes every item of pk matching prefix.
func deletePartition(ctx context.Context, store ports.Store, pk, prefix string) (int, error) {
	items, err := store.Query(ctx, ports.QueryInput{PK: pk, SKPrefix: prefix})
	if err != nil {
		return 0, err
	}
	for _, it := range items {
		if err := store.DeleteItem(ctx, it.Key()); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

// claimIdempotency reserves id under key. When the key was already used it
// returns the id produced by the first request and replay=true.
func claimIdempotency(ctx context.Context, idem ports.IdempotencyStore, key, id string) (string, bool, error) {
	if idem == nil || key == "" {
		return id, false, nil
	}
	existing, claimed, err := idem.Claim(ctx, key, id)
	if err != nil {
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	}
	return existing, !claimed, nil
}

func publish(ctx context.Context, pub ports.NotificationPublisher, in ports.NotifyInput) {
	if pub == nil || in.UserID == "" {
		return
	}
	pub.Publish(ctx, in)
}
