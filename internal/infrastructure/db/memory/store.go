// Package memory is the process-local implementation of ports.Store. It
// backs the service when no real key-value store is configured. Nothing is
// persisted across restarts.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// Store keeps items in a partition -> sort key -> item map guarded by one
// RWMutex. Items are deep-copied on the way in and out.
type Store struct {
	mu         sync.RWMutex
	partitions map[string]map[string]ports.Item
	now        func() time.Time
}

var _ ports.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		partitions: make(map[string]map[string]ports.Item),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) GetItem(ctx context.Context, key ports.Key) (ports.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.partitions[key.PK][key.SK]
	if !ok {
		return nil, nil
	}
	return clone(item), nil
}

func (s *Store) PutItem(ctx context.Context, item ports.Item, opts ports.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := item.Key()
	if key.PK == "" || key.SK == "" {
		return domain.Validationf("item is missing %s or %s", ports.AttrPK, ports.AttrSK)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	part, ok := s.partitions[key.PK]
	if !ok {
		part = make(map[string]ports.Item)
		s.partitions[key.PK] = part
	}
	if _, exists := part[key.SK]; exists && opts.IfNotExists {
		return fmt.Errorf("put %s/%s: %w", key.PK, key.SK, domain.ErrAlreadyExists)
	}
	part[key.SK] = clone(item)
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, key ports.Key, in ports.UpdateInput) (ports.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.partitions[key.PK][key.SK]
	if !ok {
		return nil, fmt.Errorf("update %s/%s: %w", key.PK, key.SK, domain.ErrNotFound)
	}
	if in.ExpectedVersion > 0 && current.Int64(ports.AttrVersion) != in.ExpectedVersion {
		return nil, fmt.Errorf("update %s/%s: %w", key.PK, key.SK, domain.ErrConflict)
	}

	next := clone(current)
	for name, v := range in.Set {
		if slices.Contains(ports.Immutable, name) {
			continue
		}
		next[name] = cloneValue(v)
	}
	for _, name := range in.Remove {
		if slices.Contains(ports.Immutable, name) {
			continue
		}
		delete(next, name)
	}
	if _, ok := in.Set[ports.AttrUpdatedAt]; !ok {
		next[ports.AttrUpdatedAt] = s.now().Format(time.RFC3339Nano)
	}
	next[ports.AttrVersion] = float64(current.Int64(ports.AttrVersion) + 1)

	s.partitions[key.PK][key.SK] = next
	return clone(next), nil
}

func (s *Store) DeleteItem(ctx context.Context, key ports.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	part, ok := s.partitions[key.PK]
	if !ok {
		return nil
	}
	delete(part, key.SK)
	if len(part) == 0 {
		delete(s.partitions, key.PK)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, in ports.QueryInput) ([]ports.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.Item
	for sk, item := range s.partitions[in.PK] {
		if matchSortKey(sk, in) {
			out = append(out, clone(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String(ports.AttrSK) < out[j].String(ports.AttrSK)
	})
	return window(out, in), nil
}

// QueryIndex scans every item; the mock trades speed for simplicity.
func (s *Store) QueryIndex(ctx context.Context, index string, in ports.QueryInput) ([]ports.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index != ports.IndexGSI1 {
		return nil, domain.Validationf("unknown index %q", index)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.Item
	for _, part := range s.partitions {
		for _, item := range part {
			pk, sk := item.String(ports.AttrGSI1PK), item.String(ports.AttrGSI1SK)
			if pk == "" || sk == "" || pk != in.PK {
				continue
			}
			if matchSortKey(sk, in) {
				out = append(out, clone(item))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].String(ports.AttrGSI1SK), out[j].String(ports.AttrGSI1SK)
		if a != b {
			return a < b
		}
		return out[i].String(ports.AttrPK)+out[i].String(ports.AttrSK) < out[j].String(ports.AttrPK)+out[j].String(ports.AttrSK)
	})
	return window(out, in), nil
}

func matchSortKey(sk string, in ports.QueryInput) bool {
	switch {
	case in.SKPrefix != "":
		return strings.HasPrefix(sk, in.SKPrefix)
	case in.SKFrom != "" || in.SKTo != "":
		if sk < in.SKFrom {
			return false
		}
		return in.SKTo == "" || sk <= in.SKTo
	}
	return true
}

func window(items []ports.Item, in ports.QueryInput) []ports.Item {
	if in.Descending {
		slices.Reverse(items)
	}
	if in.Limit > 0 && len(items) > in.Limit {
		items = items[:in.Limit]
	}
	return items
}

func clone(item ports.Item) ports.Item {
	out := make(ports.Item, len(item))
	for k, v := range item {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case ports.Item:
		return map[string]any(clone(t))
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []string:
		return slices.Clone(t)
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, e := range t {
			m[k] = e
		}
		return m
	default:
		return v
	}
}
