// Package storetest holds the behavioural contract of ports.Store. Every
// backend runs the same suite from its own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) ports.Store

// Run executes every contract test against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, newStore(t)) })
	t.Run("PutIfNotExists", func(t *testing.T) { testPutIfNotExists(t, newStore(t)) })
	t.Run("UpdatePartial", func(t *testing.T) { testUpdatePartial(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("UpdateVersionGuard", func(t *testing.T) { testUpdateVersionGuard(t, newStore(t)) })
	t.Run("UpdateImmutable", func(t *testing.T) { testUpdateImmutable(t, newStore(t)) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newStore(t)) })
	t.Run("QueryPartitionIsolation", func(t *testing.T) { testQueryPartitionIsolation(t, newStore(t)) })
	t.Run("QueryRangeAndLimit", func(t *testing.T) { testQueryRangeAndLimit(t, newStore(t)) })
	t.Run("QueryIndexSparse", func(t *testing.T) { testQueryIndexSparse(t, newStore(t)) })
	t.Run("QueryIndexRange", func(t *testing.T) { testQueryIndexRange(t, newStore(t)) })
}

func item(pk, sk string, attrs map[string]any) ports.Item {
	it := ports.Item{ports.AttrPK: pk, ports.AttrSK: sk, ports.AttrVersion: float64(1)}
	for k, v := range attrs {
		it[k] = v
	}
	return it
}

func sortKeys(items []ports.Item, attr string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.String(attr)
	}
	return out
}

func testGetMissing(t *testing.T, s ports.Store) {
	got, err := s.GetItem(context.Background(), ports.Key{PK: "P#none", SK: "X"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testPutGet(t *testing.T, s ports.Store) {
	ctx := context.Background()
	in := item("P#1", "META", map[string]any{
		"name":   "alpha",
		"count":  float64(3),
		"flag":   true,
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"k": "v"},
	})
	require.NoError(t, s.PutItem(ctx, in, ports.PutOptions{}))

	got, err := s.GetItem(ctx, ports.Key{PK: "P#1", SK: "META"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alpha", got.String("name"))
	assert.EqualValues(t, 3, got.Int64("count"))
	assert.Equal(t, true, got["flag"])
	assert.Len(t, got["tags"], 2)
	assert.Equal(t, ports.Key{PK: "P#1", SK: "META"}, got.Key())

	// Mutating the returned item must not leak into the store.
	got["name"] = "mutated"
	again, err := s.GetItem(ctx, ports.Key{PK: "P#1", SK: "META"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", again.String("name"))
}

func testPutIfNotExists(t *testing.T, s ports.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutItem(ctx, item("P#1", "M#1", nil), ports.PutOptions{IfNotExists: true}))

	err := s.PutItem(ctx, item("P#1", "M#1", nil), ports.PutOptions{IfNotExists: true})
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists), "got %v", err)

	// Unconditional put overwrites.
	require.NoError(t, s.PutItem(ctx, item("P#1", "M#1", map[string]any{"role": "admin"}), ports.PutOptions{}))
	got, err := s.GetItem(ctx, ports.Key{PK: "P#1", SK: "M#1"})
	require.NoError(t, err)
	assert.Equal(t, "admin", got.String("role"))
}

func testUpdatePartial(t *testing.T, s ports.Store) {
	ctx := context.Background()
	key := ports.Key{PK: "P#1", SK: "T#1"}
	require.NoError(t, s.PutItem(ctx, item(key.PK, key.SK, map[string]any{
		"title":     "first",
		"status":    "todo",
		"note":      "remove me",
		"updatedAt": "2020-01-01T00:00:00Z",
	}), ports.PutOptions{}))

	got, err := s.UpdateItem(ctx, key, ports.UpdateInput{
		Set:    map[string]any{"status": "done"},
		Remove: []string{"note"},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got.String("status"))
	assert.Equal(t, "first", got.String("title"))
	assert.NotContains(t, got, "note")
	assert.NotEqual(t, "2020-01-01T00:00:00Z", got.String(ports.AttrUpdatedAt))
	assert.EqualValues(t, 2, got.Int64(ports.AttrVersion))

	stored, err := s.GetItem(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, got.String("status"), stored.String("status"))
	assert.EqualValues(t, 2, stored.Int64(ports.AttrVersion))

	// A caller-supplied updatedAt wins.
	got, err = s.UpdateItem(ctx, key, ports.UpdateInput{Set: map[string]any{ports.AttrUpdatedAt: "2030-01-01T00:00:00Z"}})
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01T00:00:00Z", got.String(ports.AttrUpdatedAt))
}

func testUpdateMissing(t *testing.T, s ports.Store) {
	_, err := s.UpdateItem(context.Background(), ports.Key{PK: "P#x", SK: "T#x"}, ports.UpdateInput{Set: map[string]any{"a": "b"}})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	got, err := s.GetItem(context.Background(), ports.Key{PK: "P#x", SK: "T#x"})
	require.NoError(t, err)
	assert.Nil(t, got, "update must not create items")
}

func testUpdateVersionGuard(t *testing.T, s ports.Store) {
	ctx := context.Background()
	key := ports.Key{PK: "P#1", SK: "T#1"}
	require.NoError(t, s.PutItem(ctx, item(key.PK, key.SK, map[string]any{"title": "v1"}), ports.PutOptions{}))

	_, err := s.UpdateItem(ctx, key, ports.UpdateInput{Set: map[string]any{"title": "v2"}, ExpectedVersion: 1})
	require.NoError(t, err)

	_, err = s.UpdateItem(ctx, key, ports.UpdateInput{Set: map[string]any{"title": "stale"}, ExpectedVersion: 1})
	assert.True(t, errors.Is(err, domain.ErrConflict), "got %v", err)

	got, err := s.GetItem(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.String("title"))
}

func testUpdateImmutable(t *testing.T, s ports.Store) {
	ctx := context.Background()
	key := ports.Key{PK: "P#1", SK: "T#1"}
	require.NoError(t, s.PutItem(ctx, item(key.PK, key.SK, map[string]any{
		"id":        "t1",
		"projectId": "p1",
		"createdAt": "2020-01-01T00:00:00Z",
	}), ports.PutOptions{}))

	got, err := s.UpdateItem(ctx, key, ports.UpdateInput{Set: map[string]any{
		"id":        "other",
		"projectId": "p2",
		"createdAt": "2099-01-01T00:00:00Z",
		"title":     "ok",
	}})
	require.NoError(t, err)
	assert.Equal(t, "t1", got.String("id"))
	assert.Equal(t, "p1", got.String("projectId"))
	assert.Equal(t, "2020-01-01T00:00:00Z", got.String("createdAt"))
	assert.Equal(t, "ok", got.String("title"))
}

func testDeleteIdempotent(t *testing.T, s ports.Store) {
	ctx := context.Background()
	key := ports.Key{PK: "P#1", SK: "T#1"}
	require.NoError(t, s.PutItem(ctx, item(key.PK, key.SK, nil), ports.PutOptions{}))
	require.NoError(t, s.DeleteItem(ctx, key))
	require.NoError(t, s.DeleteItem(ctx, key))

	got, err := s.GetItem(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testQueryPartitionIsolation(t *testing.T, s ports.Store) {
	ctx := context.Background()
	for p := 1; p <= 3; p++ {
		for c := 1; c <= 4; c++ {
			pk := fmt.Sprintf("PROJECT#%d", p)
			require.NoError(t, s.PutItem(ctx, item(pk, fmt.Sprintf("TASK#%02d", c), nil), ports.PutOptions{}))
		}
		require.NoError(t, s.PutItem(ctx, item(fmt.Sprintf("PROJECT#%d", p), "METADATA", nil), ports.PutOptions{}))
	}

	got, err := s.Query(ctx, ports.QueryInput{PK: "PROJECT#2", SKPrefix: "TASK#"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TASK#01", "TASK#02", "TASK#03", "TASK#04"}, sortKeys(got, ports.AttrSK))
	for _, it := range got {
		assert.Equal(t, "PROJECT#2", it.String(ports.AttrPK))
	}

	all, err := s.Query(ctx, ports.QueryInput{PK: "PROJECT#2"})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := s.Query(ctx, ports.QueryInput{PK: "PROJECT#9"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testQueryRangeAndLimit(t *testing.T, s ports.Store) {
	ctx := context.Background()
	for _, sk := range []string{"N#a", "N#b", "N#c", "N#d"} {
		require.NoError(t, s.PutItem(ctx, item("U#1", sk, nil), ports.PutOptions{}))
	}

	got, err := s.Query(ctx, ports.QueryInput{PK: "U#1", SKFrom: "N#b", SKTo: "N#c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"N#b", "N#c"}, sortKeys(got, ports.AttrSK))

	got, err = s.Query(ctx, ports.QueryInput{PK: "U#1", SKPrefix: "N#", Descending: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"N#d", "N#c"}, sortKeys(got, ports.AttrSK))
}

func testQueryIndexSparse(t *testing.T, s ports.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutItem(ctx, item("PROJECT#1", "MEMBER#u1", map[string]any{
		ports.AttrGSI1PK: "USER#u1", ports.AttrGSI1SK: "MEMBER#1",
	}), ports.PutOptions{}))
	require.NoError(t, s.PutItem(ctx, item("PROJECT#2", "MEMBER#u1", map[string]any{
		ports.AttrGSI1PK: "USER#u1", ports.AttrGSI1SK: "MEMBER#2",
	}), ports.PutOptions{}))
	// No GSI1SK: not indexed.
	require.NoError(t, s.PutItem(ctx, item("PROJECT#3", "MEMBER#u1", map[string]any{
		ports.AttrGSI1PK: "USER#u1",
	}), ports.PutOptions{}))
	require.NoError(t, s.PutItem(ctx, item("PROJECT#1", "MEMBER#u2", map[string]any{
		ports.AttrGSI1PK: "USER#u2", ports.AttrGSI1SK: "MEMBER#1",
	}), ports.PutOptions{}))

	got, err := s.QueryIndex(ctx, ports.IndexGSI1, ports.QueryInput{PK: "USER#u1", SKPrefix: "MEMBER#"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PROJECT#1", "PROJECT#2"}, sortKeys(got, ports.AttrPK))
}

func testQueryIndexRange(t *testing.T, s ports.Store) {
	ctx := context.Background()
	dues := map[string]string{
		"PROJECT#1#TARGET#a": "DUE#2025-04-03#1#a#s",
		"PROJECT#1#TARGET#b": "DUE#2025-04-01#1#b#s",
		"PROJECT#1#TARGET#c": "DUE#2025-05-01#1#c#s",
		"PROJECT#1#TARGET#d": "NODUE#1#d#s",
	}
	for pk, due := range dues {
		require.NoError(t, s.PutItem(ctx, item(pk, "TASK#s", map[string]any{
			ports.AttrGSI1PK: "ASSIGNEE#u1", ports.AttrGSI1SK: due,
		}), ports.PutOptions{}))
	}

	got, err := s.QueryIndex(ctx, ports.IndexGSI1, ports.QueryInput{
		PK: "ASSIGNEE#u1", SKFrom: "DUE#", SKTo: "DUE#2025-04-30#~",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"DUE#2025-04-01#1#b#s", "DUE#2025-04-03#1#a#s"}, sortKeys(got, ports.AttrGSI1SK))

	all, err := s.QueryIndex(ctx, ports.IndexGSI1, ports.QueryInput{PK: "ASSIGNEE#u1"})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "NODUE#1#d#s", all[3].String(ports.AttrGSI1SK))
}
