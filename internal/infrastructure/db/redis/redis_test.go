package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/memory"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/storetest"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, client
}

// countingStore counts reads that reach the wrapped store.
type countingStore struct {
	ports.Store
	gets, queries int
}

func (c *countingStore) GetItem(ctx context.Context, key ports.Key) (ports.Item, error) {
	c.gets++
	return c.Store.GetItem(ctx, key)
}

func (c *countingStore) Query(ctx context.Context, in ports.QueryInput) ([]ports.Item, error) {
	c.queries++
	return c.Store.Query(ctx, in)
}

// ---------------------------------------------------------------------------
// Connect
// ---------------------------------------------------------------------------

func TestConnect(t *testing.T) {
	m, _ := newMiniredis(t)
	client, err := Connect(context.Background(), Config{Addr: m.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = client.Close()

	addr := m.Addr()
	m.Close()
	if _, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Error("expected an error for an unreachable server")
	}
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

func TestCachedStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store {
		_, client := newMiniredis(t)
		return NewCachedStore(memory.NewStore(), client, time.Minute, zerolog.Nop())
	})
}

func TestCachedStore_ServesRepeatReadsFromCache(t *testing.T) {
	_, client := newMiniredis(t)
	backing := &countingStore{Store: memory.NewStore()}
	s := NewCachedStore(backing, client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_ = s.PutItem(ctx, ports.Item{ports.AttrPK: "PROJECT#1", ports.AttrSK: "TASK#1", "title": "a", ports.AttrVersion: float64(1)}, ports.PutOptions{})

	for range 3 {
		item, err := s.GetItem(ctx, ports.Key{PK: "PROJECT#1", SK: "TASK#1"})
		if err != nil || item.String("title") != "a" {
			t.Fatalf("get: %v, %v", item, err)
		}
		if _, err := s.Query(ctx, ports.QueryInput{PK: "PROJECT#1", SKPrefix: "TASK#"}); err != nil {
			t.Fatalf("query: %v", err)
		}
	}
	if backing.gets != 1 || backing.queries != 1 {
		t.Errorf("expected one backing read of each kind, got %d gets and %d queries", backing.gets, backing.queries)
	}
}

func TestCachedStore_WritesInvalidatePartition(t *testing.T) {
	_, client := newMiniredis(t)
	backing := &countingStore{Store: memory.NewStore()}
	s := NewCachedStore(backing, client, time.Minute, zerolog.Nop())
	ctx := context.Background()
	key := ports.Key{PK: "PROJECT#1", SK: "TASK#1"}

	_ = s.PutItem(ctx, ports.Item{ports.AttrPK: key.PK, ports.AttrSK: key.SK, "title": "a", ports.AttrVersion: float64(1)}, ports.PutOptions{})
	_, _ = s.GetItem(ctx, key)
	list, _ := s.Query(ctx, ports.QueryInput{PK: key.PK})

	if _, err := s.UpdateItem(ctx, key, ports.UpdateInput{Set: map[string]any{"title": "b"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	item, _ := s.GetItem(ctx, key)
	if item.String("title") != "b" {
		t.Errorf("expected fresh read after update, got %q", item.String("title"))
	}

	_ = s.PutItem(ctx, ports.Item{ports.AttrPK: key.PK, ports.AttrSK: "TASK#2"}, ports.PutOptions{})
	after, _ := s.Query(ctx, ports.QueryInput{PK: key.PK})
	if len(list) != 1 || len(after) != 2 {
		t.Errorf("expected query to see the new item, got %d then %d", len(list), len(after))
	}

	_ = s.DeleteItem(ctx, key)
	if gone, _ := s.GetItem(ctx, key); gone != nil {
		t.Errorf("expected deleted item gone, got %v", gone)
	}
}

func TestCachedStore_FallsBackWhenRedisIsDown(t *testing.T) {
	m, client := newMiniredis(t)
	backing := memory.NewStore()
	s := NewCachedStore(backing, client, time.Minute, zerolog.Nop())
	ctx := context.Background()
	_ = backing.PutItem(ctx, ports.Item{ports.AttrPK: "a", ports.AttrSK: "b"}, ports.PutOptions{})

	m.Close()
	item, err := s.GetItem(ctx, ports.Key{PK: "a", SK: "b"})
	if err != nil || item == nil {
		t.Errorf("expected backing read, got %v, %v", item, err)
	}
	if err := s.Ping(ctx); err == nil {
		t.Error("expected ping to report the outage")
	}
}

// ---------------------------------------------------------------------------
// Idempotency
// ---------------------------------------------------------------------------

func TestIdempotencyStore_ClaimReleaseExpire(t *testing.T) {
	m, client := newMiniredis(t)
	s := NewIdempotencyStore(client, time.Minute)
	ctx := context.Background()

	got, claimed, err := s.Claim(ctx, "task:p1:req-1", "id-1")
	if err != nil || !claimed || got != "id-1" {
		t.Fatalf("first claim: %q %v %v", got, claimed, err)
	}
	got, claimed, err = s.Claim(ctx, "task:p1:req-1", "id-2")
	if err != nil || claimed || got != "id-1" {
		t.Errorf("second claim should return the first binding, got %q %v %v", got, claimed, err)
	}

	if err := s.Release(ctx, "task:p1:req-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, claimed, _ := s.Claim(ctx, "task:p1:req-1", "id-3"); !claimed {
		t.Error("expected claim after release")
	}

	m.FastForward(2 * time.Minute)
	if got, claimed, _ := s.Claim(ctx, "task:p1:req-1", "id-4"); !claimed || got != "id-4" {
		t.Errorf("expected claim after expiry, got %q %v", got, claimed)
	}
}
