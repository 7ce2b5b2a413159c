package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/storetest"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store { return NewStore() })
}

func TestStore_CancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.GetItem(ctx, ports.Key{PK: "a", SK: "b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStore_DeleteDropsEmptyPartition(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_ = s.PutItem(ctx, ports.Item{ports.AttrPK: "a", ports.AttrSK: "b"}, ports.PutOptions{})
	if s.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", s.Len())
	}
	_ = s.DeleteItem(ctx, ports.Key{PK: "a", SK: "b"})
	if s.Len() != 0 || len(s.partitions) != 0 {
		t.Errorf("expected empty store, got %d items in %d partitions", s.Len(), len(s.partitions))
	}
}

func TestIdempotencyStore_ClaimAndExpire(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if v, claimed, _ := s.Claim(ctx, "k", "p1"); !claimed || v != "p1" {
		t.Fatalf("first claim: got (%q, %v)", v, claimed)
	}
	if v, claimed, _ := s.Claim(ctx, "k", "p2"); claimed || v != "p1" {
		t.Errorf("second claim should return existing value, got (%q, %v)", v, claimed)
	}

	now = now.Add(2 * time.Minute)
	if v, claimed, _ := s.Claim(ctx, "k", "p3"); !claimed || v != "p3" {
		t.Errorf("expired claim should be replaced, got (%q, %v)", v, claimed)
	}

	_ = s.Release(ctx, "k")
	if _, claimed, _ := s.Claim(ctx, "k", "p4"); !claimed {
		t.Error("released key should be claimable")
	}
}
