package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

type claim struct {
	value     string
	expiresAt time.Time
}

// IdempotencyStore is the process-local ports.IdempotencyStore used when
// Redis is not configured.
type IdempotencyStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	claims map[string]claim
	now    func() time.Time
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{
		ttl:    ttl,
		claims: make(map[string]claim),
		now:    time.Now,
	}
}

func (s *IdempotencyStore) Claim(_ context.Context, key, value string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c, ok := s.claims[key]; ok && now.Before(c.expiresAt) {
		return c.value, false, nil
	}
	s.claims[key] = claim{value: value, expiresAt: now.Add(s.ttl)}
	return value, true, nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}
