package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore binds client-supplied idempotency keys to the id of the
// entity they created. Keys expire after the TTL.
// Key format: idempotency:<scope>:<client key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim binds key to value with SETNX. When the key is already bound the
// existing value is returned with claimed=false.
func (s *IdempotencyStore) Claim(ctx context.Context, key, value string) (string, bool, error) {
	// Two attempts cover a binding that expires between SETNX and GET.
	for range 2 {
		ok, err := s.client.SetNX(ctx, s.key(key), value, s.ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency claim: %w", err)
		}
		if ok {
			return value, true, nil
		}
		existing, err := s.client.Get(ctx, s.key(key)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency lookup: %w", err)
		}
		return existing, false, nil
	}
	return "", false, fmt.Errorf("idempotency claim: key %q is contended", key)
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(k string) string {
	return "idempotency:" + k
}
