package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

const (
	defaultCacheTTL = 30 * time.Second
	generationTTL   = 24 * time.Hour
)

// CachedStore is a read-through cache in front of a ports.Store. Reads of one
// partition (GetItem, Query) are cached under the partition's generation
// number; every write to the partition bumps the generation, so earlier
// entries are never read again and expire on their own. Index queries span
// partitions and are not cached. Redis failures degrade to uncached reads.
type CachedStore struct {
	next   ports.Store
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

var (
	_ ports.Store         = (*CachedStore)(nil)
	_ ports.HealthChecker = (*CachedStore)(nil)
)

func NewCachedStore(next ports.Store, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{next: next, client: client, ttl: ttl, log: log}
}

func generationKey(pk string) string { return "cache:gen:" + pk }

func (c *CachedStore) generation(ctx context.Context, pk string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey(pk)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *CachedStore) invalidate(ctx context.Context, pk string) {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, generationKey(pk))
	pipe.Expire(ctx, generationKey(pk), generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Str("pk", pk).Msg("cache invalidation failed")
	}
}

// lookup decodes a cached value into dst and reports whether it was found.
func (c *CachedStore) lookup(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return true
}

func (c *CachedStore) remember(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *CachedStore) GetItem(ctx context.Context, key ports.Key) (ports.Item, error) {
	gen, err := c.generation(ctx, key.PK)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache generation lookup failed")
		return c.next.GetItem(ctx, key)
	}
	cacheKey := fmt.Sprintf("cache:item:%s:%s|%s", gen, key.PK, key.SK)

	var item ports.Item
	if c.lookup(ctx, cacheKey, &item) {
		return item, nil
	}
	item, err = c.next.GetItem(ctx, key)
	if err != nil || item == nil {
		return item, err
	}
	c.remember(ctx, cacheKey, item)
	return item, nil
}

func (c *CachedStore) Query(ctx context.Context, in ports.QueryInput) ([]ports.Item, error) {
	gen, err := c.generation(ctx, in.PK)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache generation lookup failed")
		return c.next.Query(ctx, in)
	}
	cacheKey := fmt.Sprintf("cache:query:%s:%s:%s:%s:%s:%s:%s",
		gen, in.PK, in.SKPrefix, in.SKFrom, in.SKTo, strconv.Itoa(in.Limit), strconv.FormatBool(in.Descending))

	var items []ports.Item
	if c.lookup(ctx, cacheKey, &items) {
		return items, nil
	}
	items, err = c.next.Query(ctx, in)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, cacheKey, items)
	return items, nil
}

func (c *CachedStore) QueryIndex(ctx context.Context, index string, in ports.QueryInput) ([]ports.Item, error) {
	return c.next.QueryIndex(ctx, index, in)
}

func (c *CachedStore) PutItem(ctx context.Context, item ports.Item, opts ports.PutOptions) error {
	if err := c.next.PutItem(ctx, item, opts); err != nil {
		return err
	}
	c.invalidate(ctx, item.String(ports.AttrPK))
	return nil
}

func (c *CachedStore) UpdateItem(ctx context.Context, key ports.Key, in ports.UpdateInput) (ports.Item, error) {
	item, err := c.next.UpdateItem(ctx, key, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, key.PK)
	return item, nil
}

func (c *CachedStore) DeleteItem(ctx context.Context, key ports.Key) error {
	if err := c.next.DeleteItem(ctx, key); err != nil {
		return err
	}
	c.invalidate(ctx, key.PK)
	return nil
}

// Ping checks Redis and, when it has one, the wrapped store.
func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if hc, ok := c.next.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
