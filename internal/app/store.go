package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/config"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/dynamodb"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/instrumented"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/memory"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/mongo"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/redis"
)

const connectTimeout = 15 * time.Second

type closer func(context.Context) error

// storage is the resolved persistence stack.
type storage struct {
	backend string
	store   ports.Store
	idem    ports.IdempotencyStore
	checks  map[string]ports.HealthChecker
	closers []closer
}

// openStorage resolves the backend once, wraps it with metrics and, when
// Redis is configured, with the read-through cache. A backend that cannot be
// reached is a startup error; there is no silent fallback to the mock.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	s := &storage{backend: cfg.ResolveStoreBackend(), checks: map[string]ports.HealthChecker{}}

	var base ports.Store
	switch s.backend {
	case config.BackendMemory:
		base = memory.NewStore()
	case config.BackendDynamoDB:
		ds, err := dynamodb.Connect(ctx, dynamodb.Config{
			Region:          cfg.AWS.Region,
			Table:           cfg.AWS.Table,
			Endpoint:        cfg.AWS.Endpoint,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			CreateTable:     cfg.AWS.CreateTable,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb: %w", err)
		}
		base = ds
	case config.BackendMongo:
		ms, disconnect, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		base = ms
		s.closers = append(s.closers, disconnect)
	default:
		return nil, fmt.Errorf("unknown store backend %q", s.backend)
	}

	s.store = instrumented.New(base, s.backend)
	s.idem = memory.NewIdempotencyStore(0)

	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			s.close(context.Background(), log)
			return nil, fmt.Errorf("redis: %w", err)
		}
		s.store = redis.NewCachedStore(s.store, client, cfg.Redis.CacheTTL, log)
		s.idem = redis.NewIdempotencyStore(client, 0)
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
	}

	if hc, ok := s.store.(ports.HealthChecker); ok {
		s.checks["store"] = hc
	}

	log.Info().
		Str("backend", s.backend).
		Bool("cache", cfg.Redis.Addr != "").
		Msg("storage ready")
	return s, nil
}

func (s *storage) close(ctx context.Context, log zerolog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("close storage")
		}
	}
}
