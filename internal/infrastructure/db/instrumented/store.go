// Package instrumented decorates a ports.Store with Prometheus metrics.
package instrumented

import (
	"context"
	"errors"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// Store records the latency and failures of every call to the wrapped store,
// labelled with the backend name.
type Store struct {
	next    ports.Store
	backend string
}

var (
	_ ports.Store         = (*Store)(nil)
	_ ports.HealthChecker = (*Store)(nil)
)

func New(next ports.Store, backend string) *Store {
	return &Store{next: next, backend: backend}
}

// errorKind classifies an error for the kind label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

func (s *Store) observe(op string, start time.Time, err error) {
	metrics.StoreOperationDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(s.backend, op, errorKind(err)).Inc()
	}
}

func (s *Store) GetItem(ctx context.Context, key ports.Key) (ports.Item, error) {
	start := time.Now()
	item, err := s.next.GetItem(ctx, key)
	s.observe("get", start, err)
	return item, err
}

func (s *Store) PutItem(ctx context.Context, item ports.Item, opts ports.PutOptions) error {
	start := time.Now()
	err := s.next.PutItem(ctx, item, opts)
	s.observe("put", start, err)
	return err
}

func (s *Store) UpdateItem(ctx context.Context, key ports.Key, in ports.UpdateInput) (ports.Item, error) {
	start := time.Now()
	item, err := s.next.UpdateItem(ctx, key, in)
	s.observe("update", start, err)
	return item, err
}

func (s *Store) DeleteItem(ctx context.Context, key ports.Key) error {
	start := time.Now()
	err := s.next.DeleteItem(ctx, key)
	s.observe("delete", start, err)
	return err
}

func (s *Store) Query(ctx context.Context, in ports.QueryInput) ([]ports.Item, error) {
	start := time.Now()
	items, err := s.next.Query(ctx, in)
	s.observe("query", start, err)
	return items, err
}

func (s *Store) QueryIndex(ctx context.Context, index string, in ports.QueryInput) ([]ports.Item, error) {
	start := time.Now()
	items, err := s.next.QueryIndex(ctx, index, in)
	s.observe("query_index", start, err)
	return items, err
}

// Ping forwards to the wrapped store when it supports health checks.
func (s *Store) Ping(ctx context.Context) error {
	if hc, ok := s.next.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
