package blobstore

import (
	"context"
	"errors"
	"time"

	"github.com/cirs/cirs-api/pkg/metrics"
)

type instrumented struct {
	next    Store
	driver  string
	metrics *metrics.Metrics
}

// Instrument records operation counts and latency for s. A nil m returns s unchanged.
func Instrument(s Store, driver string, m *metrics.Metrics) Store {
	if m == nil {
		return s
	}
	if rs, ok := s.(*RedisStore); ok {
		rs.onRetry = func() { m.StoreConflicts.WithLabelValues(driver).Inc() }
	}
	return &instrumented{next: s, driver: driver, metrics: m}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(s.driver, op, status).Inc()
	s.metrics.StoreLatency.WithLabelValues(s.driver, op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Get(ctx context.Context, key string) (b []byte, err error) {
	defer func(start time.Time) { s.observe("get", start, err) }(time.Now())
	return s.next.Get(ctx, key)
}

func (s *instrumented) Set(ctx context.Context, key string, value []byte) (err error) {
	defer func(start time.Time) { s.observe("set", start, err) }(time.Now())
	return s.next.Set(ctx, key, value)
}

func (s *instrumented) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	defer func(start time.Time) { s.observe("update", start, err) }(time.Now())
	return s.next.Update(ctx, key, fn)
}

func (s *instrumented) Delete(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { s.observe("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, key)
}

func (s *instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
