// Package blobstore is a small key/value store holding opaque byte blobs.
// Every backend supports an atomic read-modify-write of a single key.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cirs/cirs-api/pkg/metrics"
)

var (
	// ErrNotFound is returned by Get for a key that was never written.
	ErrNotFound = errors.New("blobstore: key not found")
	// ErrConflict is returned when an optimistic update kept losing to other writers.
	ErrConflict = errors.New("blobstore: too many concurrent updates")
)

// UpdateFunc receives the current value (nil when the key is missing) and
// returns the value to store. Returning an error aborts the update.
type UpdateFunc func(current []byte) ([]byte, error)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver   string
	Redis    RedisConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	URL           string
	PoolSize      int
	MinIdleConns  int
	UpdateRetries int
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open builds the backend named by cfg.Driver and wraps it with metrics.
func Open(ctx context.Context, cfg Config, m *metrics.Metrics) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Driver {
	case DriverMemory, "":
		s = NewMemoryStore()
	case DriverRedis:
		s, err = OpenRedis(ctx, cfg.Redis)
	case DriverPostgres:
		s, err = OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}
	return Instrument(s, driver, m), nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
