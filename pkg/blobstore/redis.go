package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	defaultUpdateRetries = 50

	retryInitialInterval = 2 * time.Millisecond
	retryMaxInterval     = 250 * time.Millisecond
)

// RedisStore keeps each blob as a plain string value. Updates use
// WATCH/MULTI so a concurrent writer forces a retry instead of a lost write.
// Writers inside one process queue on a per-key lock first, so WATCH only
// races against other processes.
type RedisStore struct {
	client  *redis.Client
	retries int
	onRetry func()
	locks   keyLocks
}

// keyLocks hands out one single-slot semaphore per key. Waiting honours the
// caller's context.
type keyLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func (l *keyLocks) acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.slots == nil {
		l.slots = make(map[string]chan struct{})
	}
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStore(client, cfg.UpdateRetries), nil
}

func NewRedisStore(client *redis.Client, retries int) *RedisStore {
	if retries <= 0 {
		retries = defaultUpdateRetries
	}
	return &RedisStore{client: client, retries: retries}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return b, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	release, err := s.locks.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	attempt := func() error {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			if s.onRetry != nil {
				s.onRetry()
			}
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	err = backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.retries-1)), ctx))
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

// newBackOff spaces out WATCH retries with jittered exponential delays.
func (s *RedisStore) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
