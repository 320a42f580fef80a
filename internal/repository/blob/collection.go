// Package blob implements the repositories on top of a blobstore.Store.
// Each entity collection is one JSON array stored under one key.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type collection[T any] struct {
	store blobstore.Store
	key   string
	id    func(*T) string
}

func newCollection[T any](store blobstore.Store, key string, id func(*T) string) *collection[T] {
	return &collection[T]{store: store, key: key, id: id}
}

func (c *collection[T]) decode(data []byte) ([]*T, error) {
	if len(data) == 0 {
		return []*T{}, nil
	}
	var items []*T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.key, err)
	}
	if items == nil {
		items = []*T{}
	}
	return items, nil
}

func (c *collection[T]) all(ctx context.Context) ([]*T, error) {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return []*T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c.key, err)
	}
	return c.decode(data)
}

func (c *collection[T]) find(ctx context.Context, match func(*T) bool) (*T, error) {
	items, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if match(item) {
			return item, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (c *collection[T]) filter(ctx context.Context, match func(*T) bool) ([]*T, error) {
	items, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *collection[T]) get(ctx context.Context, id string) (*T, error) {
	return c.find(ctx, func(item *T) bool { return c.id(item) == id })
}

// mutate rewrites the whole array atomically.
func (c *collection[T]) mutate(ctx context.Context, fn func([]*T) ([]*T, error)) error {
	return c.store.Update(ctx, c.key, func(current []byte) ([]byte, error) {
		items, err := c.decode(current)
		if err != nil {
			return nil, err
		}
		next, err := fn(items)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []*T{}
		}
		return json.Marshal(next)
	})
}

// insert appends items unless one of them collides with an existing entry.
func (c *collection[T]) insert(ctx context.Context, conflict func(existing, item *T) bool, items ...*T) error {
	return c.mutate(ctx, func(current []*T) ([]*T, error) {
		for _, item := range items {
			for _, existing := range current {
				if c.id(existing) == c.id(item) || (conflict != nil && conflict(existing, item)) {
					return nil, repository.ErrDuplicate
				}
			}
			current = append(current, item)
		}
		return current, nil
	})
}

// update applies fn to the entry with the given id and returns the stored result.
func (c *collection[T]) update(ctx context.Context, id string, fn func(*T) error) (*T, error) {
	var updated *T
	err := c.mutate(ctx, func(items []*T) ([]*T, error) {
		for _, item := range items {
			if c.id(item) != id {
				continue
			}
			if err := fn(item); err != nil {
				return nil, err
			}
			updated = item
			return items, nil
		}
		return nil, repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// errUnchanged aborts a mutation that would not change anything.
var errUnchanged = errors.New("collection unchanged")

func (c *collection[T]) removeWhere(ctx context.Context, match func(*T) bool) (int, error) {
	var removed int
	err := c.mutate(ctx, func(items []*T) ([]*T, error) {
		removed = 0
		kept := make([]*T, 0, len(items))
		for _, item := range items {
			if match(item) {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		if removed == 0 {
			return nil, errUnchanged
		}
		return kept, nil
	})
	if errors.Is(err, errUnchanged) {
		return 0, nil
	}
	return removed, err
}

func (c *collection[T]) remove(ctx context.Context, id string) error {
	n, err := c.removeWhere(ctx, func(item *T) bool { return c.id(item) == id })
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
