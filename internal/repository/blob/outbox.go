package blob

import (
	"context"
	"sort"
	"time"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type OutboxRepository struct {
	c *collection[model.OutboxEvent]
}

func NewOutboxRepository(store blobstore.Store, key string) *OutboxRepository {
	return &OutboxRepository{
		c: newCollection(store, key, func(e *model.OutboxEvent) string { return e.ID }),
	}
}

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return r.c.insert(ctx, nil, event)
}

// ListPending returns the oldest pending events first.
func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	events, err := r.c.filter(ctx, func(e *model.OutboxEvent) bool {
		return e.Status == model.OutboxStatusPending
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	_, err := r.c.update(ctx, id, func(e *model.OutboxEvent) error {
		e.Status = model.OutboxStatusProcessed
		e.ProcessedAt = &at
		e.ErrorMessage = nil
		e.UpdatedAt = at
		return nil
	})
	return err
}

// MarkFailed records a failed attempt. The event stays pending until final is set.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, reason string, retryCount int, final bool) error {
	_, err := r.c.update(ctx, id, func(e *model.OutboxEvent) error {
		e.ErrorMessage = &reason
		e.RetryCount = retryCount
		e.UpdatedAt = time.Now().UTC()
		if final {
			e.Status = model.OutboxStatusFailed
		}
		return nil
	})
	return err
}

func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return r.c.removeWhere(ctx, func(e *model.OutboxEvent) bool {
		return e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(cutoff)
	})
}
