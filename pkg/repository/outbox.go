package repository

import (
	"context"
	"time"

	"github.com/cirs/cirs-api/internal/model"
)

// OutboxRepository is the part of the outbox store the workers need.
type OutboxRepository interface {
	ListPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, retryCount int, final bool) error
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// AuditRepository is the part of the audit store the cleanup worker needs.
type AuditRepository interface {
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}
