package blob

import (
	"context"
	"sort"
	"time"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type AuditRepository struct {
	c *collection[model.AuditLog]
}

func NewAuditRepository(store blobstore.Store, key string) *AuditRepository {
	return &AuditRepository{
		c: newCollection(store, key, func(l *model.AuditLog) string { return l.ID }),
	}
}

func (r *AuditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	return r.c.insert(ctx, nil, log)
}

// List returns matching entries, newest first.
func (r *AuditRepository) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	logs, err := r.c.filter(ctx, filter.Matches)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	return logs, nil
}

func (r *AuditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	n, err := r.c.removeWhere(ctx, func(l *model.AuditLog) bool { return l.CreatedAt.Before(before) })
	return int64(n), err
}
