package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/cirs/cirs-api/pkg/logger"
	"github.com/cirs/cirs-api/pkg/metrics"
	"github.com/cirs/cirs-api/pkg/repository"
)

// AuditCleanupWorker purges audit entries older than the retention window.
type AuditCleanupWorker struct {
	repo          repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewAuditCleanupWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, logger *logger.Logger, m *metrics.Metrics) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.Component("audit-cleanup"),
		metrics:       m,
		now:           time.Now,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Error cleaning up audit logs")
			}
		}
	}
}

func (w *AuditCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	if rows > 0 {
		w.metrics.AuditLogsPurged.Add(float64(rows))
		w.logger.Info("Cleaned up audit logs", "count", rows, "cutoff", cutoff)
	}
	return rows, nil
}
