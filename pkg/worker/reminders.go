package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/logger"
	"github.com/cirs/cirs-api/pkg/metrics"
)

// ReminderSource finds and delivers vaccination reminders.
type ReminderSource interface {
	Due(ctx context.Context) ([]model.Reminder, error)
	Send(ctx context.Context, r model.Reminder) error
}

// ReminderWorker emails parents about due and overdue vaccinations. A record
// is reminded about at most once per day and status.
type ReminderWorker struct {
	source   ReminderSource
	interval time.Duration
	sent     *cache.Cache
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewReminderWorker(source ReminderSource, interval time.Duration, logger *logger.Logger, m *metrics.Metrics) *ReminderWorker {
	return &ReminderWorker{
		source:   source,
		interval: interval,
		sent:     cache.New(24*time.Hour, time.Hour),
		logger:   logger.Component("reminders"),
		metrics:  m,
		now:      time.Now,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Starting reminder worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Shutting down reminder worker")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error(err, "Failed to send reminders")
			}
		}
	}
}

// RunOnce sends every reminder not yet sent today and returns how many went out.
func (w *ReminderWorker) RunOnce(ctx context.Context) (int, error) {
	reminders, err := w.source.Due(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to collect reminders: %w", err)
	}

	today := model.DateOf(w.now()).String()
	sent := 0
	for _, r := range reminders {
		key := fmt.Sprintf("%s:%s:%s", r.RecordID, r.Status, today)
		if _, done := w.sent.Get(key); done {
			w.metrics.RemindersSkipped.Inc()
			continue
		}

		if err := w.source.Send(ctx, r); err != nil {
			w.metrics.RemindersFailed.Inc()
			w.logger.Error(err, "Failed to send reminder", "record_id", r.RecordID, "parent_id", r.ParentID)
			continue
		}

		w.sent.SetDefault(key, struct{}{})
		w.metrics.RemindersSent.WithLabelValues(string(r.Status)).Inc()
		sent++
	}
	return sent, nil
}
