package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// AuditLogger writes audit entries off the request path.
type AuditLogger struct {
	service *Service
	wg      sync.WaitGroup
}

func NewAuditLogger(service *Service) *AuditLogger {
	return &AuditLogger{
		service: service,
	}
}

// Log records the entry asynchronously. The request context may be cancelled
// by the time the write happens, so only its values are kept.
func (l *AuditLogger) Log(ctx context.Context, userID, action, entityType, entityID string, opts *LogOptions) {
	ctx = context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.service.Log(ctx, userID, action, entityType, entityID, opts); err != nil {
			log.Error().Err(err).
				Str("action", action).
				Str("entity_type", entityType).
				Str("entity_id", entityID).
				Msg("Failed to write audit log")
		}
	}()
}

func (l *AuditLogger) LogSync(ctx context.Context, userID, action, entityType, entityID string, opts *LogOptions) error {
	return l.service.Log(ctx, userID, action, entityType, entityID, opts)
}

// Wait blocks until every pending entry has been written.
func (l *AuditLogger) Wait() {
	l.wg.Wait()
}
