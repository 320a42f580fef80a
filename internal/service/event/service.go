package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
)

// Service writes events to the outbox. The worker publishes them.
type Service struct {
	outboxRepo repository.OutboxRepository
	now        func() time.Time
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo, now: time.Now}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := s.now().UTC()
	event := &model.OutboxEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	log.Debug().Str("event_id", event.ID).Str("event_type", eventType).Msg("Event queued")
	return nil
}

// CleanupProcessedEvents removes processed events older than retention.
func (s *Service) CleanupProcessedEvents(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.now().Add(-retention)
	count, err := s.outboxRepo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup events: %w", err)
	}
	return count, nil
}

// EmitLogged is used by services that must not fail a completed write because the
// outbox is unavailable.
func EmitLogged(ctx context.Context, e Emitter, eventType string, payload interface{}) {
	if e == nil {
		return
	}
	if err := e.Emit(ctx, eventType, payload); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to emit event")
	}
}
