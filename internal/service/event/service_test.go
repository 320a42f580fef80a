package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

func TestEmitQueuesPendingEvent(t *testing.T) {
	repos := blob.New(blobstore.NewMemoryStore(), "")
	svc := NewService(repos.Outbox)
	ctx := context.Background()

	require.NoError(t, svc.Emit(ctx, model.EventPatientCreated, map[string]string{"id": "p1"}))

	events, err := repos.Outbox.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPatientCreated, events[0].EventType)
	assert.JSONEq(t, `{"id":"p1"}`, string(events[0].Payload))
}

func TestCleanupProcessedEvents(t *testing.T) {
	repos := blob.New(blobstore.NewMemoryStore(), "")
	svc := NewService(repos.Outbox)
	ctx := context.Background()

	require.NoError(t, svc.Emit(ctx, model.EventPatientCreated, nil))
	events, err := repos.Outbox.ListPending(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, repos.Outbox.MarkProcessed(ctx, events[0].ID, time.Now().Add(-2*time.Hour)))

	n, err := svc.CleanupProcessedEvents(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEmitLoggedToleratesNilEmitter(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitLogged(context.Background(), nil, model.EventPatientCreated, nil)
		EmitLogged(context.Background(), Discard, model.EventPatientCreated, nil)
	})
}
