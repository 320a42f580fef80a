package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryBrokerDeliversToSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "patient.created")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "patient.created", Message{ID: "1", Type: "patient.created"}))
	require.NoError(t, b.Publish(ctx, "vaccination.created", Message{ID: "2"}))

	select {
	case raw := <-ch:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "1", msg.ID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	_, open := <-ch
	for open {
		_, open = <-ch
	}
	require.NoError(t, b.Close())
}

func TestMemoryBrokerClosed(t *testing.T) {
	b := NewMemoryBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "x", Message{}), ErrClosed)
	_, err := b.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}
