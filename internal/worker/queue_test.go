package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contacts-service/internal/events"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	received []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append(d.received, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.received)
}

func TestQueueDeliversEvents(t *testing.T) {
	d := &recordingDispatcher{}
	q := NewQueue(d, 4, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	require.NoError(t, q.Publish(ctx, events.NewEvent(events.EventUserRegistered, "u1", nil)))
	require.NoError(t, q.Publish(ctx, events.NewEvent(events.EventUserRegistered, "u2", nil)))

	assert.Eventually(t, func() bool { return d.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.ErrorIs(t, q.Publish(context.Background(), events.NewEvent(events.EventUserRegistered, "u3", nil)), ErrQueueClosed)
}

func TestQueueDropsWhenFull(t *testing.T) {
	d := &recordingDispatcher{}
	q := NewQueue(d, 1, nil, nil)

	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, events.NewEvent(events.EventUserRegistered, "u1", nil)))
	// No worker is draining; the second event is dropped, not blocked on.
	require.NoError(t, q.Publish(ctx, events.NewEvent(events.EventUserRegistered, "u2", nil)))

	q.Close()
	q.drain(ctx)
	require.Equal(t, 1, d.count())
	assert.Equal(t, "u1", d.received[0].UserID)
}
