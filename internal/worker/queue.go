package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/observability"
)

// DefaultQueueSize is the number of events buffered before new ones are dropped.
const DefaultQueueSize = 256

// ErrQueueClosed is returned by Publish after Close.
var ErrQueueClosed = errors.New("event queue closed")

// Queue is a fire-and-forget events.Publisher. Publish never blocks; a
// single Run goroutine drains buffered events into the dispatcher.
type Queue struct {
	events     chan events.Event
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue in front of dispatcher. size <= 0 selects DefaultQueueSize.
func NewQueue(dispatcher events.Dispatcher, size int, logger *zap.Logger, metrics *observability.Metrics) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		events:     make(chan events.Event, size),
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// Publish enqueues event. A full queue drops the event with a warning and returns nil.
func (q *Queue) Publish(_ context.Context, event events.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.events <- event:
	default:
		q.logger.Warn("event queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
		q.metrics.RecordNotification(string(event.Type), "dropped")
	}
	return nil
}

// Run drains the queue until ctx is cancelled or Close is called, then
// delivers whatever is still buffered.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Info("notification worker started")
	defer q.logger.Info("notification worker stopped")

	for {
		select {
		case <-ctx.Done():
			q.Close()
			q.drain(context.Background())
			return
		case event, ok := <-q.events:
			if !ok {
				return
			}
			q.deliver(ctx, event)
		}
	}
}

// Close stops accepting events. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
}

func (q *Queue) drain(ctx context.Context) {
	for event := range q.events {
		q.deliver(ctx, event)
	}
}

func (q *Queue) deliver(ctx context.Context, event events.Event) {
	if err := q.dispatcher.Publish(ctx, event); err != nil {
		q.logger.Warn("dispatch failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
