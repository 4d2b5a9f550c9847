// Package queue buffers analytics events between the wrapper and the
// delivery workers.
//
// The wrapper emits synchronously; Sink turns each emission into an
// Envelope and hands it to a bounded in-memory queue so slow downstream
// sinks never block the caller.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
)

// Envelope is the unit flowing through the queue.
type Envelope struct {
	ID         uuid.UUID
	Event      ganalytics.Event
	EnqueuedAt time.Time
}

// NewEnvelope stamps e with a fresh ID and the current time.
func NewEnvelope(e ganalytics.Event) Envelope {
	return Envelope{ID: uuid.New(), Event: e, EnqueuedAt: time.Now()}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an envelope to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, env Envelope) bool

	// Dequeue returns a channel that will receive envelopes as they become available.
	// The channel will be closed when the queue is closed and drained.
	// Envelopes nobody receives stay queued.
	Dequeue(ctx context.Context) <-chan Envelope

	// Len returns the current number of queued envelopes.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Envelope
	capacity int
	metrics  *metrics.Manager

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}

	q.events = make(chan Envelope, q.capacity)

	q.metrics.UpdateQueueCapacity(q.capacity)
	q.metrics.UpdateQueueSize(0)

	return q
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds an envelope to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, env Envelope) bool { //nolint:gocritic // hugeParam: Envelope must be passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.RecordQueueDropped("closed")
		return false
	}

	select {
	case <-ctx.Done():
		q.metrics.RecordQueueDropped("context_cancelled")
		return false
	default:
	}

	select {
	case q.events <- env:
		q.metrics.RecordQueueEnqueue()
		q.metrics.UpdateQueueSize(len(q.events))
		return true
	default:
		q.metrics.RecordQueueDropped("queue_full")
		return false
	}
}

// Dequeue returns the queue's own channel. Consumers share it, so an
// envelope leaves the queue only when a consumer receives it.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Envelope {
	return q.events
}

// Len returns the current number of queued envelopes.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.events)
	q.metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue. Queued envelopes stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
