package queue

import (
	"context"

	"github.com/google/uuid"
	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/logger"
)

// Sink adapts a Queue to ganalytics.Sink. Events that cannot be queued are
// dropped and logged.
type Sink struct {
	queue  Queue
	logger logger.Logger
}

// NewSink creates a sink publishing to q.
func NewSink(q Queue, l logger.Logger) *Sink {
	if l == nil {
		l = logger.Nop()
	}
	return &Sink{queue: q, logger: l.Named("queue")}
}

// Provide implements ganalytics.Sink.
func (s *Sink) Provide(e ganalytics.Event) {
	ctx := context.Background()
	if _, err := s.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "event dropped",
			logger.String("category", e.Category),
			logger.String("action", e.Action),
			logger.Error(err),
		)
	}
}

// Publish enqueues e and returns the envelope ID.
func (s *Sink) Publish(ctx context.Context, e ganalytics.Event) (uuid.UUID, error) {
	env := NewEnvelope(e)
	if s.queue.Enqueue(ctx, env) {
		return env.ID, nil
	}
	if s.queue.IsClosed() {
		return uuid.Nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	return uuid.Nil, ErrFull
}
