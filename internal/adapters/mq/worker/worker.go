// Package worker drains queued analytics envelopes into a downstream sink.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/ganalytics/internal/adapters/mq/queue"
	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/logger"
	"github.com/okian/ganalytics/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Queue defines how workers receive envelopes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Envelope
}

// Worker delivers envelopes to a sink.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	sink    ganalytics.Sink
	name    string
	metrics *metrics.Manager
	logger  logger.Logger

	delivered *atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}
}

// NewInMemoryWorker creates a worker delivering from q to sink.
func NewInMemoryWorker(q Queue, sink ganalytics.Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		sink:      sink,
		name:      "worker",
		metrics:   metrics.Default(),
		logger:    logger.GetOrNop(),
		delivered: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Delivered returns how many envelopes reached the sink.
func (w *InMemoryWorker) Delivered() int64 { return w.delivered.Load() }

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	envelopes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			if l, ok := w.queue.(interface{ Len(context.Context) int }); ok {
				l.Len(ctx)
			}
			if err := w.deliver(ctx, env); err != nil {
				w.logger.Error(ctx, "delivery failed",
					logger.String("envelope_id", env.ID.String()),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker loop.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// deliver hands one envelope to the sink. A panicking sink does not take
// the worker down.
func (w *InMemoryWorker) deliver(ctx context.Context, env queue.Envelope) (err error) { //nolint:gocritic // hugeParam: Envelope is received by value from the channel
	defer func() {
		if r := recover(); r != nil {
			w.metrics.RecordWorkerPanic()
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()

	w.sink.Provide(env.Event)
	w.delivered.Add(1)
	w.metrics.RecordWorkerDelivered(float64(time.Since(env.EnqueuedAt).Milliseconds()))
	w.logger.Debug(ctx, "event delivered",
		logger.String("envelope_id", env.ID.String()),
		logger.String("category", env.Event.Category),
		logger.String("action", env.Event.Action),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	metrics   *metrics.Manager
	delivered *atomic.Int64
	logger    logger.Logger
}

// NewPool creates workerCount workers. A count below one defaults to a
// multiple of the CPU count.
func NewPool(workerCount int, q Queue, sink ganalytics.Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	// Resolve shared settings once so every worker and the pool agree.
	base := NewInMemoryWorker(q, sink, opts...)

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		metrics:   base.metrics,
		delivered: base.delivered,
		logger:    base.logger.Named("pool"),
	}

	shared := append([]Option{}, opts...)
	shared = append(shared, withCounter(base.delivered))
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, sink, append(shared, WithName("worker-"+strconv.Itoa(i)))...)
	}

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Delivered returns how many envelopes the pool delivered.
func (p *Pool) Delivered() int64 { return p.delivered.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.metrics.UpdateWorkerActiveCount(len(p.workers))
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop(ctx context.Context) {
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker stop failed", logger.String("worker", w.name), logger.Error(err))
		}
	}
	p.metrics.UpdateWorkerActiveCount(0)
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still running when ctx expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			w.stop()
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	p.metrics.UpdateWorkerActiveCount(0)

	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
