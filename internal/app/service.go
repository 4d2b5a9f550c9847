// Package service wires the analytics wrapper to asynchronous delivery:
// instances emit into a bounded queue and a worker pool drains it into
// the configured sinks.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/okian/ganalytics/internal/adapters/mq/queue"
	"github.com/okian/ganalytics/internal/adapters/mq/worker"
	"github.com/okian/ganalytics/internal/adapters/sink"
	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/logger"
	"github.com/okian/ganalytics/pkg/metrics"
)

// ErrNotStarted is returned when activating before Start.
var ErrNotStarted = errors.New("service not started")

// Service owns the wrapper, the event queue and the delivery workers.
type Service struct {
	mu sync.RWMutex

	// Core components
	wrapper *ganalytics.Wrapper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	settings    ganalytics.Settings
	defaults    []ganalytics.MetaOption
	downstream  ganalytics.Sink
	metrics     *metrics.Manager

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records on m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSettings sets the wrapper settings.
func WithSettings(settings ganalytics.Settings) Option {
	return func(s *Service) { s.settings = settings }
}

// WithDefaultMetadata sets metadata applied below every interface.
func WithDefaultMetadata(opts ...ganalytics.MetaOption) Option {
	return func(s *Service) { s.defaults = append(s.defaults, opts...) }
}

// WithSink sets where delivered events end up. Defaults to a log sink.
func WithSink(next ganalytics.Sink) Option {
	return func(s *Service) {
		if next != nil {
			s.downstream = next
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		settings:    ganalytics.DefaultSettings(),
		metrics:     metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the queue, the workers and the wrapper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.GetOrNop().Named("service")
	}
	if s.downstream == nil {
		s.downstream = sink.NewLogSink(s.logger)
	}

	s.logger.Info(ctx, "starting analytics service...")

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithMetrics(s.metrics),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue,
		sink.NewMetricsSink(s.downstream, s.metrics),
		worker.WithLogger(s.logger),
		worker.WithMetrics(s.metrics),
	)
	// Workers outlive the start context; only Stop ends them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.wrapper = ganalytics.NewWrapper(queue.NewSink(s.queue, s.logger),
		ganalytics.WithSettings(s.settings),
		ganalytics.WithDefaultMetadata(s.defaults...),
		ganalytics.WithLogger(s.logger),
		ganalytics.WithMetrics(s.metrics),
	)

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop closes the queue and waits for the workers to deliver what is left.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping analytics service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "analytics service stopped", logger.Int64("delivered", s.pool.Delivered()))
	return err
}

// Wrapper returns the running wrapper.
func (s *Service) Wrapper() (*ganalytics.Wrapper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.wrapper, nil
}

// Activate activates d on the running wrapper.
func (s *Service) Activate(ctx context.Context, d ganalytics.InterfaceDescriptor) (*ganalytics.Instance, error) {
	w, err := s.Wrapper()
	if err != nil {
		return nil, err
	}
	return w.Activate(ctx, d)
}

// Bind fills the func fields of T with instances emitting through s.
func Bind[T any](ctx context.Context, s *Service, opts ...ganalytics.DescribeOption) (T, error) {
	w, err := s.Wrapper()
	if err != nil {
		var zero T
		return zero, err
	}
	return ganalytics.Bind[T](ctx, w, opts...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.queue != nil {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["delivered"] = s.pool.Delivered()
	}
	return stats
}
