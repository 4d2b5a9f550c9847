package worker

import (
	"sync/atomic"

	"github.com/okian/ganalytics/pkg/logger"
	"github.com/okian/ganalytics/pkg/metrics"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics records worker metrics on m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(w *InMemoryWorker) {
		if m != nil {
			w.metrics = m
		}
	}
}

func withCounter(c *atomic.Int64) Option {
	return func(w *InMemoryWorker) { w.delivered = c }
}
