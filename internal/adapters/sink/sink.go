// Package sink provides ganalytics.Sink implementations used by the
// service: structured logging, metrics counting, fan-out and in-memory
// recording.
package sink

import (
	"context"
	"sync"

	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/logger"
	"github.com/okian/ganalytics/pkg/metrics"
)

// Event is the payload every sink receives.
type Event = ganalytics.Event

// LogSink writes each event as one structured log entry.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink logging through l.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.Nop()
	}
	return &LogSink{logger: l.Named("sink")}
}

// Provide implements ganalytics.Sink.
func (s *LogSink) Provide(e Event) {
	s.logger.Info(context.Background(), "analytics event",
		logger.String("category", e.Category),
		logger.String("action", e.Action),
		logger.String("label", e.Label),
		logger.Int64("value", e.Value),
	)
}

// MetricsSink counts events per category and forwards them.
type MetricsSink struct {
	next    ganalytics.Sink
	metrics *metrics.Manager
}

// NewMetricsSink wraps next. A nil manager records on metrics.Default().
func NewMetricsSink(next ganalytics.Sink, m *metrics.Manager) *MetricsSink {
	if m == nil {
		m = metrics.Default()
	}
	return &MetricsSink{next: next, metrics: m}
}

// Provide implements ganalytics.Sink.
func (s *MetricsSink) Provide(e Event) {
	s.metrics.RecordSinkEvent(e.Category)
	if s.next != nil {
		s.next.Provide(e)
	}
}

// Fanout delivers every event to each sink in order.
type Fanout []ganalytics.Sink

// Provide implements ganalytics.Sink.
func (f Fanout) Provide(e Event) {
	for _, s := range f {
		if s != nil {
			s.Provide(e)
		}
	}
}

// Discard drops every event.
var Discard ganalytics.Sink = ganalytics.SinkFunc(func(Event) {})

// Recorder keeps delivered events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.RWMutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Provide implements ganalytics.Sink.
func (r *Recorder) Provide(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in delivery order.
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
