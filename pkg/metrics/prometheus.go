// Package metrics provides Prometheus metrics for analytics event delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the event pipeline. A nil
// *Manager, or one built with WithMetricsEnabled(false), records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Wrapper Metrics - what the generated instances emit
	activations      *prometheus.CounterVec
	eventsEmitted    *prometheus.CounterVec
	eventValue       prometheus.Histogram
	invocationErrors *prometheus.CounterVec

	// Sink Metrics - what the sinks receive
	sinkEvents *prometheus.CounterVec

	// Queue Metrics - asynchronous delivery
	queueCapacity prometheus.Gauge
	queueSize     prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueDropped  *prometheus.CounterVec

	// Worker Metrics - delivery to the downstream sink
	workerActive    prometheus.Gauge
	workerDelivered prometheus.Counter
	workerPanics    prometheus.Counter
	deliveryLatency prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ganalytics",
		subsystem:        "events",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	if m.enabled {
		m.initializeMetrics()
	}

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.activations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "activations_total",
		Help:        "Total number of activated interface descriptors",
		ConstLabels: labels,
	}, []string{"interface"})

	m.eventsEmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "emitted_total",
		Help:        "Total number of events handed to the sink by category and action",
		ConstLabels: labels,
	}, []string{"category", "action"})

	m.eventValue = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "value",
		Help:        "Distribution of event values",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.invocationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "invocation_errors_total",
		Help:        "Total number of calls that failed before an event was built",
		ConstLabels: labels,
	}, []string{"reason"})

	m.sinkEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "sink_received_total",
		Help:        "Total number of events received by counting sinks",
		ConstLabels: labels,
	}, []string{"category"})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "queue_capacity",
		Help:        "Capacity of the asynchronous delivery queue",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "queue_size",
		Help:        "Current number of events waiting for delivery",
		ConstLabels: labels,
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "queue_enqueued_total",
		Help:        "Total number of events accepted by the queue",
		ConstLabels: labels,
	})

	m.queueDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "queue_dropped_total",
		Help:        "Total number of events dropped by the queue",
		ConstLabels: labels,
	}, []string{"reason"})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "worker_active",
		Help:        "Current number of delivery workers",
		ConstLabels: labels,
	})

	m.workerDelivered = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "worker_delivered_total",
		Help:        "Total number of events delivered to the downstream sink",
		ConstLabels: labels,
	})

	m.workerPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "worker_panics_total",
		Help:        "Total number of downstream sink panics recovered by workers",
		ConstLabels: labels,
	})

	m.deliveryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "delivery_latency_milliseconds",
		Help:        "Time between enqueue and delivery in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})
}

func (m *Manager) active() bool { return m != nil && m.enabled }

// RecordActivation counts one activated interface.
func (m *Manager) RecordActivation(iface string) {
	if m.active() {
		m.activations.WithLabelValues(iface).Inc()
	}
}

// RecordEventEmitted counts one event handed to the sink.
func (m *Manager) RecordEventEmitted(category, action string, value int64) {
	if m.active() {
		m.eventsEmitted.WithLabelValues(category, action).Inc()
		m.eventValue.Observe(float64(value))
	}
}

// RecordInvocationError counts one failed call.
func (m *Manager) RecordInvocationError(reason string) {
	if m.active() {
		m.invocationErrors.WithLabelValues(reason).Inc()
	}
}

// RecordSinkEvent counts one event seen by a counting sink.
func (m *Manager) RecordSinkEvent(category string) {
	if m.active() {
		m.sinkEvents.WithLabelValues(category).Inc()
	}
}

// UpdateQueueCapacity sets the queue capacity gauge.
func (m *Manager) UpdateQueueCapacity(capacity int) {
	if m.active() {
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueSize sets the queue size gauge.
func (m *Manager) UpdateQueueSize(size int) {
	if m.active() {
		m.queueSize.Set(float64(size))
	}
}

// RecordQueueEnqueue counts one accepted event.
func (m *Manager) RecordQueueEnqueue() {
	if m.active() {
		m.queueEnqueued.Inc()
	}
}

// RecordQueueDropped counts one dropped event.
func (m *Manager) RecordQueueDropped(reason string) {
	if m.active() {
		m.queueDropped.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerActiveCount sets the worker gauge.
func (m *Manager) UpdateWorkerActiveCount(count int) {
	if m.active() {
		m.workerActive.Set(float64(count))
	}
}

// RecordWorkerDelivered counts one delivered event and its queue latency.
func (m *Manager) RecordWorkerDelivered(latencyMs float64) {
	if m.active() {
		m.workerDelivered.Inc()
		m.deliveryLatency.Observe(latencyMs)
	}
}

// RecordWorkerPanic counts one recovered sink panic.
func (m *Manager) RecordWorkerPanic() {
	if m.active() {
		m.workerPanics.Inc()
	}
}

// Default returns the global manager registered on GetRegistry.
func Default() *Manager { return globalManager }

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
