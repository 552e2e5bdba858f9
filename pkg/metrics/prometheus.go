// Package metrics provides Prometheus metrics for the Tianji fortune service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Latency buckets in milliseconds. Readings are CPU-only and finish in well
// under a millisecond; chat calls wait on a remote model.
var (
	defaultLatencyBuckets     = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000} //nolint:gochecknoglobals // read-only defaults
	defaultChatLatencyBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}           //nolint:gochecknoglobals // read-only defaults
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	chatBuckets      []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Reading metrics
	readingsComputed  prometheus.Counter
	invalidInputs     prometheus.Counter
	elementAssessment *prometheus.CounterVec
	materialsLookups  *prometheus.CounterVec

	// Chat proxy metrics
	chatRequests *prometheus.CounterVec
	chatLatency  prometheus.Histogram
	breakerState prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tianji",
		subsystem:        "fortune",
		histogramBuckets: defaultLatencyBuckets,
		chatBuckets:      defaultChatLatencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is enabled.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.readingsComputed = auto.NewCounter(m.counterOpts(
		"readings_computed_total", "Total number of BaZi readings computed"))

	m.invalidInputs = auto.NewCounter(m.counterOpts(
		"invalid_inputs_total", "Total number of birth inputs rejected at the boundary"))

	m.elementAssessment = auto.NewCounterVec(m.counterOpts(
		"element_assessments_total", "Assessed elements by role (strong, weak, useful, output)"),
		[]string{"role", "element"})

	m.materialsLookups = auto.NewCounterVec(m.counterOpts(
		"materials_lookups_total", "Recommendation catalog lookups by element"),
		[]string{"element"})

	m.chatRequests = auto.NewCounterVec(m.counterOpts(
		"chat_requests_total", "Chat proxy requests by outcome (ok, fallback, error, rejected)"),
		[]string{"outcome"})

	m.chatLatency = auto.NewHistogram(m.histogramOpts(
		"chat_upstream_latency_milliseconds", "Latency of upstream chat-completion calls in milliseconds",
		m.chatBuckets))

	m.breakerState = auto.NewGauge(m.gaugeOpts(
		"chat_breaker_state", "Chat upstream circuit breaker state (0 closed, 1 half-open, 2 open)"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(
		"error_latency_milliseconds", "Latency of operations that ended in an error", m.histogramBuckets),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))

	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))

	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Reading metrics functions.

// RecordReading counts a computed reading and the elements it selected.
func (m *Manager) RecordReading(strong, weak, useful, output string) {
	if !m.enabled {
		return
	}
	m.readingsComputed.Inc()
	m.elementAssessment.WithLabelValues("strong", strong).Inc()
	m.elementAssessment.WithLabelValues("weak", weak).Inc()
	m.elementAssessment.WithLabelValues("useful", useful).Inc()
	m.elementAssessment.WithLabelValues("output", output).Inc()
}

// RecordReading records a reading on the global manager.
func RecordReading(strong, weak, useful, output string) {
	globalManager.RecordReading(strong, weak, useful, output)
}

// RecordInvalidInput counts a rejected birth input.
func RecordInvalidInput() {
	if globalManager.enabled {
		globalManager.invalidInputs.Inc()
	}
}

// RecordMaterialsLookup counts a catalog lookup for element.
func RecordMaterialsLookup(element string) {
	if globalManager.enabled {
		globalManager.materialsLookups.WithLabelValues(element).Inc()
	}
}

// Chat metrics functions.

// RecordChatRequest counts a chat request by outcome.
func RecordChatRequest(outcome string) {
	if globalManager.enabled {
		globalManager.chatRequests.WithLabelValues(outcome).Inc()
	}
}

// RecordChatLatency records upstream latency in milliseconds.
func RecordChatLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.chatLatency.Observe(latencyMs)
	}
}

// UpdateBreakerState sets the breaker state gauge.
func UpdateBreakerState(state int) {
	globalManager.breakerState.Set(float64(state))
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics functions.

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Global returns the process-wide manager.
func Global() *Manager {
	return globalManager
}
