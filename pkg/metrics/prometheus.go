package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the skillup service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// Recommendations
	recommendationsServed *prometheus.CounterVec
	missingSkills         prometheus.Histogram
	learningPathLength    prometheus.Histogram

	// Identity
	authAttempts *prometheus.CounterVec

	// Stores
	storeLatency *prometheus.HistogramVec

	// Write-behind queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Profile writers
	writerOutcomes *prometheus.CounterVec
	writerLatency  prometheus.Histogram
	writerCount    prometheus.Gauge

	// Biometric simulator
	biometricTicks          prometheus.Counter
	biometricActiveSessions prometheus.Gauge
	biometricSessionsSaved  prometheus.Counter
	biometricSubscribers    prometheus.Gauge
	biometricDropped        prometheus.Counter

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record*/Update* helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served at /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillup",
		subsystem:        "api",
		histogramBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	countBuckets := []float64{0, 1, 2, 3, 5, 8, 13, 21}

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.recommendationsServed = m.counterVec("recommendations_served_total",
		"Course rankings served, by mode", "mode")
	m.missingSkills = m.histogram("missing_skills",
		"Number of missing skills per gap computation", countBuckets)
	m.learningPathLength = m.histogram("learning_path_length",
		"Number of courses in a computed learning path", countBuckets)

	m.authAttempts = m.counterVec("auth_attempts_total",
		"Signup and login attempts by outcome", "action", "outcome")

	m.storeLatency = m.histogramVec("store_latency_milliseconds",
		"Store operation latency in milliseconds", m.histogramBuckets, "store", "operation")

	m.queueSize = m.gauge("write_queue_size", "Current number of pending profile writes")
	m.queueCapacity = m.gauge("write_queue_capacity", "Maximum number of pending profile writes")
	m.queueEnqueued = m.counter("write_queue_enqueued_total", "Profile writes accepted into the queue")
	m.queueDequeued = m.counter("write_queue_dequeued_total", "Profile writes taken from the queue")
	m.queueEnqueueErrors = m.counter("write_queue_enqueue_errors_total", "Profile writes rejected by the queue")

	m.writerOutcomes = m.counterVec("writer_outcomes_total", "Profile writes applied by outcome", "outcome")
	m.writerLatency = m.histogram("writer_latency_milliseconds", "Profile write latency in milliseconds", m.histogramBuckets)
	m.writerCount = m.gauge("writer_count", "Number of running profile writers")

	m.biometricTicks = m.counter("biometric_ticks_total", "Biometric simulator steps taken")
	m.biometricActiveSessions = m.gauge("biometric_active_sessions", "Users with a running biometric session")
	m.biometricSessionsSaved = m.counter("biometric_sessions_saved_total", "Completed biometric sessions stored")
	m.biometricSubscribers = m.gauge("biometric_subscribers", "Open biometric stream subscribers")
	m.biometricDropped = m.counter("biometric_readings_dropped_total", "Readings dropped for slow subscribers")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func on() bool { return globalManager != nil && globalManager.enabled.Load() }

// RecordHTTPRequest records an HTTP request with its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !on() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordRecommendations counts a served ranking. mode is "personalized" or "filtered".
func RecordRecommendations(mode string) {
	if on() {
		globalManager.recommendationsServed.WithLabelValues(mode).Inc()
	}
}

// RecordGap records the size of a gap analysis result.
func RecordGap(missing, pathLen int) {
	if !on() {
		return
	}
	globalManager.missingSkills.Observe(float64(missing))
	globalManager.learningPathLength.Observe(float64(pathLen))
}

// RecordAuthAttempt counts a signup or login attempt.
func RecordAuthAttempt(action, outcome string) {
	if on() {
		globalManager.authAttempts.WithLabelValues(action, outcome).Inc()
	}
}

// RecordStoreLatency records a store operation latency in milliseconds.
func RecordStoreLatency(store, operation string, latencyMs float64) {
	if on() {
		globalManager.storeLatency.WithLabelValues(store, operation).Observe(latencyMs)
	}
}

// UpdateQueueSize sets the current write queue size.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the write queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// RecordWrite records the outcome and latency of an applied profile write.
func RecordWrite(outcome string, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.writerOutcomes.WithLabelValues(outcome).Inc()
	globalManager.writerLatency.Observe(latencyMs)
}

// UpdateWriterCount sets the number of running writers.
func UpdateWriterCount(count int) {
	if on() {
		globalManager.writerCount.Set(float64(count))
	}
}

// RecordBiometricTick counts one simulator step.
func RecordBiometricTick() {
	if on() {
		globalManager.biometricTicks.Inc()
	}
}

// UpdateBiometricActiveSessions sets the number of running sessions.
func UpdateBiometricActiveSessions(count int) {
	if on() {
		globalManager.biometricActiveSessions.Set(float64(count))
	}
}

// RecordBiometricSessionSaved counts a stored session.
func RecordBiometricSessionSaved() {
	if on() {
		globalManager.biometricSessionsSaved.Inc()
	}
}

// UpdateBiometricSubscribers sets the number of open stream subscribers.
func UpdateBiometricSubscribers(count int) {
	if on() {
		globalManager.biometricSubscribers.Set(float64(count))
	}
}

// RecordBiometricDropped counts a reading not delivered to a slow subscriber.
func RecordBiometricDropped() {
	if on() {
		globalManager.biometricDropped.Inc()
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) error {
	if globalManager == nil {
		return ErrNotInitialized
	}
	globalManager.enabled.Store(enabled)
	return nil
}
