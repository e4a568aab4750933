// Package metrics provides Prometheus metrics for the juryrank service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Submissions
	submissionsAccepted  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsApplied   prometheus.Counter
	submissionsRejected  prometheus.Counter

	// Rankings
	rankingsComputed prometheus.Counter
	rankingLatency   prometheus.Histogram
	rankedProjects   prometheus.Gauge
	orphanedScores   prometheus.Gauge

	// Catalog
	entityCount    *prometheus.GaugeVec
	stateMutations *prometheus.CounterVec

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueLatency       prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	workerMessagesPerSecond prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// Live stream and export
	streamClients    prometheus.Gauge
	streamBroadcasts prometheus.Counter
	streamDropped    prometheus.Counter
	exportsTotal     *prometheus.CounterVec
	exportLastUnix   prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "juryrank",
		subsystem:        "rankings",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.submissionsAccepted = m.counter("submissions_accepted_total", "Score submissions accepted for processing")
	m.submissionsDuplicate = m.counter("submissions_duplicate_total", "Score submissions acknowledged as duplicates")
	m.submissionsApplied = m.counter("submissions_applied_total", "Score submissions written to the store")
	m.submissionsRejected = m.counter("submissions_rejected_total", "Score submissions that failed to apply")

	m.rankingsComputed = m.counter("computed_total", "Number of ranking computations")
	m.rankingLatency = m.histogram("compute_latency_milliseconds", "Ranking computation latency in milliseconds")
	m.rankedProjects = m.gauge("ranked_projects", "Projects present in the latest ranking")
	m.orphanedScores = m.gauge("orphaned_scores", "Scores referencing unknown projects in the latest ranking input")

	m.entityCount = m.gaugeVec("entities", "Stored entities by kind", "kind")
	m.stateMutations = m.counterVec("state_mutations_total", "Catalog mutations by operation", "op")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency in milliseconds", "driver", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Store operation failures", "driver", "op")

	m.queueSize = m.gauge("queue_size", "Current number of queued submissions")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queued submissions")
	m.queueUtilization = m.gauge("queue_utilization", "Queue fill ratio between 0 and 1")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Submissions enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Submissions dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Submissions refused by the queue")
	m.queueLatency = m.histogram("queue_enqueue_latency_milliseconds", "Enqueue latency in milliseconds")

	m.workerCount = m.gauge("worker_count", "Running submission workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to apply one submission")
	m.workerErrors = m.counter("worker_errors_total", "Submissions a worker failed to apply")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Recent submission throughput")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations", "component", "error_type")

	m.streamClients = m.gauge("stream_clients", "Connected live ranking clients")
	m.streamBroadcasts = m.counter("stream_broadcasts_total", "Ranking updates pushed to clients")
	m.streamDropped = m.counter("stream_dropped_total", "Clients dropped for falling behind")
	m.exportsTotal = m.counterVec("exports_total", "Scheduled ranking exports by status", "status")
	m.exportLastUnix = m.gauge("export_last_success_unix", "Unix time of the last successful export")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Submission metrics.

// RecordSubmissionAccepted counts a submission placed on the queue.
func RecordSubmissionAccepted() { globalManager.submissionsAccepted.Inc() }

// RecordSubmissionDuplicate counts a repeated submission id.
func RecordSubmissionDuplicate() { globalManager.submissionsDuplicate.Inc() }

// RecordSubmissionApplied counts a submission written to the store.
func RecordSubmissionApplied() { globalManager.submissionsApplied.Inc() }

// RecordSubmissionRejected counts a submission that failed to apply.
func RecordSubmissionRejected() { globalManager.submissionsRejected.Inc() }

// Ranking metrics.

// RecordRankingComputed records one engine run and its outcome.
func RecordRankingComputed(latencyMs float64, ranked, orphaned int) {
	globalManager.rankingsComputed.Inc()
	globalManager.rankingLatency.Observe(latencyMs)
	globalManager.rankedProjects.Set(float64(ranked))
	globalManager.orphanedScores.Set(float64(orphaned))
}

// UpdateEntityCount sets the stored count for kind (projects, judges, criteria, scores).
func UpdateEntityCount(kind string, count int) {
	globalManager.entityCount.WithLabelValues(kind).Set(float64(count))
}

// RecordStateMutation counts a catalog mutation such as "create_project".
func RecordStateMutation(op string) { globalManager.stateMutations.WithLabelValues(op).Inc() }

// Store metrics.

// RecordStoreLatency observes a store operation duration.
func RecordStoreLatency(driver, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(driver, op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(driver, op string) { globalManager.storeErrors.WithLabelValues(driver, op).Inc() }

// Queue metrics.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue fill ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueued submission.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued submission.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueLatency observes enqueue latency.
func RecordQueueLatency(latencyMs float64) { globalManager.queueLatency.Observe(latencyMs) }

// Worker metrics.

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency observes the time to apply one submission.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed submission.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateWorkerMessagesPerSecond sets the recent throughput.
func UpdateWorkerMessagesPerSecond(rate float64) { globalManager.workerMessagesPerSecond.Set(rate) }

// HTTP metrics.

// RecordHTTPRequest counts a request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes a request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

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

// Stream and export metrics.

// UpdateStreamClients sets the number of live ranking subscribers.
func UpdateStreamClients(count int) { globalManager.streamClients.Set(float64(count)) }

// RecordStreamBroadcast counts a ranking update pushed to clients.
func RecordStreamBroadcast() { globalManager.streamBroadcasts.Inc() }

// RecordStreamDropped counts a client dropped for being too slow.
func RecordStreamDropped() { globalManager.streamDropped.Inc() }

// RecordExport counts an export attempt; status is "ok" or "error".
func RecordExport(status string, at time.Time) {
	globalManager.exportsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		globalManager.exportLastUnix.Set(float64(at.Unix()))
	}
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
