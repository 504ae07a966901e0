// Package metrics provides Prometheus metrics for the clientiq review service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // read-only

// Manager manages all Prometheus metrics for the clientiq service.
type Manager struct {
	namespace         string
	subsystem         string
	latencyBuckets    []float64
	repositoryBuckets []float64
	budgetBuckets     []float64
	enabled           bool
	refreshInterval   time.Duration
	constLabels       map[string]string
	registry          prometheus.Registerer

	// Review pipeline
	reviewsGenerated *prometheus.CounterVec
	reviewsFailed    *prometheus.CounterVec
	pipelineLatency  *prometheus.HistogramVec
	gapsDetected     *prometheus.CounterVec
	overallScore     prometheus.Histogram
	budgetMonthly    prometheus.Histogram
	narratives       *prometheus.CounterVec

	// Data sources
	sourceFetchLatency *prometheus.HistogramVec
	sourceFetchErrors  *prometheus.CounterVec

	// Segmentation
	segmentationRecalculations *prometheus.CounterVec
	segmentationCoalesced      prometheus.Counter
	customersByTier            *prometheus.GaugeVec

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec
	repositoryErrors       *prometheus.CounterVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerJobsPerSecond     prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before handlers capture GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	customRegistry = registry
	globalManager = NewManager(opts...)
}

// RefreshInterval is the cadence of background gauge updates.
func RefreshInterval() time.Duration {
	if globalManager == nil {
		return defaultRefreshInterval
	}
	return globalManager.refreshInterval
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:         "clientiq",
		subsystem:         "review",
		latencyBuckets:    defaultLatencyBuckets,
		repositoryBuckets: prometheus.DefBuckets,
		budgetBuckets:     prometheus.ExponentialBuckets(100, 2, 10),
		enabled:           true,
		refreshInterval:   defaultRefreshInterval,
		constLabels:       map[string]string{},
		registry:          prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is the cadence for background gauge updates.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)
	latency := m.latencyBuckets

	m.reviewsGenerated = auto.NewCounterVec(m.counterOpts(
		"reviews_generated_total", "Total number of business reviews generated"), []string{"industry"})
	m.reviewsFailed = auto.NewCounterVec(m.counterOpts(
		"reviews_failed_total", "Total number of review runs that failed"), []string{"stage"})
	m.pipelineLatency = auto.NewHistogramVec(m.histogramOpts(
		"pipeline_stage_latency_milliseconds", "Latency of each review pipeline stage in milliseconds", latency),
		[]string{"stage"})
	m.gapsDetected = auto.NewCounterVec(m.counterOpts(
		"gaps_detected_total", "Total number of compliance gaps detected"), []string{"severity"})
	m.overallScore = auto.NewHistogram(m.histogramOpts(
		"overall_score", "Distribution of overall framework scores", prometheus.LinearBuckets(0.1, 0.1, 10)))
	m.budgetMonthly = auto.NewHistogram(m.histogramOpts(
		"budget_monthly_dollars", "Distribution of proposed monthly remediation budgets", m.budgetBuckets))
	m.narratives = auto.NewCounterVec(m.counterOpts(
		"narratives_total", "Total number of narrative generations by outcome"), []string{"outcome"})

	m.sourceFetchLatency = auto.NewHistogramVec(m.histogramOpts(
		"source_fetch_latency_milliseconds", "Latency of data source fetches in milliseconds", latency),
		[]string{"source", "resource"})
	m.sourceFetchErrors = auto.NewCounterVec(m.counterOpts(
		"source_fetch_errors_total", "Total number of failed data source fetches"), []string{"source", "resource"})

	m.segmentationRecalculations = auto.NewCounterVec(m.counterOpts(
		"segmentation_recalculations_total", "Total number of segmentation recalculations by result"),
		[]string{"result"})
	m.segmentationCoalesced = auto.NewCounter(m.counterOpts(
		"segmentation_coalesced_total", "Total number of recalculation requests merged into a pending job"))
	m.customersByTier = auto.NewGaugeVec(m.gaugeOpts(
		"customers_by_tier", "Number of segmented customers per tier"), []string{"tier"})

	m.repositoryQueryLatency = auto.NewHistogramVec(m.histogramOpts(
		"repository_query_latency_milliseconds", "Repository query latency in milliseconds", m.repositoryBuckets),
		[]string{"operation"})
	m.repositoryErrors = auto.NewCounterVec(m.counterOpts(
		"repository_errors_total", "Total number of repository errors"), []string{"operation"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of jobs in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum capacity of the queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_percent", "Queue utilization percentage"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts(
		"queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"queue_processing_latency_milliseconds", "Queue operation latency in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100}))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of configured segmentation workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers processing a job"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("worker_idle_count", "Number of idle workers"))
	m.workerJobsPerSecond = auto.NewGauge(m.gaugeOpts("worker_jobs_per_second", "Jobs processed per second"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Worker job latency in milliseconds", latency))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests"), []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", latency),
		[]string{"endpoint", "method", "status"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Total number of errors by component"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Total number of errors by type"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(
		"error_latency_milliseconds", "Latency of failed operations in milliseconds", latency),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

func on() bool {
	return globalManager != nil && globalManager.enabled
}

// RecordReviewGenerated counts a completed review for an industry.
func RecordReviewGenerated(industry string) {
	if on() {
		globalManager.reviewsGenerated.WithLabelValues(industry).Inc()
	}
}

// RecordReviewFailed counts a review run that failed at the given stage.
func RecordReviewFailed(stage string) {
	if on() {
		globalManager.reviewsFailed.WithLabelValues(stage).Inc()
	}
}

// RecordPipelineLatency records the latency of one pipeline stage.
func RecordPipelineLatency(stage string, latencyMs float64) {
	if on() {
		globalManager.pipelineLatency.WithLabelValues(stage).Observe(latencyMs)
	}
}

// RecordGap counts a detected gap by severity.
func RecordGap(severity string) {
	if on() {
		globalManager.gapsDetected.WithLabelValues(severity).Inc()
	}
}

// RecordOverallScore observes an overall framework score.
func RecordOverallScore(score float64) {
	if on() {
		globalManager.overallScore.Observe(score)
	}
}

// RecordBudgetMonthly observes a proposed monthly budget total.
func RecordBudgetMonthly(total float64) {
	if on() {
		globalManager.budgetMonthly.Observe(total)
	}
}

// RecordNarrative counts a narrative generation outcome.
func RecordNarrative(outcome string) {
	if on() {
		globalManager.narratives.WithLabelValues(outcome).Inc()
	}
}

// RecordSourceFetch records the latency of one data source fetch.
func RecordSourceFetch(source, resource string, latencyMs float64) {
	if on() {
		globalManager.sourceFetchLatency.WithLabelValues(source, resource).Observe(latencyMs)
	}
}

// RecordSourceFetchError counts a failed data source fetch.
func RecordSourceFetchError(source, resource string) {
	if on() {
		globalManager.sourceFetchErrors.WithLabelValues(source, resource).Inc()
	}
}

// RecordSegmentationRecalculation counts a recalculation by result.
func RecordSegmentationRecalculation(result string) {
	if on() {
		globalManager.segmentationRecalculations.WithLabelValues(result).Inc()
	}
}

// RecordSegmentationCoalesced counts a request merged into a pending job.
func RecordSegmentationCoalesced() {
	if on() {
		globalManager.segmentationCoalesced.Inc()
	}
}

// UpdateCustomersByTier sets the number of customers in a tier.
func UpdateCustomersByTier(tier string, count int) {
	if on() {
		globalManager.customersByTier.WithLabelValues(tier).Set(float64(count))
	}
}

// RecordRepositoryQueryLatency records repository query latency in milliseconds.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	if on() {
		globalManager.repositoryQueryLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// RecordRepositoryError counts a failed repository operation.
func RecordRepositoryError(operation string) {
	if on() {
		globalManager.repositoryErrors.WithLabelValues(operation).Inc()
	}
}

// UpdateQueueSize updates the current queue size.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity updates the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization updates the queue utilization percentage.
func UpdateQueueUtilization(utilization float64) {
	if on() {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueueRate.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeueRate.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// RecordQueueProcessingLatency records queue operation latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.queueProcessingLatency.Observe(latencyMs)
	}
}

// UpdateWorkerCount updates the configured worker count.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateWorkerActiveCount updates the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	if on() {
		globalManager.workerActiveCount.Set(float64(count))
	}
}

// UpdateWorkerIdleCount updates the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	if on() {
		globalManager.workerIdleCount.Set(float64(count))
	}
}

// UpdateWorkerJobsPerSecond updates the worker throughput gauge.
func UpdateWorkerJobsPerSecond(rate float64) {
	if on() {
		globalManager.workerJobsPerSecond.Set(rate)
	}
}

// RecordWorkerProcessingLatency records job latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrorRate.Inc()
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
	}
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if on() {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint counts an error returned by an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if on() {
		globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry backing the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Families gathers the registry and returns the number of metric families
// it exposes.
func Families() (int, error) {
	mfs, err := customRegistry.Gather()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrObserveFailed, err)
	}
	return len(mfs), nil
}
