// Package metrics provides Prometheus metrics for the signingday service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the signingday service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Negotiation metrics
	negotiationsStarted   *prometheus.CounterVec
	negotiationsCompleted *prometheus.CounterVec
	offerUpdates          *prometheus.CounterVec
	negotiationErrors     *prometheus.CounterVec
	insufficientShare     *prometheus.CounterVec
	activeNegotiations    prometheus.Gauge
	acceptanceProbability prometheus.Histogram

	// Ledger metrics
	ledgerUsedShare      *prometheus.GaugeVec
	ledgerAvailableShare *prometheus.GaugeVec
	awardEvents          *prometheus.CounterVec

	// Sync bus metrics
	busPublished        *prometheus.CounterVec
	busHandlerFailures  *prometheus.CounterVec
	busDispatchLatency  prometheus.Histogram
	busSubscribers      prometheus.Gauge
	consistencyChecks   prometheus.Counter
	consistencyRepairs  *prometheus.CounterVec
	consistencyDuration prometheus.Histogram

	// Decision queue / AI worker metrics
	queueSize            prometheus.Gauge
	queueCapacity        prometheus.Gauge
	queueEnqueued        prometheus.Counter
	queueDequeued        prometheus.Counter
	queueEnqueueErrors   *prometheus.CounterVec
	workerActiveCount    prometheus.Gauge
	workerDecisions      *prometheus.CounterVec
	workerErrors         prometheus.Counter
	workerProcessLatency prometheus.Histogram

	// Redis bridge metrics
	bridgeMessages *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "signingday",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is the cadence for gauge refresh loops.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.negotiationsStarted = m.counterVec("negotiations_started_total",
		"Negotiations opened, by target kind", "kind")
	m.negotiationsCompleted = m.counterVec("negotiations_completed_total",
		"Negotiations reaching a terminal state, by target kind and outcome", "kind", "outcome")
	m.offerUpdates = m.counterVec("offer_updates_total",
		"Accepted offer updates, by target kind", "kind")
	m.negotiationErrors = m.counterVec("negotiation_errors_total",
		"Negotiation operations returning an error, by operation and error kind", "operation", "error")
	m.insufficientShare = m.counterVec("insufficient_scholarship_total",
		"Operations rejected for lack of scholarship capacity", "operation")
	m.activeNegotiations = m.gauge("active_negotiations",
		"Negotiations currently Active or CounterPending")
	m.acceptanceProbability = m.histogram("acceptance_probability",
		"Distribution of computed acceptance probabilities",
		[]float64{5, 15, 25, 35, 45, 55, 65, 75, 85, 95})

	m.ledgerUsedShare = m.gaugeVec("ledger_used_share",
		"Committed scholarship share per team", "team")
	m.ledgerAvailableShare = m.gaugeVec("ledger_available_share",
		"Uncommitted scholarship share per team", "team")
	m.awardEvents = m.counterVec("award_events_total",
		"Scholarship award lifecycle events", "action")

	m.busPublished = m.counterVec("bus_events_published_total",
		"Events published on the sync bus, by type", "type")
	m.busHandlerFailures = m.counterVec("bus_handler_failures_total",
		"Sync bus handler errors and panics, by event type", "type")
	m.busDispatchLatency = m.histogram("bus_dispatch_latency_milliseconds",
		"Time to fan an event out to every subscriber", m.histogramBuckets)
	m.busSubscribers = m.gauge("bus_subscribers",
		"Registered sync bus subscriptions")
	m.consistencyChecks = m.counter("consistency_checks_total",
		"Consistency repair passes executed")
	m.consistencyRepairs = m.counterVec("consistency_repairs_total",
		"Drifted counters overwritten by the consistency pass", "counter")
	m.consistencyDuration = m.histogram("consistency_check_duration_milliseconds",
		"Duration of a consistency repair pass", m.histogramBuckets)

	m.queueSize = m.gauge("decision_queue_size", "Pending AI decision requests")
	m.queueCapacity = m.gauge("decision_queue_capacity", "Decision queue capacity")
	m.queueEnqueued = m.counter("decision_queue_enqueued_total", "Decision requests enqueued")
	m.queueDequeued = m.counter("decision_queue_dequeued_total", "Decision requests dequeued")
	m.queueEnqueueErrors = m.counterVec("decision_queue_enqueue_errors_total",
		"Decision requests refused by the queue", "reason")
	m.workerActiveCount = m.gauge("decision_workers_active", "Running AI decision workers")
	m.workerDecisions = m.counterVec("decision_worker_decisions_total",
		"AI decisions taken, by outcome", "outcome")
	m.workerErrors = m.counter("decision_worker_errors_total", "AI decision failures")
	m.workerProcessLatency = m.histogram("decision_worker_latency_milliseconds",
		"Time to resolve one decision request", m.histogramBuckets)

	m.bridgeMessages = m.counterVec("bridge_messages_total",
		"Redis bridge traffic, by direction and result", "direction", "result")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP error responses by endpoint and error code", "endpoint", "code")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Negotiation metrics.

// RecordNegotiationStarted counts a newly opened negotiation.
func RecordNegotiationStarted(kind string) {
	globalManager.negotiationsStarted.WithLabelValues(kind).Inc()
}

// RecordNegotiationCompleted counts a negotiation reaching a terminal state.
func RecordNegotiationCompleted(kind, outcome string) {
	globalManager.negotiationsCompleted.WithLabelValues(kind, outcome).Inc()
}

// RecordOfferUpdate counts an accepted offer update.
func RecordOfferUpdate(kind string) {
	globalManager.offerUpdates.WithLabelValues(kind).Inc()
}

// RecordNegotiationError counts a failed negotiation operation.
func RecordNegotiationError(operation, errorKind string) {
	globalManager.negotiationErrors.WithLabelValues(operation, errorKind).Inc()
}

// RecordInsufficientScholarship counts a capacity rejection.
func RecordInsufficientScholarship(operation string) {
	globalManager.insufficientShare.WithLabelValues(operation).Inc()
}

// UpdateActiveNegotiations sets the number of open negotiations.
func UpdateActiveNegotiations(count int) {
	globalManager.activeNegotiations.Set(float64(count))
}

// ObserveAcceptanceProbability records a computed probability.
func ObserveAcceptanceProbability(p uint8) {
	globalManager.acceptanceProbability.Observe(float64(p))
}

// Ledger metrics.

// UpdateLedgerShare publishes a team's committed and available share.
func UpdateLedgerShare(team string, used, available float64) {
	globalManager.ledgerUsedShare.WithLabelValues(team).Set(used)
	globalManager.ledgerAvailableShare.WithLabelValues(team).Set(available)
}

// RecordAwardEvent counts award creation, release or renegotiation.
func RecordAwardEvent(action string) {
	globalManager.awardEvents.WithLabelValues(action).Inc()
}

// Sync bus metrics.

// RecordBusPublish counts a published event.
func RecordBusPublish(eventType string) {
	globalManager.busPublished.WithLabelValues(eventType).Inc()
}

// RecordBusHandlerFailure counts a handler that returned an error or panicked.
func RecordBusHandlerFailure(eventType string) {
	globalManager.busHandlerFailures.WithLabelValues(eventType).Inc()
}

// RecordBusDispatchLatency records fan-out latency in milliseconds.
func RecordBusDispatchLatency(latencyMs float64) {
	globalManager.busDispatchLatency.Observe(latencyMs)
}

// UpdateBusSubscribers sets the number of registered subscriptions.
func UpdateBusSubscribers(count int) {
	globalManager.busSubscribers.Set(float64(count))
}

// RecordConsistencyCheck counts a repair pass and its duration.
func RecordConsistencyCheck(durationMs float64) {
	globalManager.consistencyChecks.Inc()
	globalManager.consistencyDuration.Observe(durationMs)
}

// RecordConsistencyRepair counts an overwritten counter.
func RecordConsistencyRepair(counter string) {
	globalManager.consistencyRepairs.WithLabelValues(counter).Inc()
}

// Decision queue metrics.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Worker metrics.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerDecision counts an AI decision by outcome.
func RecordWorkerDecision(outcome string) {
	globalManager.workerDecisions.WithLabelValues(outcome).Inc()
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerProcessingLatency records decision latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessLatency.Observe(latencyMs)
}

// Bridge metrics.

// RecordBridgeMessage counts bridge traffic, e.g. ("out", "published").
func RecordBridgeMessage(direction, result string) {
	globalManager.bridgeMessages.WithLabelValues(direction, result).Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, code string) {
	globalManager.httpErrors.WithLabelValues(endpoint, code).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
