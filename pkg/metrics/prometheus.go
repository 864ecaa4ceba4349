// Package metrics provides Prometheus metrics for the ranqr ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Voting metrics
	votesRecorded  *prometheus.CounterVec
	matchupsServed prometheus.Counter
	voteLatency    prometheus.Histogram

	// Ranking quality metrics
	trianglesDetected prometheus.Gauge
	trianglesResolved prometheus.Counter
	controversyScore  *prometheus.GaugeVec

	// Audit metrics - background point reconciliation
	auditRuns    prometheus.Counter
	auditRepairs prometheus.Counter
	auditLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
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
		namespace:        "ranqr",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.votesRecorded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "votes_recorded_total",
			Help:      "Total number of votes recorded, by outcome",
		},
		[]string{"outcome"},
	)

	m.matchupsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matchups_served_total",
		Help:      "Total number of matchups handed out to voters",
	})

	m.voteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "vote_latency_milliseconds",
		Help:      "Histogram of vote recording latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.trianglesDetected = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triangles_detected",
		Help:      "Number of intransitive triples found by the last scan",
	})

	m.trianglesResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triangles_resolved_total",
		Help:      "Total number of triangle resolutions applied",
	})

	m.controversyScore = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "controversy_score",
			Help:      "Total controversy score of a collection at last report",
		},
		[]string{"collection_id"},
	)

	m.auditRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_runs_total",
		Help:      "Total number of point audit passes",
	})

	m.auditRepairs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_repairs_total",
		Help:      "Total number of items whose cached points the audit corrected",
	})

	m.auditLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_latency_milliseconds",
		Help:      "Point audit pass duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
}

// RecordVote increments the vote counter for an outcome.
func RecordVote(outcome string) {
	globalManager.votesRecorded.WithLabelValues(outcome).Inc()
}

// RecordMatchupServed increments the matchups served counter.
func RecordMatchupServed() {
	globalManager.matchupsServed.Inc()
}

// RecordVoteLatency records vote recording latency in milliseconds.
func RecordVoteLatency(latencyMs float64) {
	globalManager.voteLatency.Observe(latencyMs)
}

// UpdateTrianglesDetected sets the triangle count from the last scan.
func UpdateTrianglesDetected(count int) {
	globalManager.trianglesDetected.Set(float64(count))
}

// RecordTriangleResolved increments the triangle resolutions counter.
func RecordTriangleResolved() {
	globalManager.trianglesResolved.Inc()
}

// UpdateControversyScore sets a collection's total controversy score.
func UpdateControversyScore(collectionID string, score float64) {
	globalManager.controversyScore.WithLabelValues(collectionID).Set(score)
}

// RecordAuditRun increments the audit pass counter.
func RecordAuditRun() {
	globalManager.auditRuns.Inc()
}

// RecordAuditRepairs adds to the corrected-items counter.
func RecordAuditRepairs(count int) {
	globalManager.auditRepairs.Add(float64(count))
}

// RecordAuditLatency records audit pass duration in milliseconds.
func RecordAuditLatency(latencyMs float64) {
	globalManager.auditLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
