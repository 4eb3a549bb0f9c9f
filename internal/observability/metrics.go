// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingest metrics
	TradesRead    prometheus.Counter
	TradesStored  prometheus.Counter
	TradesDropped *prometheus.CounterVec

	// Simulation metrics
	TrialsCompleted    prometheus.Counter
	SimulationDuration prometheus.Histogram
	TerminalOutcome    prometheus.Histogram

	// Run metrics
	AnalysisRunsTotal  *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	DegenerateMetrics  *prometheus.CounterVec
	ReportsGenerated   prometheus.Counter
	LastSuccessfulRun  prometheus.Gauge
	LastSuccessfulLoad prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a Metrics instance registered with reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_edge_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		TradesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "trades_read_total",
			Help:      "Total number of raw trade rows read",
		}),
		TradesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "trades_stored_total",
			Help:      "Total number of validated trades stored",
		}),
		TradesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "trades_dropped_total",
			Help:      "Total number of raw trade rows dropped by reason",
		}, []string{"reason"}),

		TrialsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "trials_completed_total",
			Help:      "Total number of Monte Carlo trials completed",
		}),
		SimulationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "simulation_duration_seconds",
			Help:      "Wall time of one ensemble generation",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		TerminalOutcome: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "terminal_outcome_median",
			Help:      "Median terminal equity of each ensemble",
			Buckets:   prometheus.LinearBuckets(-10000, 2000, 11),
		}),

		AnalysisRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by phase and status",
		}, []string{"phase", "status"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis phase duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),
		DegenerateMetrics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "degenerate_metrics_total",
			Help:      "Total number of undefined metrics by reason",
		}, []string{"reason"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "reports_generated_total",
			Help:      "Total number of reports written",
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
		LastSuccessfulLoad: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingest_timestamp",
			Help:      "Unix timestamp of last successful trade ingest",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordIngest records raw rows read, trades stored and drop counts by reason.
func (m *Metrics) RecordIngest(read, stored int, dropped map[string]int) {
	m.TradesRead.Add(float64(read))
	m.TradesStored.Add(float64(stored))
	for reason, n := range dropped {
		if n > 0 {
			m.TradesDropped.WithLabelValues(reason).Add(float64(n))
		}
	}
}

// RecordTrial increments the completed trials counter.
func (m *Metrics) RecordTrial() {
	m.TrialsCompleted.Inc()
}

// RecordSimulation records ensemble wall time and median terminal outcome.
func (m *Metrics) RecordSimulation(seconds, median float64) {
	m.SimulationDuration.Observe(seconds)
	m.TerminalOutcome.Observe(median)
}

// RecordDegenerate counts undefined metrics by reason.
func (m *Metrics) RecordDegenerate(reasons []string) {
	for _, r := range reasons {
		m.DegenerateMetrics.WithLabelValues(r).Inc()
	}
}

// RecordRun records an analysis phase outcome.
func (m *Metrics) RecordRun(phase, status string, durationSeconds float64) {
	m.AnalysisRunsTotal.WithLabelValues(phase, status).Inc()
	m.AnalysisDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
