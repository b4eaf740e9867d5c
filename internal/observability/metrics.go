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
	// Simulation metrics
	TrialsSimulated *prometheus.CounterVec
	DaysSimulated   prometheus.Counter
	SoldOutTrials   *prometheus.CounterVec
	TrialRevenue    *prometheus.HistogramVec
	TrialLoadFactor *prometheus.HistogramVec

	// Demand metrics
	DemandFallbacks *prometheus.CounterVec

	// Analysis metrics
	AnalysisRunsTotal  *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	AggregatesComputed prometheus.Counter
	ReportsGenerated   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Stream metrics
	StreamClients prometheus.Gauge

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "airline_pricing_lab"
	}

	return &Metrics{
		TrialsSimulated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trials_total",
			Help:      "Total number of completed trials by policy",
		}, []string{"policy"}),
		DaysSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "days_total",
			Help:      "Total number of simulated sales days",
		}),
		SoldOutTrials: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "sold_out_trials_total",
			Help:      "Trials whose inventory reached zero before departure",
		}, []string{"policy"}),
		TrialRevenue: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trial_revenue",
			Help:      "Total revenue per trial",
			Buckets:   prometheus.ExponentialBuckets(1000, 2, 12),
		}, []string{"policy"}),
		TrialLoadFactor: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trial_load_factor",
			Help:      "Fraction of capacity sold per trial",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"policy"}),

		DemandFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "demand",
			Name:      "fallbacks_total",
			Help:      "Demand lookups served from the fallback range by reason",
		}, []string{"reason"}),

		AnalysisRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by mode and status",
		}, []string{"mode", "status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"mode"}),
		AggregatesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "aggregates_computed_total",
			Help:      "Total number of aggregate statistics computed",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected websocket trial feed clients",
		}),

		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTrial records a completed trial.
func RecordTrial(policy string, days int, revenue, loadFactor float64, soldOut bool) {
	DefaultMetrics.TrialsSimulated.WithLabelValues(policy).Inc()
	DefaultMetrics.DaysSimulated.Add(float64(days))
	DefaultMetrics.TrialRevenue.WithLabelValues(policy).Observe(revenue)
	DefaultMetrics.TrialLoadFactor.WithLabelValues(policy).Observe(loadFactor)
	if soldOut {
		DefaultMetrics.SoldOutTrials.WithLabelValues(policy).Inc()
	}
}

// RecordDemandFallback records a demand lookup served from the fallback range.
func RecordDemandFallback(datasetLoaded bool) {
	reason := "dataset_unavailable"
	if datasetLoaded {
		reason = "missing_row"
	}
	DefaultMetrics.DemandFallbacks.WithLabelValues(reason).Inc()
}

// RecordAnalysisRun records an analysis run.
func RecordAnalysisRun(mode, status string, durationSeconds float64) {
	DefaultMetrics.AnalysisRunsTotal.WithLabelValues(mode, status).Inc()
	DefaultMetrics.AnalysisDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordAggregateComputed increments the aggregates counter.
func RecordAggregateComputed() {
	DefaultMetrics.AggregatesComputed.Inc()
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetStreamClients updates the connected client gauge.
func SetStreamClients(n int) {
	DefaultMetrics.StreamClients.Set(float64(n))
}

// MarkAnalysisSuccess sets the last successful analysis timestamp.
func MarkAnalysisSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulAnalysis.Set(float64(unixSeconds))
}
