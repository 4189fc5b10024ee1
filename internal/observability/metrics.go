// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	TradesExecuted  prometheus.Counter
	AccountsCrashed prometheus.Counter
	BatchSize       prometheus.Histogram

	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionOperations *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	StreamsActive     prometheus.Gauge

	// Simulation metrics
	SimulationsRun     *prometheus.CounterVec
	BatchRunsTotal     *prometheus.CounterVec
	BatchDuration      prometheus.Histogram
	AggregatesComputed prometheus.Counter

	// Health metrics
	LastSuccessfulBatch prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "rmultiple_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Engine metrics
		TradesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_executed_total",
			Help:      "Total number of simulated trades executed",
		}),
		AccountsCrashed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "accounts_crashed_total",
			Help:      "Total number of accounts that fell below the crash threshold",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "batch_trades",
			Help:      "Number of trades executed per batch request",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),

		// Session metrics
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Total number of sessions started or restarted",
		}),
		SessionOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Total number of session operations by status",
		}, []string{"operation", "status"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Session operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		StreamsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "streams_active",
			Help:      "Number of open batch progress websocket streams",
		}),

		// Simulation metrics
		SimulationsRun: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of independent simulations by strategy",
		}, []string{"strategy"}),
		BatchRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "batches_total",
			Help:      "Total number of simulation batches by final status",
		}, []string{"status"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "batch_duration_seconds",
			Help:      "Simulation batch duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),
		AggregatesComputed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "aggregates_computed_total",
			Help:      "Total number of strategy aggregates computed",
		}),

		// Health metrics
		LastSuccessfulBatch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_batch_timestamp",
			Help:      "Unix timestamp of last successful simulation batch",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTrades records executed trades and whether the account crashed.
func (m *Metrics) RecordTrades(executed int, crashed bool) {
	m.TradesExecuted.Add(float64(executed))
	m.BatchSize.Observe(float64(executed))
	if crashed {
		m.AccountsCrashed.Inc()
	}
}

// RecordOperation records one session operation.
func (m *Metrics) RecordOperation(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SessionOperations.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordBatchRun records a finished simulation batch.
func (m *Metrics) RecordBatchRun(status string, durationSeconds float64, aggregates int) {
	m.BatchRunsTotal.WithLabelValues(status).Inc()
	m.BatchDuration.Observe(durationSeconds)
	m.AggregatesComputed.Add(float64(aggregates))
	if status == "completed" {
		m.LastSuccessfulBatch.SetToCurrentTime()
	}
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")
