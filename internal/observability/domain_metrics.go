package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	completionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckchat_completion_requests_total",
			Help: "Total completion API calls by assistant operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	schemaRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckchat_schema_refresh_total",
			Help: "Total schema snapshot refreshes by outcome.",
		},
		[]string{"outcome"},
	)
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckchat_query_executions_total",
			Help: "Total user-triggered SQL executions by outcome.",
		},
		[]string{"outcome"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "duckchat_query_duration_seconds",
			Help:    "SQL execution latency against the embedded engine.",
			Buckets: prometheus.DefBuckets,
		},
	)
	sqlFixAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duckchat_sql_fix_attempts_total",
			Help: "Total user-triggered SQL repair attempts.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		completionRequestsTotal,
		schemaRefreshTotal,
		queryExecutionsTotal,
		queryDurationSeconds,
		sqlFixAttemptsTotal,
	)
}

func ObserveCompletion(operation, outcome string) {
	completionRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func ObserveSchemaRefresh(outcome string) {
	schemaRefreshTotal.WithLabelValues(outcome).Inc()
}

func ObserveQueryExecution(outcome string, elapsed time.Duration) {
	queryExecutionsTotal.WithLabelValues(outcome).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveFixAttempt() {
	sqlFixAttemptsTotal.Inc()
}
