package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storageStatementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_storage_statements_total",
		Help: "Total number of storage statements by kind and result",
	}, []string{"kind", "result"})

	storageStatementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockroom_storage_statement_duration_seconds",
		Help:    "Duration of storage statements",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_auth_attempts_total",
		Help: "Count of authentication operations by kind and result",
	}, []string{"op", "result"})

	productMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_product_mutations_total",
		Help: "Count of product mutations by operation and result",
	}, []string{"op", "result"})

	purgeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_purge_operations_total",
		Help: "Count of purge worker runs by result",
	}, []string{"result"})

	purgedProducts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockroom_purged_products_total",
		Help: "Number of soft-deleted products permanently removed by the purge worker",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockroom_active_sessions",
		Help: "Number of authenticated in-process sessions",
	})
)

// ObserveStatement records a storage statement with its outcome.
func ObserveStatement(kind, result string, duration time.Duration) {
	storageStatementsTotal.WithLabelValues(kind, result).Inc()
	storageStatementDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveAuthAttempt increments the auth counter for the given operation and result.
func ObserveAuthAttempt(op, result string) {
	authAttemptsTotal.WithLabelValues(op, result).Inc()
}

// ObserveProductMutation increments the mutation counter for the given operation and result.
func ObserveProductMutation(op, result string) {
	productMutationsTotal.WithLabelValues(op, result).Inc()
}

// ObservePurge records one purge run and the number of rows it removed.
func ObservePurge(result string, removed int64) {
	purgeOperations.WithLabelValues(result).Inc()
	if removed > 0 {
		purgedProducts.Add(float64(removed))
	}
}

// IncrementSessions increments the active session gauge.
func IncrementSessions() {
	activeSessions.Inc()
}

// DecrementSessions decrements the active session gauge.
func DecrementSessions() {
	activeSessions.Dec()
}
