// Package metrics exposes Prometheus instrumentation for record operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeRejected = "rejected"
)

var (
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recordstore_operations_total",
		Help: "Total number of record operations by backend, operation and outcome",
	}, []string{"backend", "op", "outcome"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recordstore_operation_duration_seconds",
		Help:    "Time spent touching the namespace per record operation",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"backend", "op"})

	QuotaRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recordstore_quota_rejections_total",
		Help: "Total number of writes rejected because the namespace quota was exceeded",
	}, []string{"backend"})
)

// ObserveOperation records one finished operation.
func ObserveOperation(backend, op string, started time.Time, rejected bool) {
	if backend == "" {
		backend = "unknown"
	}
	outcome := OutcomeResolved
	if rejected {
		outcome = OutcomeRejected
	}
	OperationsTotal.WithLabelValues(backend, op, outcome).Inc()
	OperationDuration.WithLabelValues(backend, op).Observe(time.Since(started).Seconds())
}

// IncQuotaRejection records a write rejected by the namespace quota.
func IncQuotaRejection(backend string) {
	if backend == "" {
		backend = "unknown"
	}
	QuotaRejectionsTotal.WithLabelValues(backend).Inc()
}
