package docstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts store operations by name and result.
	// Labels: op (insert_one, find, search_vector, ...), result (success, error)
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatembeddingdb",
			Subsystem: "docstore",
			Name:      "operations_total",
			Help:      "Total number of document store operations",
		},
		[]string{"op", "result"},
	)

	// OperationDuration tracks store operation latency.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatembeddingdb",
			Subsystem: "docstore",
			Name:      "operation_duration_seconds",
			Help:      "Duration of document store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// observeOperation records the outcome and duration of a store operation.
func observeOperation(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	OperationsTotal.WithLabelValues(op, result).Inc()
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
