package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// TicksTotal tracks import ticks by outcome
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_ticks_total",
			Help: "Total number of import ticks processed",
		},
		[]string{"status"}, // status: chunk, rollover, idle, failed
	)

	// ChunkDuration measures chunk processing duration in seconds
	ChunkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitsync_chunk_duration_seconds",
			Help:    "Chunk processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
	)

	// RowsInserted counts compatibility rows written to the registry
	RowsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitsync_rows_inserted_total",
			Help: "Total number of compatibility rows inserted",
		},
	)

	// RolloversTotal counts file completions
	RolloversTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitsync_rollovers_total",
			Help: "Total number of files completed and rolled over",
		},
	)

	// ReconciliationsTotal counts per-product tag reconciliations
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_reconciliations_total",
			Help: "Total number of product tag reconciliations",
		},
		[]string{"status"}, // status: success, failed
	)

	// ReconciliationDuration measures per-product reconciliation time
	ReconciliationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitsync_reconciliation_duration_seconds",
			Help:    "Per-product tag reconciliation duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~50s
		},
		[]string{"status"},
	)

	// RateLimitsTotal counts catalog rate-limit responses
	RateLimitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitsync_catalog_rate_limits_total",
			Help: "Total number of rate-limited catalog API calls",
		},
	)

	// TicksEnqueued counts tick tasks enqueued
	TicksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_ticks_enqueued_total",
			Help: "Total number of tick tasks enqueued",
		},
		[]string{"trigger"}, // trigger: schedule, manual
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordTick records a completed import tick
func RecordTick(status string) {
	TicksTotal.WithLabelValues(status).Inc()
}

// RecordChunk records chunk processing metrics
func RecordChunk(rows int, duration float64) {
	ChunkDuration.Observe(duration)
	RowsInserted.Add(float64(rows))
}

// RecordRollover records a file completion
func RecordRollover() {
	RolloversTotal.Inc()
}

// RecordReconciliation records a per-product reconciliation outcome
func RecordReconciliation(status string, duration float64) {
	ReconciliationsTotal.WithLabelValues(status).Inc()
	ReconciliationDuration.WithLabelValues(status).Observe(duration)
}

// RecordRateLimit records a rate-limited catalog call
func RecordRateLimit() {
	RateLimitsTotal.Inc()
}

// RecordTickEnqueued records a tick enqueue
func RecordTickEnqueued(trigger string) {
	TicksEnqueued.WithLabelValues(trigger).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
