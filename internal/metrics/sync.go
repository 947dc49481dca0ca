package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sync pipeline Prometheus metrics.
var (
	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "webhook_deliveries_total",
			Help:      "Total number of processed webhook deliveries",
		},
		[]string{"type", "outcome"},
	)

	WebhookQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vecsync",
			Name:      "webhook_queue_depth",
			Help:      "Number of webhook deliveries waiting to be processed",
		},
	)

	SyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecsync",
			Name:      "sync_duration_seconds",
			Help:      "End-to-end delivery processing duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"type"},
	)

	SyncRecordsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "sync_records_fetched_total",
			Help:      "Total number of records fetched from the connector",
		},
		[]string{"provider_config_key"},
	)

	SyncRecordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "sync_records_skipped_total",
			Help:      "Total number of records skipped for unrecognized models",
		},
		[]string{"provider_config_key"},
	)

	SyncChunksUpserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "sync_chunks_upserted_total",
			Help:      "Total number of chunks upserted into collections",
		},
		[]string{"provider_config_key"},
	)

	SyncDeleteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsync",
			Name:      "sync_delete_calls_total",
			Help:      "Total number of collection delete calls by reason",
		},
		[]string{"reason"}, // "deleted" / "stale"
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers Prometheus sync metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(WebhookDeliveriesTotal)
	prometheus.MustRegister(WebhookQueueDepth)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(SyncRecordsFetched)
	prometheus.MustRegister(SyncRecordsSkipped)
	prometheus.MustRegister(SyncChunksUpserted)
	prometheus.MustRegister(SyncDeleteCalls)
	syncMetricsRegistered = true
}
