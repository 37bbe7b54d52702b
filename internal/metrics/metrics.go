package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for queue health and realtime delivery
var (
	TokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_tokens_issued_total",
			Help: "Total number of queue tokens issued",
		},
	)

	TokenCreateDeduplicatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_token_create_deduplicated_total",
			Help: "Create-token calls answered with the visitor's existing active token",
		},
	)

	TokenTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_token_transitions_total",
			Help: "Successful token status transitions",
		},
		[]string{"to"},
	)

	TransitionsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_transitions_rejected_total",
			Help: "Status transitions rejected as illegal",
		},
	)

	StreamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_stream_subscribers",
			Help: "Currently connected realtime subscribers",
		},
	)

	SnapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_snapshot_duration_seconds",
			Help:    "Duration of queue snapshot queries",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(TokensIssuedTotal)
	prometheus.MustRegister(TokenCreateDeduplicatedTotal)
	prometheus.MustRegister(TokenTransitionsTotal)
	prometheus.MustRegister(TransitionsRejectedTotal)
	prometheus.MustRegister(StreamSubscribers)
	prometheus.MustRegister(SnapshotDuration)
}
