package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the reconciliation pipeline.
var (
	StatusChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_checks_total",
			Help: "Total number of transaction status checks by canonical status",
		},
		[]string{"status"},
	)

	ConversionsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversions_sent_total",
			Help: "Total number of conversion events delivered per sink",
		},
		[]string{"sink"},
	)

	SinkFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_failures_total",
			Help: "Total number of failed sink deliveries per sink",
		},
		[]string{"sink"},
	)

	DuplicatesSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicates_suppressed_total",
			Help: "Total number of conversion attempts declined by the dedup guard",
		},
		[]string{"kind"},
	)

	GatewayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Total number of failed gateway status fetches per gateway",
		},
		[]string{"gateway"},
	)

	SinkDeliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sink_delivery_duration_seconds",
			Help:    "Duration of ledger sink deliveries",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(StatusChecksTotal)
	prometheus.MustRegister(ConversionsSentTotal)
	prometheus.MustRegister(SinkFailuresTotal)
	prometheus.MustRegister(DuplicatesSuppressedTotal)
	prometheus.MustRegister(GatewayErrorsTotal)
	prometheus.MustRegister(SinkDeliveryDuration)
}
