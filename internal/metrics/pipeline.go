package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weavefeed",
			Name:      "gateway_requests_total",
			Help:      "Total number of gateway requests",
		},
		[]string{"op", "status"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "weavefeed",
			Name:      "gateway_request_duration_seconds",
			Help:      "Gateway request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	HydrationItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weavefeed",
			Name:      "hydration_items_total",
			Help:      "Total transaction payloads hydrated, by outcome",
		},
		[]string{"result"}, // "ok" / "error"
	)

	HydrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "weavefeed",
			Name:      "hydration_duration_seconds",
			Help:      "Whole-page hydration duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ContentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weavefeed",
			Name:      "content_cache_total",
			Help:      "Content cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewayRequestDuration)
	prometheus.MustRegister(HydrationItemsTotal)
	prometheus.MustRegister(HydrationDuration)
	prometheus.MustRegister(ContentCacheTotal)
	pipelineMetricsRegistered = true
}
