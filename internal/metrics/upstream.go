package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upstream dependency metrics (book catalog and language model).
var (
	CatalogRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmatch",
			Name:      "catalog_requests_total",
			Help:      "Total number of catalog API requests",
		},
		[]string{"op", "status"},
	)

	CatalogRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookmatch",
			Name:      "catalog_request_duration_seconds",
			Help:      "Catalog API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmatch",
			Name:      "model_requests_total",
			Help:      "Total number of language-model requests",
		},
		[]string{"op", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookmatch",
			Name:      "model_request_duration_seconds",
			Help:      "Language-model request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmatch",
			Name:      "model_tokens_total",
			Help:      "Total language-model tokens consumed",
		},
		[]string{"op", "type"},
	)
)

var upstreamMetricsRegistered bool

// RegisterUpstreamMetrics registers upstream dependency metrics. Must be
// called once from main.
func RegisterUpstreamMetrics() {
	if upstreamMetricsRegistered {
		return
	}
	prometheus.MustRegister(CatalogRequestsTotal)
	prometheus.MustRegister(CatalogRequestDuration)
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(ModelTokensTotal)
	upstreamMetricsRegistered = true
}
