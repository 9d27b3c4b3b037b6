package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes. A degraded store and an empty result set return the same
// value shape to callers; these labels are how the two stay distinguishable.
const (
	SearchOutcomeOK            = "ok"
	SearchOutcomeEmpty         = "empty"
	SearchOutcomeDegradedStore = "degraded_store"
)

type SearchMetrics struct {
	registry *prometheus.Registry

	searchTotal    *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	rerankerMode   prometheus.Gauge
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mke",
			Subsystem: "search",
			Name:      "hybrid_search_total",
			Help:      "Total hybrid search calls by outcome.",
		},
		[]string{"service", "outcome"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mke",
			Subsystem: "search",
			Name:      "hybrid_search_duration_seconds",
			Help:      "Hybrid search duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	rerankerMode := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mke",
			Subsystem: "search",
			Name:      "reranker_available",
			Help:      "1 when the cross-encoder is active, 0 in pass-through mode.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(searchTotal, searchDuration, rerankerMode)

	return &SearchMetrics{
		registry:       registry,
		searchTotal:    searchTotal,
		searchDuration: searchDuration,
		rerankerMode:   rerankerMode,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch is nil-safe so use cases can run without a registry in tests.
func (m *SearchMetrics) ObserveSearch(service, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.searchTotal.WithLabelValues(service, outcome).Inc()
	m.searchDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *SearchMetrics) SetRerankerAvailable(available bool) {
	if m == nil {
		return
	}
	if available {
		m.rerankerMode.Set(1)
		return
	}
	m.rerankerMode.Set(0)
}
