package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IngestMetrics struct {
	registry *prometheus.Registry
	service  string

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	documentInFlight prometheus.Gauge
	chunksTotal      *prometheus.CounterVec
	episodesTotal    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

func NewIngestMetrics(service string) *IngestMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mke",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total ingested documents by status.",
		},
		[]string{"service", "status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mke",
			Subsystem: "ingest",
			Name:      "document_duration_seconds",
			Help:      "Per-document pipeline duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	documentInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mke",
			Subsystem: "ingest",
			Name:      "documents_in_flight",
			Help:      "Number of documents currently in the pipeline.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mke",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total chunks created across documents.",
		},
		[]string{"service"},
	)
	episodesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mke",
			Subsystem: "ingest",
			Name:      "graph_episodes_total",
			Help:      "Total knowledge-graph episodes created.",
		},
		[]string{"service"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mke",
			Subsystem: "ingest",
			Name:      "errors_total",
			Help:      "Total per-document errors carried in ingestion results.",
		},
		[]string{"service"},
	)

	registry.MustRegister(documentsTotal, documentDuration, documentInFlight, chunksTotal, episodesTotal, errorsTotal)

	return &IngestMetrics{
		registry:         registry,
		service:          service,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		documentInFlight: documentInFlight,
		chunksTotal:      chunksTotal,
		episodesTotal:    episodesTotal,
		errorsTotal:      errorsTotal,
	}
}

func (m *IngestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IngestMetrics) StartDocument() {
	if m == nil {
		return
	}
	m.documentInFlight.Inc()
}

// FinishDocument records a completed document: partial failures count as
// "partial", clean runs as "success", zero-chunk outcomes as "failed".
func (m *IngestMetrics) FinishDocument(duration time.Duration, chunks, episodes, errs int) {
	if m == nil {
		return
	}
	m.documentInFlight.Dec()

	status := "success"
	switch {
	case chunks == 0:
		status = "failed"
	case errs > 0:
		status = "partial"
	}

	m.documentsTotal.WithLabelValues(m.service, status).Inc()
	m.documentDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
	m.chunksTotal.WithLabelValues(m.service).Add(float64(chunks))
	m.episodesTotal.WithLabelValues(m.service).Add(float64(episodes))
	m.errorsTotal.WithLabelValues(m.service).Add(float64(errs))
}
