package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the docintel collectors on a private registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	stageAttempts    *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	metricsExtracted *prometheus.CounterVec
	documents        *prometheus.CounterVec
	retrievalQueries *prometheus.CounterVec
	enrichments      *prometheus.CounterVec
	embedCache       *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docintel_stage_attempts_total",
				Help: "Extraction stage attempts by method and status",
			},
			[]string{"method", "status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docintel_stage_duration_seconds",
				Help:    "Extraction stage duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 120},
			},
			[]string{"method"},
		),
		metricsExtracted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docintel_metrics_extracted_total",
				Help: "Metrics merged into extraction results by method",
			},
			[]string{"method"},
		),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docintel_documents_total",
				Help: "Documents processed by outcome",
			},
			[]string{"outcome"},
		),
		retrievalQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docintel_retrieval_queries_total",
				Help: "Retrieval queries by index kind",
			},
			[]string{"index"},
		),
		enrichments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docintel_enrichment_total",
				Help: "Enrichment runs by status",
			},
			[]string{"status"},
		),
		embedCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docintel_embedding_cache_total",
				Help: "Embedding cache lookups by result",
			},
			[]string{"result"},
		),
	}
	r.registry.MustRegister(
		r.stageAttempts,
		r.stageDuration,
		r.metricsExtracted,
		r.documents,
		r.retrievalQueries,
		r.enrichments,
		r.embedCache,
	)
	return r
}

func (r *Recorder) StageAttempt(method, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stageAttempts.WithLabelValues(method, status).Inc()
	r.stageDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (r *Recorder) MetricsExtracted(method string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.metricsExtracted.WithLabelValues(method).Add(float64(n))
}

func (r *Recorder) Document(outcome string) {
	if r == nil {
		return
	}
	r.documents.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RetrievalQuery(index string) {
	if r == nil {
		return
	}
	r.retrievalQueries.WithLabelValues(index).Inc()
}

func (r *Recorder) Enrichment(status string) {
	if r == nil {
		return
	}
	r.enrichments.WithLabelValues(status).Inc()
}

func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.embedCache.WithLabelValues(result).Inc()
}

// Gatherer exposes the private registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
