package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	jobTotal      *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobInFlight   prometheus.Gauge
	indexedChunks *prometheus.HistogramVec
	embeddedTexts *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sapirag",
			Subsystem: "worker",
			Name:      "chunk_jobs_total",
			Help:      "Total processed chunking jobs by status.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sapirag",
			Subsystem: "worker",
			Name:      "chunk_job_duration_seconds",
			Help:      "Chunking job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	jobInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sapirag",
			Subsystem: "worker",
			Name:      "chunk_jobs_in_flight",
			Help:      "Number of chunking jobs being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	indexedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sapirag",
			Subsystem: "worker",
			Name:      "indexed_chunks",
			Help:      "Distribution of chunks indexed per processed file.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"service"},
	)
	embeddedTexts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sapirag",
			Subsystem: "worker",
			Name:      "embedded_texts_total",
			Help:      "Total section texts sent to the embedding backend.",
		},
		[]string{"service"},
	)

	registry.MustRegister(jobTotal, jobDuration, jobInFlight, indexedChunks, embeddedTexts)

	return &WorkerMetrics{
		registry:      registry,
		service:       service,
		jobTotal:      jobTotal,
		jobDuration:   jobDuration,
		jobInFlight:   jobInFlight,
		indexedChunks: indexedChunks,
		embeddedTexts: embeddedTexts,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(duration time.Duration, err error) {
	m.jobInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.jobTotal.WithLabelValues(m.service, status).Inc()
	m.jobDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveIndexedChunks(count int) {
	if count <= 0 {
		return
	}
	m.indexedChunks.WithLabelValues(m.service).Observe(float64(count))
}

func (m *WorkerMetrics) AddEmbeddedTexts(count int) {
	if count <= 0 {
		return
	}
	m.embeddedTexts.WithLabelValues(m.service).Add(float64(count))
}
