package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchRequestsTotal *prometheus.CounterVec
	ragRequestsTotal    *prometheus.CounterVec
	ragRetrievedChunks  *prometheus.HistogramVec
	ragNoContextTotal   *prometheus.CounterVec
	ragDuration         *prometheus.HistogramVec
	promptTokensTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sapirag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sapirag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sapirag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sapirag",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total successful search requests by retrieval mode.",
		},
		[]string{"service", "mode"},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sapirag",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total successful RAG requests by retrieval mode.",
		},
		[]string{"service", "mode"},
	)
	ragRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sapirag",
			Subsystem: "rag",
			Name:      "retrieved_chunks",
			Help:      "Distribution of context chunks per successful RAG request.",
			Buckets:   []float64{0, 1, 2, 3, 4},
		},
		[]string{"service"},
	)
	ragNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sapirag",
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total RAG requests answered without retrieved context.",
		},
		[]string{"service"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sapirag",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "End-to-end RAG request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	promptTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sapirag",
			Subsystem: "llm",
			Name:      "prompt_tokens_total",
			Help:      "Approximate prompt token usage by backend.",
		},
		[]string{"service", "backend"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchRequestsTotal,
		ragRequestsTotal,
		ragRetrievedChunks,
		ragNoContextTotal,
		ragDuration,
		promptTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		searchRequestsTotal: searchRequestsTotal,
		ragRequestsTotal:    ragRequestsTotal,
		ragRetrievedChunks:  ragRetrievedChunks,
		ragNoContextTotal:   ragNoContextTotal,
		ragDuration:         ragDuration,
		promptTokensTotal:   promptTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/workspace/"):
		return "/workspace/{operation}"
	case strings.HasPrefix(path, "/search/"):
		return path
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSearchRequest(service, mode string) {
	if mode == "" {
		mode = "unknown"
	}
	m.searchRequestsTotal.WithLabelValues(service, mode).Inc()
}

func (m *HTTPServerMetrics) RecordRAGObservation(service, mode string, chunkCount int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.ragRequestsTotal.WithLabelValues(service, mode).Inc()
	m.ragRetrievedChunks.WithLabelValues(service).Observe(float64(chunkCount))
	m.ragDuration.WithLabelValues(service).Observe(duration.Seconds())

	if chunkCount == 0 {
		m.ragNoContextTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordPromptTokens(service, backend string, tokens int) {
	if tokens <= 0 {
		return
	}
	if backend == "" {
		backend = "unknown"
	}
	m.promptTokensTotal.WithLabelValues(service, backend).Add(float64(tokens))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
