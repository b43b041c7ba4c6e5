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

	askTotal      *prometheus.CounterVec
	askDuration   *prometheus.HistogramVec
	askConfidence *prometheus.HistogramVec
	askCandidates *prometheus.HistogramVec

	buildTotal    *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	chunksIndexed prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sqa",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total answered queries by mode and gate outcome.",
		},
		[]string{"service", "mode", "outcome"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sqa",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Query pipeline duration in seconds by mode.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	askConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sqa",
			Subsystem: "ask",
			Name:      "confidence",
			Help:      "Distribution of top-result confidence per query.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service", "mode"},
	)
	askCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sqa",
			Subsystem: "ask",
			Name:      "citations",
			Help:      "Distribution of citations per accepted answer.",
			Buckets:   []float64{0, 1, 2, 3},
		},
		[]string{"service", "mode"},
	)
	buildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sqa",
			Subsystem: "index",
			Name:      "builds_total",
			Help:      "Total index builds by status.",
		},
		[]string{"service", "status"},
	)
	buildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sqa",
			Subsystem: "index",
			Name:      "build_duration_seconds",
			Help:      "Index build duration in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service"},
	)
	chunksIndexed := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sqa",
			Subsystem: "index",
			Name:      "chunks_indexed",
			Help:      "Chunk count in the currently published index version.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askTotal,
		askDuration,
		askConfidence,
		askCandidates,
		buildTotal,
		buildDuration,
		chunksIndexed,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		askTotal:        askTotal,
		askDuration:     askDuration,
		askConfidence:   askConfidence,
		askCandidates:   askCandidates,
		buildTotal:      buildTotal,
		buildDuration:   buildDuration,
		chunksIndexed:   chunksIndexed,
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
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAsk(service, mode string, accepted bool, confidence float64, citations int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.askTotal.WithLabelValues(service, mode, outcome).Inc()
	m.askDuration.WithLabelValues(service, mode).Observe(duration.Seconds())
	m.askConfidence.WithLabelValues(service, mode).Observe(confidence)
	if accepted {
		m.askCandidates.WithLabelValues(service, mode).Observe(float64(citations))
	}
}

func (m *HTTPServerMetrics) RecordBuild(service string, duration time.Duration, chunkCount int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.buildTotal.WithLabelValues(service, status).Inc()
	if err == nil {
		m.buildDuration.WithLabelValues(service).Observe(duration.Seconds())
		m.chunksIndexed.Set(float64(chunkCount))
	}
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
