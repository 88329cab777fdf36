package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application, including the
// ledger posting counters.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	entriesPosted     prometheus.Counter
	entriesReversed   prometheus.Counter
	sequenceConflicts prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	posted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_entries_posted_total",
		Help: "Journal entries transitioned to posted.",
	})
	reversed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_entries_reversed_total",
		Help: "Journal entries reversed.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_sequence_conflicts_total",
		Help: "Document number collisions detected under concurrency.",
	})
	registry.MustRegister(requests, duration, posted, reversed, conflicts)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		entriesPosted:     posted,
		entriesReversed:   reversed,
		sequenceConflicts: conflicts,
	}
}

// EntryPosted increments the posted-entries counter.
func (m *Metrics) EntryPosted() {
	if m != nil {
		m.entriesPosted.Inc()
	}
}

// EntryReversed increments the reversed-entries counter.
func (m *Metrics) EntryReversed() {
	if m != nil {
		m.entriesReversed.Inc()
	}
}

// SequenceConflict increments the sequence-collision counter.
func (m *Metrics) SequenceConflict() {
	if m != nil {
		m.sequenceConflicts.Inc()
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
