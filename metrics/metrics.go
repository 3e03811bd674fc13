// Package metrics exposes Prometheus instrumentation for loaders, the HTTP
// API and websocket feed sessions.
//
// A nil *Registry is valid and records nothing, so callers wire it
// unconditionally and let configuration decide whether it exists.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ytclone/loader"
)

const namespace = "ytclone"

// Registry owns the collectors of one process.
type Registry struct {
	reg *prometheus.Registry

	fetches      *prometheus.CounterVec
	fetchSeconds *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpSeconds  *prometheus.HistogramVec

	wsSessions prometheus.Gauge

	clientRequests *prometheus.CounterVec
}

// New creates a registry with the Go runtime and process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loader_fetches_total",
				Help:      "Completed loader fetches by feed and outcome",
			},
			[]string{"feed", "outcome"}, // outcome: more, exhausted, error, stale
		),
		fetchSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "loader_fetch_duration_seconds",
				Help:      "Duration of loader fetches",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"feed"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		httpSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		wsSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_feed_sessions",
			Help:      "Open websocket feed sessions",
		}),
		clientRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "client_requests_total",
				Help:      "Outbound API client requests by host and result",
			},
			[]string{"host", "result"}, // result: ok, error, rate_limited, circuit_open
		),
	}
}

// Gatherer returns the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Loader returns a loader.Metrics backed by r, or nil when r is nil.
func (r *Registry) Loader() loader.Metrics {
	if r == nil {
		return nil
	}
	return loaderMetrics{r}
}

type loaderMetrics struct{ r *Registry }

func (m loaderMetrics) ObserveFetch(name, outcome string, d time.Duration) {
	m.r.fetches.WithLabelValues(name, outcome).Inc()
	m.r.fetchSeconds.WithLabelValues(name).Observe(d.Seconds())
}

// Middleware records every request under its chi route pattern, so
// /api/videos/{id} is one series rather than one per id.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rc := chi.RouteContext(req.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
		r.httpSeconds.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}

// SessionOpened and SessionClosed track websocket feed sessions.
func (r *Registry) SessionOpened() {
	if r != nil {
		r.wsSessions.Inc()
	}
}

func (r *Registry) SessionClosed() {
	if r != nil {
		r.wsSessions.Dec()
	}
}

// ClientRequest counts an outbound API request.
func (r *Registry) ClientRequest(host, result string) {
	if r != nil {
		r.clientRequests.WithLabelValues(host, result).Inc()
	}
}
