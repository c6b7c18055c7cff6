package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "controlroom"

// Metrics holds the control room collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	repaints            prometheus.Counter
	markersRendered     prometheus.Gauge
	focusRequests       *prometheus.CounterVec
	activeSessions      prometheus.Gauge
	snapshotFetch       *prometheus.HistogramVec
	jobDuration         *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests processed",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		repaints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repaints_total",
			Help:      "Wholesale overlay repaints across all sessions",
		}),
		markersRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markers_rendered",
			Help:      "Markers drawn by the most recent repaint",
		}),
		focusRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "focus_requests_total",
			Help:      "Focus requests by outcome",
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open live map sessions",
		}),
		snapshotFetch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_fetch_duration_seconds",
			Help:      "Time spent loading a company marker snapshot",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cron_job_duration_seconds",
			Help:      "Duration of scheduled job runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job", "result"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpRequestDuration,
		m.repaints,
		m.markersRendered,
		m.focusRequests,
		m.activeSessions,
		m.snapshotFetch,
		m.jobDuration,
	)
	return m
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveRepaint implements livemap.Observer.
func (m *Metrics) ObserveRepaint(markers int) {
	if m == nil {
		return
	}
	m.repaints.Inc()
	m.markersRendered.Set(float64(markers))
}

// ObserveFocus implements livemap.Observer.
func (m *Metrics) ObserveFocus(found bool) {
	if m == nil {
		return
	}
	label := "miss"
	if found {
		label = "hit"
	}
	m.focusRequests.WithLabelValues(label).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) ObserveSnapshotFetch(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.snapshotFetch.WithLabelValues(result(err == nil)).Observe(duration.Seconds())
}

// ObserveJob matches cron.JobObserver.
func (m *Metrics) ObserveJob(name string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(name, result(err == nil)).Observe(duration.Seconds())
}

// Middleware records every request under its chi route pattern so path
// parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.ObserveHTTPRequest(r.Method, path, status, time.Since(start))
	})
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
