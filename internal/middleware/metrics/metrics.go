// Package metrics exposes Prometheus collectors for the API and the
// ledger service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"financas/internal/middleware/trace"
)

const namespace = "financas"

// Metrics owns a registry so tests and multiple servers do not collide on
// the global one.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ledgerWrites    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	snapshots       *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// New creates and registers every collector, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
			},
			[]string{"code", "method", "route"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "The HTTP request latencies in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"code", "method", "route"},
		),
		ledgerWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_writes_total",
				Help:      "Successful ledger writes, partitioned by entity and operation.",
			},
			[]string{"entity", "op"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dashboard_cache_lookups_total",
				Help:      "Dashboard cache lookups, partitioned by result.",
			},
			[]string{"result"},
		),
		snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_refreshes_total",
				Help:      "Month snapshot refreshes by the worker, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Write requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.requestCount, m.requestDuration, m.ledgerWrites, m.cacheLookups, m.snapshots, m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency. Routes are labelled by
// their chi pattern to keep IDs out of the label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := trace.NewResponseWriter(w)
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		code := strconv.Itoa(rw.Status())
		m.requestDuration.WithLabelValues(code, r.Method, route).Observe(time.Since(start).Seconds())
		m.requestCount.WithLabelValues(code, r.Method, route).Inc()
	})
}

// LedgerWrite counts a successful write.
func (m *Metrics) LedgerWrite(entity, op string) {
	m.ledgerWrites.WithLabelValues(entity, op).Inc()
}

// CacheLookup counts a dashboard cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SnapshotRefreshed counts a worker refresh.
func (m *Metrics) SnapshotRefreshed(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.snapshots.WithLabelValues(outcome).Inc()
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() { m.rateLimited.Inc() }
