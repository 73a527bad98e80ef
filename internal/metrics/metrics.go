// Package metrics implements the observability hooks with Prometheus.
//
// Metrics live on a private registry so tests and multiple servers in one
// process do not collide on the global one.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/isomatch/pkg/observability"
)

const namespace = "isomatch"

// Metrics holds every collector. It implements observability.MatchHooks,
// observability.CacheHooks and observability.ServerHooks.
type Metrics struct {
	registry *prometheus.Registry

	queries         *prometheus.CounterVec
	queryDuration   prometheus.Histogram
	attempts        *prometheus.CounterVec
	attemptVisits   prometheus.Histogram
	attemptDuration prometheus.Histogram
	inFlight        prometheus.Gauge

	cacheOps   *prometheus.CounterVec
	cacheBytes prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	_ observability.MatchHooks  = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.ServerHooks = (*Metrics)(nil)
)

// New registers all collectors, plus the Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries run against a target set, by outcome.",
		}, []string{"result"}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Wall time of one query against the whole target set.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Single (target, query) match attempts, by outcome.",
		}, []string{"result"}),
		attemptVisits: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_visits",
			Help:      "Search tree nodes visited per attempt.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 8),
		}),
		attemptDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Wall time of a single match attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queries_in_flight",
			Help:      "Queries currently being matched.",
		}),

		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),

		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Register installs m as the process-wide match, cache and server hooks.
func (m *Metrics) Register() {
	observability.SetMatchHooks(m)
	observability.SetCacheHooks(m)
	observability.SetServerHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// OnQueryStart implements observability.MatchHooks.
func (m *Metrics) OnQueryStart(context.Context, string, int) {
	m.inFlight.Inc()
}

// OnAttempt implements observability.MatchHooks.
func (m *Metrics) OnAttempt(_ context.Context, _, _ string, matched bool, visits int, d time.Duration, err error) {
	m.attempts.WithLabelValues(outcome(matched, err)).Inc()
	m.attemptVisits.Observe(float64(visits))
	m.attemptDuration.Observe(d.Seconds())
}

// OnQueryComplete implements observability.MatchHooks.
func (m *Metrics) OnQueryComplete(_ context.Context, _ string, matched int, d time.Duration, err error) {
	m.inFlight.Dec()
	m.queries.WithLabelValues(outcome(matched > 0, err)).Inc()
	m.queryDuration.Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

// OnRequest implements observability.ServerHooks.
func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func outcome(matched bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case matched:
		return "matched"
	default:
		return "unmatched"
	}
}
