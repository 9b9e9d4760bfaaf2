// Package metrics implements the observability hooks with Prometheus
// collectors and exposes them over /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dhuston/livingmap/pkg/observability"
)

// Metrics holds every collector and implements the three hook interfaces.
type Metrics struct {
	registry *prometheus.Registry

	layoutRuns     *prometheus.CounterVec
	layoutDuration prometheus.Histogram
	layoutNodes    prometheus.Histogram
	superseded     prometheus.Counter

	cacheOps *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		layoutRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livingmap_layout_runs_total",
			Help: "Layout runs by outcome.",
		}, []string{"outcome"}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "livingmap_layout_duration_seconds",
			Help:    "Wall time per layout run.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		layoutNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "livingmap_layout_nodes",
			Help:    "Node count per layout run.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livingmap_layout_superseded_total",
			Help: "Layout runs discarded because a newer request arrived.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livingmap_cache_ops_total",
			Help: "Cache operations by key type and result.",
		}, []string{"key_type", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livingmap_http_requests_total",
			Help: "HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "livingmap_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	registry.MustRegister(
		m.layoutRuns, m.layoutDuration, m.layoutNodes, m.superseded,
		m.cacheOps, m.httpRequests, m.httpDuration,
	)
	return m
}

// Register installs the metrics as the process-wide observability hooks.
func (m *Metrics) Register() {
	observability.SetLayoutHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnLayoutStart records the size of an incoming run.
func (m *Metrics) OnLayoutStart(ctx context.Context, runID string, nodeCount int) {
	m.layoutNodes.Observe(float64(nodeCount))
}

// OnLayoutComplete records run duration and outcome.
func (m *Metrics) OnLayoutComplete(ctx context.Context, runID string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.layoutRuns.WithLabelValues(outcome).Inc()
	m.layoutDuration.Observe(duration.Seconds())
}

// OnSuperseded counts discarded runs.
func (m *Metrics) OnSuperseded(ctx context.Context, seq uint64) {
	m.superseded.Inc()
}

// OnCacheHit counts cache hits.
func (m *Metrics) OnCacheHit(ctx context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss counts cache misses.
func (m *Metrics) OnCacheMiss(ctx context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet counts cache writes.
func (m *Metrics) OnCacheSet(ctx context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
}

// OnRequest is a no-op; requests are counted on response so the status
// label is available.
func (m *Metrics) OnRequest(ctx context.Context, method, path string) {}

// OnResponse records a completed request.
func (m *Metrics) OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Interface guards.
var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
