// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records outbound catalog requests.
type CatalogMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Catalog API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Latency of catalog API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by endpoint and result.",
	}, []string{"endpoint", "result"})
	reg.MustRegister(requests, duration, cache)
	return &CatalogMetrics{
		requests: requests,
		duration: duration,
		cache:    cache,
	}
}

// ObserveRequest records one catalog request.
func (c *CatalogMetrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if c == nil || c.requests == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	c.requests.WithLabelValues(endpoint, normalizeLabel(outcome)).Inc()
	c.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// CacheHit counts a cache hit for the endpoint.
func (c *CatalogMetrics) CacheHit(endpoint string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues(normalizeLabel(endpoint), "hit").Inc()
}

// CacheMiss counts a cache miss for the endpoint.
func (c *CatalogMetrics) CacheMiss(endpoint string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues(normalizeLabel(endpoint), "miss").Inc()
}

// WatchlistMetrics records watchlist store operations.
type WatchlistMetrics struct {
	operations *prometheus.CounterVec
	size       prometheus.Gauge
}

// NewWatchlistMetrics registers the watchlist metrics on the provided registerer.
func NewWatchlistMetrics(reg prometheus.Registerer) *WatchlistMetrics {
	if reg == nil {
		return &WatchlistMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchlist_operations_total",
		Help: "Watchlist store operations by operation and result.",
	}, []string{"operation", "result"})
	size := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "watchlist_size",
		Help: "Number of movies in the watchlist after the last write.",
	})
	reg.MustRegister(operations, size)
	return &WatchlistMetrics{
		operations: operations,
		size:       size,
	}
}

// Observe counts a store operation with its result (ok, noop, error, corrupt).
func (w *WatchlistMetrics) Observe(operation, result string) {
	if w == nil || w.operations == nil {
		return
	}
	w.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

// SetSize records the collection size after a successful write.
func (w *WatchlistMetrics) SetSize(n int) {
	if w == nil || w.size == nil {
		return
	}
	w.size.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
