// Package metrics defines the service's Prometheus collectors. All
// collectors register against the default registry and are exposed on
// GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes request latency per route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "feedrank",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration by method, route, and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// CacheHits counts feed responses served from the memoization cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedrank",
		Subsystem: "feed_cache",
		Name:      "hits_total",
		Help:      "Feed pages served from the response cache.",
	})

	// CacheMisses counts feed requests that required a full ranking pass.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedrank",
		Subsystem: "feed_cache",
		Name:      "misses_total",
		Help:      "Feed requests that missed the response cache.",
	})

	// CacheSize tracks the number of memoized feed pages. The cache never
	// evicts, so this only grows.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feedrank",
		Subsystem: "feed_cache",
		Name:      "entries",
		Help:      "Memoized feed pages currently held.",
	})

	// WebsocketClients tracks connected live-feed subscribers.
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feedrank",
		Subsystem: "live",
		Name:      "clients",
		Help:      "Connected websocket live-feed clients.",
	})
)
