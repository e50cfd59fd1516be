// Package metrics provides Prometheus metrics for the sales dashboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service registers.
type Manager struct {
	namespace string
	registry  prometheus.Registerer

	// HTTP performance
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Summary cache behavior
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Upstream CRM fetches
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	fallbackScans    prometheus.Counter

	// Narrative enrichment quality
	enrichmentFallbacks prometheus.Counter
}

// New builds a Manager and registers all collectors.
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: "salesdash",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "summary_cache_hits_total",
		Help:      "Dashboard summary served from the in-process cache.",
	})

	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "summary_cache_misses_total",
		Help:      "Dashboard summary recomputed from upstream data.",
	})

	m.upstreamRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "upstream_requests_total",
		Help:      "Upstream CRM requests by source and outcome.",
	}, []string{"source", "outcome"})

	m.upstreamLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream CRM request latency by source.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"source"})

	m.fallbackScans = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "upstream_fallback_scans_total",
		Help:      "Times the indexed deal query failed and the paginated scan ran.",
	})

	m.enrichmentFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "enrichment_fallbacks_total",
		Help:      "Times news copy fell back to the deterministic text.",
	})

	return m
}

// All Record methods tolerate a nil Manager so that tests and partial
// wirings can skip metrics entirely.

func (m *Manager) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Manager) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Manager) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Manager) RecordUpstreamRequest(source, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(source, outcome).Inc()
	m.upstreamLatency.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Manager) RecordFallbackScan() {
	if m == nil {
		return
	}
	m.fallbackScans.Inc()
}

func (m *Manager) RecordEnrichmentFallback() {
	if m == nil {
		return
	}
	m.enrichmentFallbacks.Inc()
}
