// Package telemetry exposes Prometheus metrics for the cache, upstream APIs
// and the HTTP surface.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Cache lookup results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds every collector on a private registry
type Metrics struct {
	registry *prometheus.Registry

	CacheLookups     *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	InsightsServed   *prometheus.CounterVec
}

// NewMetrics registers all collectors under namespace, plus the Go runtime
// and process collectors
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API calls by source and outcome",
		}, []string{"source", "outcome"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API latency including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by method, route and status",
		}, []string{"method", "route", "status"}),
		InsightsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_served_total",
			Help:      "Insight responses by origin (cache, model, rules)",
		}, []string{"origin"}),
	}

	reg.MustRegister(
		m.CacheLookups,
		m.UpstreamRequests,
		m.UpstreamLatency,
		m.HTTPRequests,
		m.InsightsServed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpstream records one upstream call
func (m *Metrics) ObserveUpstream(source, outcome string, d time.Duration) {
	m.UpstreamRequests.WithLabelValues(source, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveCache records a cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveInsight records where an insight response came from
func (m *Metrics) ObserveInsight(origin string) {
	m.InsightsServed.WithLabelValues(origin).Inc()
}

// ObserveHTTP records a served request
func (m *Metrics) ObserveHTTP(method, route, status string) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}

// RegisterCacheSize exposes the current cache size as a gauge
func (m *Metrics) RegisterCacheSize(namespace string, size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_entries",
		Help:      "Entries currently held by the response cache",
	}, func() float64 { return float64(size()) }))
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}
