package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for RouteNet. All Record/Observe
// methods are safe on a nil or disabled receiver.
type Metrics struct {
	config MetricsConfig

	// Decision metrics
	routesTotal      *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec

	// Discovery cache metrics
	cacheLookups *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	// Discovery client metrics
	discoveryRequests  *prometheus.CounterVec
	discoveryFallbacks *prometheus.CounterVec

	// Admission policy metrics
	policyDenials *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DecisionDurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		routesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "routes_total",
				Help:      "Total number of routing decisions by strategy and outcome",
			},
			[]string{"strategy", "status"},
		),
		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decision_duration_seconds",
				Help:      "End-to-end routing decision latency in seconds",
				Buckets:   buckets,
			},
			[]string{"strategy"},
		),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_cache_lookups_total",
				Help:      "Discovery cache lookups by result (hit, miss, stale)",
			},
			[]string{"result"},
		),
		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "discovery_cache_entries",
				Help:      "Current number of discovery cache entries",
			},
		),

		discoveryRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_requests_total",
				Help:      "Requests to the Discovery API by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),
		discoveryFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_fallbacks_total",
				Help:      "Catalog fallback fetches by outcome (matched, empty, error)",
			},
			[]string{"outcome"},
		),

		policyDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_denials_total",
				Help:      "Candidates denied by admission policies",
			},
			[]string{"policy"},
		),
	}

	collectors := []prometheus.Collector{
		m.routesTotal,
		m.decisionDuration,
		m.cacheLookups,
		m.cacheEntries,
		m.discoveryRequests,
		m.discoveryFallbacks,
		m.policyDenials,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// enabled reports whether this collector records anything.
func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// Handler returns an HTTP handler serving the metrics registry.
// Returns a 404 handler when metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRouteDecision counts one routing decision outcome.
func (m *Metrics) RecordRouteDecision(strategy, status string) {
	if !m.enabled() {
		return
	}
	m.routesTotal.WithLabelValues(strategy, status).Inc()
}

// ObserveDecisionDuration records end-to-end decision latency.
func (m *Metrics) ObserveDecisionDuration(strategy string, d time.Duration) {
	if !m.enabled() {
		return
	}
	m.decisionDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordCacheLookup counts a cache lookup result: hit, miss, or stale.
func (m *Metrics) RecordCacheLookup(result string) {
	if !m.enabled() {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetCacheEntries tracks the current cache population.
func (m *Metrics) SetCacheEntries(n int) {
	if !m.enabled() {
		return
	}
	m.cacheEntries.Set(float64(n))
}

// RecordDiscoveryRequest counts a Discovery API request outcome.
func (m *Metrics) RecordDiscoveryRequest(endpoint, status string) {
	if !m.enabled() {
		return
	}
	m.discoveryRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordDiscoveryFallback counts a catalog fallback outcome.
func (m *Metrics) RecordDiscoveryFallback(outcome string) {
	if !m.enabled() {
		return
	}
	m.discoveryFallbacks.WithLabelValues(outcome).Inc()
}

// RecordPolicyDenial counts a candidate denial by an admission policy.
func (m *Metrics) RecordPolicyDenial(policy string) {
	if !m.enabled() {
		return
	}
	m.policyDenials.WithLabelValues(policy).Inc()
}
