// Package metrics exposes Prometheus instrumentation for lookups and redirects.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all service Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	LookupsTotal       *prometheus.CounterVec
	RedirectHops       prometheus.Histogram
	PricingDuration    prometheus.Histogram
	CacheLookups       *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecheck_lookups_total",
			Help: "Total price lookups by outcome",
		}, []string{"outcome"}),
		RedirectHops: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricecheck_redirect_hops",
			Help:    "Number of hops followed per resolved short link",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		PricingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricecheck_pricing_request_duration_seconds",
			Help:    "Pricing API request latency",
			Buckets: prometheus.DefBuckets,
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecheck_cache_lookups_total",
			Help: "Result cache lookups by result (hit or miss)",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecheck_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricecheck_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLookup counts a finished lookup. A nil receiver is a no-op.
func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHops records the hop count of one resolution.
func (m *Metrics) ObserveHops(hops int) {
	if m == nil {
		return
	}
	m.RedirectHops.Observe(float64(hops))
}

// ObservePricing records pricing API latency.
func (m *Metrics) ObservePricing(d time.Duration) {
	if m == nil {
		return
	}
	m.PricingDuration.Observe(d.Seconds())
}

// ObserveCache counts a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
