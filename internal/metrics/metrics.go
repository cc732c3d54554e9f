// Package metrics exposes the gateway's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway counters on a private registry so tests can
// create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Conversions     prometheus.Counter
	Quarantines     prometheus.Counter
	UpstreamErrors  prometheus.Counter
	ConvertFailures prometheus.Counter
}

// New creates a Metrics instance with all counters registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "markdown_gateway_cache_hits_total",
			Help: "Conversion requests served from the object store.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "markdown_gateway_cache_misses_total",
			Help: "Conversion requests that required regeneration.",
		}),
		Conversions: factory.NewCounter(prometheus.CounterOpts{
			Name: "markdown_gateway_conversions_total",
			Help: "Successful HTML to Markdown conversions.",
		}),
		Quarantines: factory.NewCounter(prometheus.CounterOpts{
			Name: "markdown_gateway_quarantines_total",
			Help: "Converter outputs that looked like HTML and were quarantined.",
		}),
		UpstreamErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "markdown_gateway_upstream_errors_total",
			Help: "Origin fetches that failed or returned non-2xx.",
		}),
		ConvertFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "markdown_gateway_convert_failures_total",
			Help: "Conversions that returned an invalid or empty result.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
