// Package metrics exposes routing counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ai_router_requests_total.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Recorder owns a private registry so several instances can coexist in tests.
type Recorder struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// New registers the router collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_router_requests_total",
				Help: "Chat requests routed, by provider, response mode and outcome.",
			},
			[]string{"provider", "mode", "outcome"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_router_fallbacks_total",
				Help: "Recoverable upstream failures answered with a mock response.",
			},
			[]string{"provider"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ai_router_upstream_latency_seconds",
				Help:    "Wall-clock time spent in provider adapters.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}

	r.registry.MustRegister(r.requests, r.fallbacks, r.latency)
	return r
}

// ObserveRequest records one routed request.
func (r *Recorder) ObserveRequest(provider, mode, outcome string, latency time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(provider, mode, outcome).Inc()
	r.latency.WithLabelValues(provider).Observe(latency.Seconds())
	if outcome == OutcomeFallback {
		r.fallbacks.WithLabelValues(provider).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
