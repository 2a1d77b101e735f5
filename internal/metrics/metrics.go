// Package metrics exposes Prometheus metrics for context switches, cache
// invalidation and RPC latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	contextSwitches *prometheus.CounterVec
	invalidations   *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		gatherer: reg,
		contextSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hisaab",
			Name:      "context_switches_total",
			Help:      "Active context switches by target mode and result.",
		}, []string{"mode", "result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hisaab",
			Name:      "cache_invalidations_total",
			Help:      "Cached collections marked stale.",
		}, []string{"collection"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hisaab",
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling time by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
	reg.MustRegister(m.contextSwitches, m.invalidations, m.rpcDuration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ContextSwitch counts one switch attempt.
func (m *Metrics) ContextSwitch(mode string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.contextSwitches.WithLabelValues(mode, result).Inc()
}

// Invalidated counts one stale collection.
func (m *Metrics) Invalidated(collection string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(collection).Inc()
}

// ObserveRPC records the duration of one RPC.
func (m *Metrics) ObserveRPC(procedure, code string, seconds float64) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(seconds)
}
