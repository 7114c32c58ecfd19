package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var lookupBuckets = prometheus.ExponentialBuckets(0.1, 1.5, 10)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	interactions   *prometheus.CounterVec
}

// New creates the collectors and registers them along with Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherbot",
			Name:      "lookups_total",
			Help:      "Weather lookups by report kind and outcome.",
		}, []string{"kind", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weatherbot",
			Name:      "lookup_duration_seconds",
			Help:      "Latency of weather lookups including the provider call.",
			Buckets:   lookupBuckets,
		}, []string{"kind"}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherbot",
			Name:      "interactions_total",
			Help:      "Command interactions by command and source.",
		}, []string{"command", "source"}),
	}
	reg.MustRegister(m.lookups, m.lookupDuration, m.interactions)
	return m
}

// ObserveLookup records one finished lookup.
func (m *Metrics) ObserveLookup(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(kind, outcome).Inc()
	m.lookupDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// CountInteraction records one received command.
func (m *Metrics) CountInteraction(command, source string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(command, source).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
