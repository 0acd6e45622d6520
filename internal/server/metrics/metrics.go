// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	turns         *prometheus.CounterVec
	turnDuration  prometheus.Histogram
	providerCalls *prometheus.CounterVec
	providerTime  *prometheus.HistogramVec
	markers       *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ermil_dialog_turns_total",
				Help: "Dialog turns handled, by state before and after the turn",
			},
			[]string{"from", "to"},
		),
		turnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ermil_dialog_turn_duration_seconds",
				Help:    "Wall time of a single dialog turn",
				Buckets: prometheus.DefBuckets,
			},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ermil_provider_calls_total",
				Help: "External provider calls by outcome",
			},
			[]string{"provider", "op", "outcome"},
		),
		providerTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ermil_provider_call_duration_seconds",
				Help:    "Duration of external provider calls, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "op"},
		),
		markers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ermil_markers_total",
				Help: "Marker lifecycle events",
			},
			[]string{"event"},
		),
	}

	m.registry.MustRegister(
		m.turns, m.turnDuration, m.providerCalls, m.providerTime, m.markers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveTurn(from, to string, d time.Duration) {
	m.turns.WithLabelValues(from, to).Inc()
	m.turnDuration.Observe(d.Seconds())
}

// ObserveProvider records one provider operation. outcome is "ok",
// "client_error" or "transient_error".
func (m *Metrics) ObserveProvider(provider, op, outcome string, d time.Duration) {
	m.providerCalls.WithLabelValues(provider, op, outcome).Inc()
	m.providerTime.WithLabelValues(provider, op).Observe(d.Seconds())
}

// MarkerEvent counts "created", "deleted", "abandoned" and "reclaimed".
func (m *Metrics) MarkerEvent(event string) {
	m.markers.WithLabelValues(event).Inc()
}
