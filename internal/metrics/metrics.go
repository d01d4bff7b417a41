package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"pkt.systems/tabstack/schema"
)

// Metrics holds the navigation collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	events         *prometheus.CounterVec
	backs          *prometheus.CounterVec
	invariants     prometheus.Counter
	historyLength  prometheus.Histogram
	activeSessions prometheus.Gauge
	snapshotSaves  *prometheus.CounterVec
}

// New registers the navigation collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabstack_nav_events_total",
			Help: "Navigation events by type",
		}, []string{"type"}),
		backs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabstack_back_requests_total",
			Help: "Resolved back requests by outcome",
		}, []string{"outcome"}),
		invariants: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabstack_history_invariant_violations_total",
			Help: "Stack pops that had no matching history entry",
		}),
		historyLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tabstack_history_length",
			Help:    "Unified history length observed after each history change",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabstack_active_sessions",
			Help: "Connected navigation sessions",
		}),
		snapshotSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabstack_snapshot_saves_total",
			Help: "Snapshot saves by result",
		}, []string{"result"}),
	}
}

// OnNavEvent implements core.EventSink.
func (m *Metrics) OnNavEvent(event schema.NavEvent) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(event.Type)).Inc()
	switch event.Type {
	case schema.NavEventBack:
		m.backs.WithLabelValues(string(event.Outcome)).Inc()
	case schema.NavEventInvariant:
		m.invariants.Inc()
	case schema.NavEventHistory, schema.NavEventRestored:
		m.historyLength.Observe(float64(event.HistoryLen))
	}
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// SessionEnded decrements the active session gauge.
func (m *Metrics) SessionEnded() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// SnapshotSaved records a save result.
func (m *Metrics) SnapshotSaved(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.snapshotSaves.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
