package metrics

import "github.com/prometheus/client_golang/prometheus"

// RealtimeMetrics tracks socket connections and processed events.
type RealtimeMetrics struct {
	connections prometheus.Gauge
	events      *prometheus.CounterVec
}

// NewRealtimeMetrics registers the realtime metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Open realtime socket connections.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_total",
		Help: "Realtime events handled, by event name and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(connections, events)
	return &RealtimeMetrics{connections: connections, events: events}
}

func (m *RealtimeMetrics) Connected() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Inc()
}

func (m *RealtimeMetrics) Disconnected() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Dec()
}

// Event counts a handled client event; outcome is "ok" or "error".
func (m *RealtimeMetrics) Event(name, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(name), normalizeLabel(outcome)).Inc()
}
