package consumer

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks live sessions. A nil *Metrics records nothing.
type Metrics struct {
	active   prometheus.Gauge
	rejected prometheus.Counter
	dropped  prometheus.Counter
}

// NewMetrics creates the consumer collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notify_consumer_sessions_active",
			Help: "Authenticated WebSocket sessions currently open.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_consumer_connections_rejected_total",
			Help: "Connection attempts refused before the upgrade.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_consumer_frames_dropped_total",
			Help: "Broadcasts dropped because a session outbox was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.active, m.rejected, m.dropped)
	}
	return m
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.active.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.active.Dec()
	}
}

func (m *Metrics) connectionRejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *Metrics) frameDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}
