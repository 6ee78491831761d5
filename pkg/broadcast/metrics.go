package broadcast

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors for broadcast traffic.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	published     *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	delivered     prometheus.Counter
	dropped       prometheus.Counter
}

// NewMetrics creates the broadcast collectors and registers them on reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_broadcast_published_total",
			Help: "Payloads accepted by the channel layer, by address scope.",
		}, []string{"scope"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_broadcast_publish_errors_total",
			Help: "Payloads the channel layer failed to accept, by address scope.",
		}, []string{"scope"}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_broadcast_delivered_total",
			Help: "Payload copies accepted by connected members.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_broadcast_dropped_total",
			Help: "Payload copies dropped by filtered, closed or saturated members.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.published, m.publishErrors, m.delivered, m.dropped)
	}
	return m
}

func (m *Metrics) observePublish(addr Address, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishErrors.WithLabelValues(addr.Scope()).Inc()
		return
	}
	m.published.WithLabelValues(addr.Scope()).Inc()
}

func (m *Metrics) observeDelivery(_ Address, delivered, dropped int) {
	if m == nil {
		return
	}
	m.delivered.Add(float64(delivered))
	m.dropped.Add(float64(dropped))
}
