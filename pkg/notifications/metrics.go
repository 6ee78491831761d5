package notifications

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	created    *prometheus.CounterVec
	sent       *prometheus.CounterVec
	suppressed *prometheus.CounterVec
	failed     *prometheus.CounterVec
}

// Suppression reasons used as metric labels.
const (
	reasonDisabled   = "disabled"
	reasonQuietHours = "quiet_hours"
	reasonExpired    = "expired"
)

// NewMetrics creates the pipeline collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_notifications_created_total",
			Help: "Notifications persisted, by type.",
		}, []string{"type"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_notifications_sent_total",
			Help: "Notifications handed to a delivery channel, by channel.",
		}, []string{"channel"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_notifications_suppressed_total",
			Help: "Notifications stored without a push, by reason.",
		}, []string{"reason"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_notifications_delivery_failed_total",
			Help: "Delivery attempts that failed, by channel.",
		}, []string{"channel"}),
	}
	if reg != nil {
		reg.MustRegister(m.created, m.sent, m.suppressed, m.failed)
	}
	return m
}

func (m *Metrics) incCreated(t Type) {
	if m != nil {
		m.created.WithLabelValues(string(t)).Inc()
	}
}

func (m *Metrics) incSent(c Channel) {
	if m != nil {
		m.sent.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) incSuppressed(reason string) {
	if m != nil {
		m.suppressed.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) incFailed(c Channel) {
	if m != nil {
		m.failed.WithLabelValues(string(c)).Inc()
	}
}
