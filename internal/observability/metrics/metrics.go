package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatLatencyMetric is the fully-qualified name of the chat relay latency
// histogram, used by the admin dashboard snapshot.
const ChatLatencyMetric = "smilecare_chat_relay_latency_seconds"

// BookingMetrics exposes counters/histograms for booking, admin and chat flows.
type BookingMetrics struct {
	appointmentsCreated *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	wizardSteps         *prometheus.CounterVec
	chatReplies         *prometheus.CounterVec
	chatLatency         *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		appointmentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "booking",
			Name:      "appointments_created_total",
			Help:      "Total appointments created by the booking wizard",
		}, []string{"service_id"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "admin",
			Name:      "status_transitions_total",
			Help:      "Appointment status change attempts by outcome",
		}, []string{"from", "to", "result"}),
		wizardSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "booking",
			Name:      "wizard_steps_total",
			Help:      "Wizard step advances by step and result",
		}, []string{"step", "result"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Chat replies by outcome",
		}, []string{"outcome"}),
		chatLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smilecare",
			Subsystem: "chat",
			Name:      "relay_latency_seconds",
			Help:      "Latency of chat relay completions",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
		}, []string{"provider", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsCreated, m.statusTransitions, m.wizardSteps, m.chatReplies, m.chatLatency)
	return m
}

func (m *BookingMetrics) ObserveAppointmentCreated(serviceID string) {
	if m == nil {
		return
	}
	m.appointmentsCreated.WithLabelValues(serviceID).Inc()
}

func (m *BookingMetrics) ObserveStatusTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to, result).Inc()
}

func (m *BookingMetrics) ObserveWizardStep(step, result string) {
	if m == nil {
		return
	}
	m.wizardSteps.WithLabelValues(step, result).Inc()
}

func (m *BookingMetrics) ObserveChatReply(outcome string) {
	if m == nil {
		return
	}
	m.chatReplies.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveChatLatency(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.chatLatency.WithLabelValues(provider, status).Observe(seconds)
}
