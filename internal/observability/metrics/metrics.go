package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the availability and
// appointment flows.
type BookingMetrics struct {
	slotQueries    *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "booking",
			Name:      "slot_queries_total",
			Help:      "Total availability lookups",
		}, []string{"degraded"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Total appointment create/cancel attempts",
		}, []string{"operation", "status"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smilecare",
			Subsystem: "booking",
			Name:      "calendar_gateway_latency_seconds",
			Help:      "Latency of Google Calendar gateway calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotQueries, m.bookingsTotal, m.gatewayLatency)
	return m
}

func (m *BookingMetrics) ObserveSlotQuery(degraded bool) {
	if m == nil {
		return
	}
	label := "false"
	if degraded {
		label = "true"
	}
	m.slotQueries.WithLabelValues(label).Inc()
}

func (m *BookingMetrics) ObserveBooking(operation, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, status).Inc()
}

func (m *BookingMetrics) ObserveGatewayLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(operation).Observe(seconds)
}

// ChatMetrics exposes counters for assistant conversations.
type ChatMetrics struct {
	turnsTotal     *prometheus.CounterVec
	emergencyTotal prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by intent and status",
		}, []string{"intent", "status"}),
		emergencyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smilecare",
			Subsystem: "chat",
			Name:      "emergency_flags_total",
			Help:      "Total messages flagged as dental emergencies",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.emergencyTotal)
	return m
}

func (m *ChatMetrics) ObserveTurn(intent, status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, status).Inc()
}

func (m *ChatMetrics) ObserveEmergency() {
	if m == nil {
		return
	}
	m.emergencyTotal.Inc()
}
