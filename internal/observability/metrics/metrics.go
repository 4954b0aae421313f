package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling flows.
type BookingMetrics struct {
	availabilityLatency *prometheus.HistogramVec
	bookingAttempts     *prometheus.CounterVec
	rescheduleAttempts  *prometheus.CounterVec
	webhookEvents       *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lunanails",
			Subsystem: "scheduling",
			Name:      "availability_latency_seconds",
			Help:      "Latency of availability computations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"granularity"}),
		bookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunanails",
			Subsystem: "scheduling",
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		rescheduleAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunanails",
			Subsystem: "scheduling",
			Name:      "reschedule_attempts_total",
			Help:      "Reschedule attempts by outcome",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunanails",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Payment webhook events by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityLatency, m.bookingAttempts, m.rescheduleAttempts, m.webhookEvents)
	return m
}

func (m *BookingMetrics) ObserveAvailability(granularity string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityLatency.WithLabelValues(granularity).Observe(seconds)
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveReschedule(outcome string) {
	if m == nil {
		return
	}
	m.rescheduleAttempts.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveWebhookEvent(result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(result).Inc()
}
