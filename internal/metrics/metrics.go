package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorslot_bookings_total",
			Help: "Total number of booking status changes",
		},
		[]string{"status"},
	)

	BookingConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorslot_booking_conflicts_total",
			Help: "Booking attempts rejected because the slot was no longer free",
		},
	)

	SlotComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorslot_slot_computations_total",
			Help: "Available-slot computations by outcome",
		},
		[]string{"outcome"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorslot_payments_total",
			Help: "Payments recorded by provider and status",
		},
		[]string{"provider", "status"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorslot_webhook_events_total",
			Help: "Payment provider webhook deliveries by outcome",
		},
		[]string{"provider", "outcome"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorslot_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutorslot_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorslot_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status string) {
	BookingsTotal.WithLabelValues(status).Inc()
}

func RecordBookingConflict() {
	BookingConflictsTotal.Inc()
}

func RecordSlotComputation(outcome string) {
	SlotComputationsTotal.WithLabelValues(outcome).Inc()
}

func RecordPayment(provider, status string) {
	PaymentsTotal.WithLabelValues(provider, status).Inc()
}

func RecordWebhook(provider, outcome string) {
	WebhookEventsTotal.WithLabelValues(provider, outcome).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordEvent(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
