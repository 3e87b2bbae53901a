// Package monitoring defines the Prometheus instrumentation for the
// booking system. Metrics are registered via promauto at init time and
// exposed on /metrics by the router.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	seatLockOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_lock_operations_total",
			Help: "Seat lock store operations by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking state machine outcomes",
		},
		[]string{"operation", "status"},
	)

	payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment saga outcomes by operation and resulting status",
		},
		[]string{"operation", "status"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Messages published to the broker by queue",
		},
		[]string{"queue"},
	)

	eventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Consumed deliveries by disposition (ack, drop, retry, dead_letter)",
		},
		[]string{"disposition"},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification send attempts by type and outcome",
		},
		[]string{"type", "status"},
	)

	outboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_pending_messages",
			Help: "Outbox rows observed pending at the last relay tick",
		},
	)
)

// RecordSeatLockOp counts one lock store operation.
func RecordSeatLockOp(operation, status string) { seatLockOps.WithLabelValues(operation, status).Inc() }

// RecordBooking counts one booking state machine operation.
func RecordBooking(operation, status string) { bookings.WithLabelValues(operation, status).Inc() }

// RecordPayment counts one payment saga operation.
func RecordPayment(operation, status string) { payments.WithLabelValues(operation, status).Inc() }

// RecordPublish counts one successful broker publish.
func RecordPublish(queue string) { eventsPublished.WithLabelValues(queue).Inc() }

// RecordConsume counts one consumed delivery by disposition.
func RecordConsume(disposition string) { eventsConsumed.WithLabelValues(disposition).Inc() }

// RecordNotification counts one notification send attempt.
func RecordNotification(ntype, status string) {
	notificationsSent.WithLabelValues(ntype, status).Inc()
}

// SetOutboxPending records the pending outbox depth seen by the relay.
func SetOutboxPending(n int) { outboxPending.Set(float64(n)) }
