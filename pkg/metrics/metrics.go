package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	Bookings         *prometheus.CounterVec
	BookingConflicts prometheus.Counter
	Transitions      *prometheus.CounterVec

	// Slot generation metrics
	SlotsGenerated prometheus.Counter
	SlotsSkipped   *prometheus.CounterVec

	// Follow-up metrics
	RemindersSent       prometheus.Counter
	RemindersFailed     prometheus.Counter
	ReminderScanLatency prometheus.Histogram
	RemindersDue        prometheus.Gauge
}

// New creates and registers all scheduling metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		Bookings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Total number of booking attempts by outcome",
		}, []string{"path", "outcome"}),
		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected because the slot or window was taken",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Total number of appointment state transitions",
		}, []string{"to", "outcome"}),
		SlotsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_generated_total",
			Help:      "Total number of time slots created by the generator",
		}),
		SlotsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_skipped_total",
			Help:      "Total number of slot candidates skipped during generation",
		}, []string{"reason"}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Total number of follow-up reminders dispatched",
		}),
		RemindersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Total number of follow-up reminder dispatch failures",
		}),
		ReminderScanLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_scan_duration_seconds",
			Help:      "Time spent scanning and dispatching due follow-up reminders",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		RemindersDue: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminders_due",
			Help:      "Number of due follow-up reminders found in the last scan",
		}),
	}
}
