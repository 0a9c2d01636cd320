package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsReserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unipark_bookings_reserved_total",
		Help: "Bookings successfully reserved.",
	})

	BookingConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unipark_booking_conflicts_total",
		Help: "Reservation attempts rejected by the conflict guard.",
	}, []string{"kind"})

	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unipark_sweep_runs_total",
		Help: "Auto-complete sweep executions.",
	})

	SweptBookings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unipark_swept_bookings_total",
		Help: "Active bookings auto-completed by the sweep.",
	})
)
