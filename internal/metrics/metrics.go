// Package metrics provides Prometheus metrics for the booking service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	AppointmentsBooked    *prometheus.CounterVec
	SlotConflicts         *prometheus.CounterVec
	Transitions           *prometheus.CounterVec
	TransitionConflicts   prometheus.Counter
	AppointmentsCompleted prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AppointmentsBooked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointments_booked_total",
			Help: "Appointments created, by origin",
		}, []string{"source"}),
		SlotConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_slot_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		}, []string{"path"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_transitions_total",
			Help: "Applied appointment status transitions",
		}, []string{"to", "actor"}),
		TransitionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointment_transition_conflicts_total",
			Help: "Transitions that lost the conditional update race",
		}),
		AppointmentsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_completed_total",
			Help: "Appointments marked completed by the sweep",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.AppointmentsBooked,
		m.SlotConflicts,
		m.Transitions,
		m.TransitionConflicts,
		m.AppointmentsCompleted,
		m.RequestDuration,
	)

	return m
}

// NewNop returns metrics registered against a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
