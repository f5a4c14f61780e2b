// Package services is the booking core: slot arithmetic, directory resolution, booking,
// status transitions and schedule projection. Every operation takes the caller's
// identity as an explicit argument.
package services

import (
	"context"
	"time"

	"hospital-booking-server/internal/metrics"
)

// Options configures New.
type Options struct {
	Cache              Cache
	DepartmentCacheTTL time.Duration
	Metrics            *metrics.Metrics
	Now                func() time.Time
}

// Services bundles the core components over one shared store.
type Services struct {
	Directory   *Directory
	Booking     *BookingEngine
	Transitions *TransitionEngine
	Projector   *Projector
	Sweeper     *CompletionSweeper
}

// New wires every component against store.
func New(store Store, opts Options) *Services {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	directory := NewDirectory(store, opts.Cache, opts.DepartmentCacheTTL)
	projector := NewProjector(store)

	return &Services{
		Directory:   directory,
		Booking:     NewBookingEngine(directory, store, projector, opts.Metrics, opts.Now),
		Transitions: NewTransitionEngine(store, projector, opts.Metrics, opts.Now),
		Projector:   projector,
		Sweeper:     NewCompletionSweeper(store, opts.Metrics, opts.Now),
	}
}

// CreateAppointment books a slot. See BookingEngine.CreateAppointment.
func (s *Services) CreateAppointment(ctx context.Context, caller Caller, req BookingRequest) (*AppointmentView, error) {
	return s.Booking.CreateAppointment(ctx, caller, req)
}

// Transition changes an appointment's status. See TransitionEngine.Transition.
func (s *Services) Transition(ctx context.Context, caller Caller, id string, req TransitionRequest) (*AppointmentView, error) {
	return s.Transitions.Transition(ctx, caller, id, req)
}

func (s *Services) GetAppointment(ctx context.Context, caller Caller, id string) (*AppointmentView, error) {
	return s.Projector.GetAppointment(ctx, caller, id)
}

func (s *Services) GetPatientAppointments(ctx context.Context, caller Caller) ([]AppointmentView, error) {
	return s.Projector.GetPatientAppointments(ctx, caller)
}

func (s *Services) GetDoctorSchedule(ctx context.Context, caller Caller) ([]AppointmentView, error) {
	return s.Projector.GetDoctorSchedule(ctx, caller)
}
