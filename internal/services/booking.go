package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/logging"
	"hospital-booking-server/internal/metrics"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/repository"
)

const (
	// MaxReasonLength bounds the free-text complaint on a booking.
	MaxReasonLength = 500
	defaultReason   = "General consultation"
)

// BookingRequest is what a patient asks for.
type BookingRequest struct {
	DoctorID     string
	DepartmentID string
	StartsAt     time.Time
	Reason       string
	Source       models.AppointmentSource
}

// BookingEngine creates appointments. The (doctor, start) unique index is what keeps
// a slot single-booked; the pre-check only turns the common case into a fast answer.
type BookingEngine struct {
	directory *Directory
	store     AppointmentStore
	projector *Projector
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewBookingEngine wires a booking engine.
func NewBookingEngine(directory *Directory, store AppointmentStore, projector *Projector, m *metrics.Metrics, now func() time.Time) *BookingEngine {
	return &BookingEngine{
		directory: directory,
		store:     store,
		projector: projector,
		metrics:   m,
		now:       now,
	}
}

// CreateAppointment books req for the calling patient and returns the enriched appointment.
func (e *BookingEngine) CreateAppointment(ctx context.Context, caller Caller, req BookingRequest) (view *AppointmentView, err error) {
	ctx, span := startSpan(ctx, "BookingEngine.CreateAppointment",
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("department.id", req.DepartmentID),
	)
	defer func() { endSpan(span, err) }()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if caller.Role != models.RolePatient {
		return nil, apperrors.NewForbidden("only patients can book appointments")
	}

	startsAt, reason, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	doctor, err := e.directory.FindBookableDoctor(ctx, req.DoctorID, req.DepartmentID)
	if err != nil {
		if apperrors.TypeOf(err) == apperrors.TypeNotFound {
			return nil, apperrors.NewDoctorNotAvailable("doctor is not available in this department")
		}
		return nil, err
	}

	log := logging.FromContext(ctx)

	taken, err := e.store.SlotTaken(ctx, doctor.ID, startsAt)
	if err != nil {
		return nil, apperrors.NewInternal("failed to check slot", err)
	}
	if taken {
		e.metrics.SlotConflicts.WithLabelValues("precheck").Inc()
		log.Warn().Str("doctor_id", doctor.ID).Time("starts_at", startsAt).Str("path", "precheck").Msg("slot already taken")
		return nil, apperrors.NewSlotTaken("this time slot is already booked", nil)
	}

	source := req.Source
	if source == "" {
		source = models.SourceMobile
	}

	appointment := &models.Appointment{
		DoctorID:     doctor.ID,
		PatientID:    caller.AccountID,
		DepartmentID: *doctor.DepartmentID,
		StartsAt:     startsAt,
		EndsAt:       EndsAt(startsAt),
		Status:       models.StatusPending,
		Reason:       reason,
		Source:       source,
	}

	if err := e.store.CreateAppointment(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			e.metrics.SlotConflicts.WithLabelValues("constraint").Inc()
			log.Warn().Str("doctor_id", doctor.ID).Time("starts_at", startsAt).Str("path", "constraint").Msg("slot already taken")
			return nil, apperrors.NewSlotTaken("this time slot is already booked", err)
		}
		log.Error().Err(err).Msg("failed to create appointment")
		return nil, apperrors.NewInternal("failed to create appointment", err)
	}

	e.metrics.AppointmentsBooked.WithLabelValues(string(source)).Inc()
	log.Info().
		Str("appointment_id", appointment.ID).
		Str("doctor_id", doctor.ID).
		Str("patient_id", caller.AccountID).
		Time("starts_at", startsAt).
		Msg("appointment booked")

	return e.projector.ProjectOne(ctx, appointment)
}

func (e *BookingEngine) validate(req BookingRequest) (time.Time, string, error) {
	if strings.TrimSpace(req.DoctorID) == "" || strings.TrimSpace(req.DepartmentID) == "" {
		return time.Time{}, "", apperrors.NewValidation("doctorId and departmentId are required")
	}
	if req.StartsAt.IsZero() {
		return time.Time{}, "", apperrors.NewValidation("startsAt is required")
	}

	startsAt := NormalizeStart(req.StartsAt)
	if !startsAt.After(e.now()) {
		return time.Time{}, "", apperrors.NewValidation("startsAt must be in the future")
	}

	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return time.Time{}, "", apperrors.NewValidation("reason is too long")
	}
	if reason == "" {
		reason = defaultReason
	}

	switch req.Source {
	case "", models.SourceMobile, models.SourceSeed, models.SourceAdmin:
	default:
		return time.Time{}, "", apperrors.NewValidation("unknown appointment source")
	}

	return startsAt, reason, nil
}
