package services

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/logging"
	"hospital-booking-server/internal/metrics"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/repository"
)

// MinCancellationNoteLength is the least number of non-whitespace characters a doctor
// must give when cancelling.
const MinCancellationNoteLength = 3

// TransitionRequest asks to move an appointment to To.
type TransitionRequest struct {
	To   models.AppointmentStatus
	Note string
}

// TransitionEngine moves appointments out of PENDING on behalf of their doctor or patient.
type TransitionEngine struct {
	store     Store
	projector *Projector
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewTransitionEngine wires a transition engine.
func NewTransitionEngine(store Store, projector *Projector, m *metrics.Metrics, now func() time.Time) *TransitionEngine {
	return &TransitionEngine{
		store:     store,
		projector: projector,
		metrics:   m,
		now:       now,
	}
}

// Transition applies req to appointment id and returns the authoritative post-transition state.
//
// PENDING -> APPROVED: owning doctor.
// PENDING -> CANCELLED: owning doctor with a note, or owning patient before the start.
// Everything else is rejected. The write is conditional on the row still being
// PENDING, so of two racing requests exactly one wins and the other gets InvalidTransition.
func (e *TransitionEngine) Transition(ctx context.Context, caller Caller, id string, req TransitionRequest) (view *AppointmentView, err error) {
	ctx, span := startSpan(ctx, "TransitionEngine.Transition",
		attribute.String("appointment.id", id),
		attribute.String("status.to", string(req.To)),
	)
	defer func() { endSpan(span, err) }()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if req.To != models.StatusApproved && req.To != models.StatusCancelled {
		return nil, apperrors.NewValidation("status must be approved or cancelled")
	}

	appointment, err := e.store.FindAppointment(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("appointment not found")
		}
		return nil, apperrors.NewInternal("failed to load appointment", err)
	}

	if err := e.authorize(ctx, caller, appointment, req.To); err != nil {
		return nil, err
	}

	if appointment.Status.IsFinal() {
		return nil, apperrors.NewInvalidTransition("appointment is already finalized")
	}

	change := repository.StatusChange{To: req.To, At: e.now().UTC()}
	if req.To == models.StatusCancelled {
		by := caller.Role
		change.CancelledBy = &by

		note, err := e.cancellationNote(caller.Role, appointment, req.Note)
		if err != nil {
			return nil, err
		}
		change.CancellationNote = note
	}

	log := logging.FromContext(ctx)

	applied, err := e.store.UpdateAppointmentStatus(ctx, appointment.ID, models.StatusPending, change)
	if err != nil {
		log.Error().Err(err).Str("appointment_id", id).Msg("failed to update appointment status")
		return nil, apperrors.NewInternal("failed to update appointment", err)
	}
	if !applied {
		e.metrics.TransitionConflicts.Inc()
		log.Warn().Str("appointment_id", id).Str("to", string(req.To)).Msg("lost status update race")
		return nil, e.explainLostRace(ctx, id)
	}

	appointment.Status = change.To
	appointment.CancellationNote = change.CancellationNote
	appointment.CancelledBy = change.CancelledBy
	appointment.UpdatedAt = change.At

	e.metrics.Transitions.WithLabelValues(string(change.To), string(caller.Role)).Inc()
	log.Info().
		Str("appointment_id", id).
		Str("to", string(change.To)).
		Str("actor", string(caller.Role)).
		Msg("appointment status changed")

	return e.projector.ProjectOne(ctx, appointment)
}

// authorize is the owner guard every transition passes through.
func (e *TransitionEngine) authorize(ctx context.Context, caller Caller, appointment *models.Appointment, to models.AppointmentStatus) error {
	switch caller.Role {
	case models.RoleDoctor:
		owns, err := doctorOwns(ctx, e.store, caller, appointment)
		if err != nil {
			return err
		}
		if !owns {
			return apperrors.NewForbidden("appointment belongs to another doctor")
		}
		return nil
	case models.RolePatient:
		if !appointment.IsOwnedBy(caller.AccountID) {
			return apperrors.NewForbidden("appointment belongs to another patient")
		}
		if to != models.StatusCancelled {
			return apperrors.NewForbidden("patients can only cancel appointments")
		}
		return nil
	default:
		return apperrors.NewForbidden("role cannot change appointment status")
	}
}

func (e *TransitionEngine) cancellationNote(role models.Role, appointment *models.Appointment, raw string) (*string, error) {
	note := strings.TrimSpace(raw)
	if utf8.RuneCountInString(note) > MaxReasonLength {
		return nil, apperrors.NewValidation("cancellation note is too long")
	}

	if role == models.RoleDoctor {
		if nonSpaceRunes(note) < MinCancellationNoteLength {
			return nil, apperrors.NewInvalidCancellationReason("cancellation reason must be at least 3 characters")
		}
		return &note, nil
	}

	if !appointment.StartsAt.After(e.now()) {
		return nil, apperrors.NewInvalidTransition("appointment has already started")
	}
	if note == "" {
		return nil, nil
	}
	return &note, nil
}

// explainLostRace re-reads the row after a conditional update matched nothing.
func (e *TransitionEngine) explainLostRace(ctx context.Context, id string) error {
	if _, err := e.store.FindAppointment(ctx, id); err != nil {
		if isNotFound(err) {
			return apperrors.NewNotFound("appointment not found")
		}
		return apperrors.NewInternal("failed to reload appointment", err)
	}
	return apperrors.NewInvalidTransition("appointment is already finalized")
}

func nonSpaceRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
