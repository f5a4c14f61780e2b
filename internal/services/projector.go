package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/models"
)

// departmentPlaceholder labels a department reference that no longer resolves.
const departmentPlaceholder = "Department"

// DoctorRef is the doctor side of an appointment view.
type DoctorRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// PatientRef is the patient side of an appointment view.
type PatientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DepartmentRef names the department captured at booking time.
type DepartmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AppointmentView is an appointment with its references resolved for display.
type AppointmentView struct {
	ID               string                   `json:"id"`
	Doctor           DoctorRef                `json:"doctor"`
	Patient          PatientRef               `json:"patient"`
	Department       DepartmentRef            `json:"department"`
	StartsAt         time.Time                `json:"startsAt"`
	EndsAt           time.Time                `json:"endsAt"`
	Status           models.AppointmentStatus `json:"status"`
	DisplayStatus    string                   `json:"displayStatus"`
	Reason           string                   `json:"reason"`
	CancellationNote *string                  `json:"cancellationNote,omitempty"`
	CancelledBy      *models.Role             `json:"cancelledBy,omitempty"`
	Source           models.AppointmentSource `json:"source"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// Projector builds read-side appointment views. It never writes.
type Projector struct {
	store Store
}

// NewProjector creates a projector over store.
func NewProjector(store Store) *Projector {
	return &Projector{store: store}
}

// GetDoctorSchedule lists every appointment of the caller's doctor profile, earliest first.
func (p *Projector) GetDoctorSchedule(ctx context.Context, caller Caller) (views []AppointmentView, err error) {
	ctx, span := startSpan(ctx, "Projector.GetDoctorSchedule", attribute.String("account.id", caller.AccountID))
	defer func() { endSpan(span, err) }()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if caller.Role != models.RoleDoctor {
		return nil, apperrors.NewForbidden("only doctors have a schedule")
	}

	doctor, err := p.store.FindDoctorByUser(ctx, caller.AccountID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("doctor profile not found")
		}
		return nil, apperrors.NewInternal("failed to load doctor profile", err)
	}
	if !doctor.IsActive {
		return nil, apperrors.NewNotFound("doctor profile is inactive")
	}

	appointments, err := p.store.AppointmentsByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load schedule", err)
	}
	return p.Project(ctx, appointments)
}

// GetPatientAppointments lists the caller's own appointments, earliest first.
func (p *Projector) GetPatientAppointments(ctx context.Context, caller Caller) (views []AppointmentView, err error) {
	ctx, span := startSpan(ctx, "Projector.GetPatientAppointments", attribute.String("account.id", caller.AccountID))
	defer func() { endSpan(span, err) }()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if caller.Role != models.RolePatient {
		return nil, apperrors.NewForbidden("only patients have appointments")
	}

	appointments, err := p.store.AppointmentsByPatient(ctx, caller.AccountID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load appointments", err)
	}
	return p.Project(ctx, appointments)
}

// GetAppointment returns one appointment if the caller is its patient or its doctor.
func (p *Projector) GetAppointment(ctx context.Context, caller Caller, id string) (*AppointmentView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	appointment, err := p.store.FindAppointment(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("appointment not found")
		}
		return nil, apperrors.NewInternal("failed to load appointment", err)
	}

	switch caller.Role {
	case models.RolePatient:
		if !appointment.IsOwnedBy(caller.AccountID) {
			return nil, apperrors.NewForbidden("not your appointment")
		}
	case models.RoleDoctor:
		owns, err := doctorOwns(ctx, p.store, caller, appointment)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, apperrors.NewForbidden("not your appointment")
		}
	default:
		return nil, apperrors.NewForbidden("not your appointment")
	}

	return p.ProjectOne(ctx, appointment)
}

// ProjectOne enriches a single appointment.
func (p *Projector) ProjectOne(ctx context.Context, appointment *models.Appointment) (*AppointmentView, error) {
	views, err := p.Project(ctx, []models.Appointment{*appointment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Project enriches appointments, keeping their order. References are resolved in
// one batch per entity type; a dangling reference gets a placeholder instead of
// failing the whole read.
func (p *Projector) Project(ctx context.Context, appointments []models.Appointment) ([]AppointmentView, error) {
	views := make([]AppointmentView, 0, len(appointments))
	if len(appointments) == 0 {
		return views, nil
	}

	doctorIDs := make([]string, 0, len(appointments))
	departmentIDs := make([]string, 0, len(appointments))
	for _, a := range appointments {
		doctorIDs = append(doctorIDs, a.DoctorID)
		departmentIDs = append(departmentIDs, a.DepartmentID)
	}

	doctors, err := batchLoad(ctx, doctorIDs, p.store.DoctorsByIDs, doctorKey)
	if err != nil {
		return nil, apperrors.NewInternal("failed to resolve doctors", err)
	}

	userIDs := make([]string, 0, len(appointments)+len(doctors))
	for _, a := range appointments {
		userIDs = append(userIDs, a.PatientID)
	}
	for _, d := range doctors {
		userIDs = append(userIDs, d.UserID)
	}
	users, err := batchLoad(ctx, userIDs, p.store.UsersByIDs, userKey)
	if err != nil {
		return nil, apperrors.NewInternal("failed to resolve accounts", err)
	}

	departments, err := batchLoad(ctx, departmentIDs, p.store.DepartmentsByIDs, departmentKey)
	if err != nil {
		return nil, apperrors.NewInternal("failed to resolve departments", err)
	}

	for _, a := range appointments {
		doctorRef := DoctorRef{ID: a.DoctorID, Name: unknownName}
		if d, ok := doctors[a.DoctorID]; ok {
			doctorRef.Name = nameOf(users, d.UserID)
			doctorRef.Title = d.Title
		}

		departmentRef := DepartmentRef{ID: a.DepartmentID, Name: departmentPlaceholder}
		if dep, ok := departments[a.DepartmentID]; ok && dep.Name != "" {
			departmentRef.Name = dep.Name
		}

		views = append(views, AppointmentView{
			ID:               a.ID,
			Doctor:           doctorRef,
			Patient:          PatientRef{ID: a.PatientID, Name: nameOf(users, a.PatientID)},
			Department:       departmentRef,
			StartsAt:         a.StartsAt.UTC(),
			EndsAt:           EndsAt(a.StartsAt).UTC(),
			Status:           a.Status,
			DisplayStatus:    a.Status.DisplayStatus(),
			Reason:           a.Reason,
			CancellationNote: a.CancellationNote,
			CancelledBy:      a.CancelledBy,
			Source:           a.Source,
			CreatedAt:        a.CreatedAt,
			UpdatedAt:        a.UpdatedAt,
		})
	}
	return views, nil
}

// doctorOwns reports whether caller's doctor profile is the appointment's doctor.
func doctorOwns(ctx context.Context, store DirectoryStore, caller Caller, appointment *models.Appointment) (bool, error) {
	doctor, err := store.FindDoctorByUser(ctx, caller.AccountID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, apperrors.NewInternal("failed to load doctor profile", err)
	}
	return doctor.ID == appointment.DoctorID, nil
}
