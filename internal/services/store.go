package services

import (
	"context"
	"errors"
	"time"

	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/repository"
)

// DirectoryStore is the read-mostly half of storage: departments, doctors, accounts.
type DirectoryStore interface {
	FindDoctor(ctx context.Context, id string) (*models.Doctor, error)
	FindDoctorByUser(ctx context.Context, userID string) (*models.Doctor, error)
	ActiveDepartments(ctx context.Context) ([]models.Department, error)
	ActiveDoctorsInDepartment(ctx context.Context, departmentID string) ([]models.Doctor, error)
	SetDepartmentActive(ctx context.Context, id string, active bool) error
	SetDoctorActive(ctx context.Context, id string, active bool) error
}

// Lookup fetches many rows of one kind in a single round trip.
type Lookup interface {
	UsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	DoctorsByIDs(ctx context.Context, ids []string) ([]models.Doctor, error)
	DepartmentsByIDs(ctx context.Context, ids []string) ([]models.Department, error)
}

// AppointmentStore owns the appointment table.
type AppointmentStore interface {
	SlotTaken(ctx context.Context, doctorID string, startsAt time.Time) (bool, error)
	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
	FindAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, from models.AppointmentStatus, change repository.StatusChange) (bool, error)
	AppointmentsByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	AppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is everything the core needs; *repository.GormStore satisfies it.
type Store interface {
	DirectoryStore
	Lookup
	AppointmentStore
}

// Cache holds serialized read models. Failures are never fatal to a read.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var _ Store = (*repository.GormStore)(nil)

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
