// Package repository implements persistence for departments, doctors, accounts and
// appointments on top of gorm. It is the only package that issues SQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"hospital-booking-server/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
)

const (
	mysqlDuplicateEntry     = 1062
	postgresUniqueViolation = "23505"
)

// StatusChange describes the columns a status transition writes.
type StatusChange struct {
	To               models.AppointmentStatus
	CancellationNote *string
	CancelledBy      *models.Role
	At               time.Time
}

// GormStore is the single shared storage handle used by every core component.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// IsDuplicate reports whether err is a unique-constraint violation from any supported dialect.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation {
		return true
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// FindDoctor loads a doctor profile by id regardless of its active flag.
func (s *GormStore) FindDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := s.DB.WithContext(ctx).First(&doctor, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &doctor, nil
}

// FindDoctorByUser loads the doctor profile owned by an account.
func (s *GormStore) FindDoctorByUser(ctx context.Context, userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := s.DB.WithContext(ctx).First(&doctor, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &doctor, nil
}

// ActiveDepartments lists active departments ordered by name.
func (s *GormStore) ActiveDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&departments).Error
	return departments, err
}

// ActiveDoctorsInDepartment lists active doctors currently assigned to departmentID.
func (s *GormStore) ActiveDoctorsInDepartment(ctx context.Context, departmentID string) ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := s.DB.WithContext(ctx).
		Where("department_id = ? AND is_active = ?", departmentID, true).
		Find(&doctors).Error
	return doctors, err
}

// UsersByIDs fetches accounts in one query. Unknown ids are silently absent.
func (s *GormStore) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// DoctorsByIDs fetches doctor profiles in one query.
func (s *GormStore) DoctorsByIDs(ctx context.Context, ids []string) ([]models.Doctor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var doctors []models.Doctor
	err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&doctors).Error
	return doctors, err
}

// DepartmentsByIDs fetches departments in one query, active or not.
func (s *GormStore) DepartmentsByIDs(ctx context.Context, ids []string) ([]models.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var departments []models.Department
	err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&departments).Error
	return departments, err
}

// SetDepartmentActive toggles a department's active flag.
func (s *GormStore) SetDepartmentActive(ctx context.Context, id string, active bool) error {
	return s.setActive(ctx, &models.Department{}, id, active)
}

// SetDoctorActive toggles a doctor's booking eligibility.
func (s *GormStore) SetDoctorActive(ctx context.Context, id string, active bool) error {
	return s.setActive(ctx, &models.Doctor{}, id, active)
}

func (s *GormStore) setActive(ctx context.Context, model interface{}, id string, active bool) error {
	result := s.DB.WithContext(ctx).Model(model).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SlotTaken reports whether doctorID already has an appointment starting at startsAt.
func (s *GormStore) SlotTaken(ctx context.Context, doctorID string, startsAt time.Time) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND starts_at = ?", doctorID, startsAt).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateAppointment inserts a new appointment; a slot collision yields ErrDuplicate.
func (s *GormStore) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	if err := s.DB.WithContext(ctx).Create(appointment).Error; err != nil {
		if IsDuplicate(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// FindAppointment loads one appointment by id.
func (s *GormStore) FindAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.DB.WithContext(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &appointment, nil
}

// UpdateAppointmentStatus applies change only if the row is still in status from.
// It reports false when another writer got there first.
func (s *GormStore) UpdateAppointmentStatus(ctx context.Context, id string, from models.AppointmentStatus, change StatusChange) (bool, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":            change.To,
			"cancellation_note": change.CancellationNote,
			"cancelled_by":      change.CancelledBy,
			"updated_at":        change.At,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AppointmentsByDoctor lists a doctor's appointments ordered by start.
func (s *GormStore) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("starts_at asc").
		Find(&appointments).Error
	return appointments, err
}

// AppointmentsByPatient lists a patient's appointments ordered by start.
func (s *GormStore) AppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("starts_at asc").
		Find(&appointments).Error
	return appointments, err
}

// CompleteElapsed marks approved appointments that ended before cutoff as completed.
func (s *GormStore) CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("status = ? AND ends_at < ?", models.StatusApproved, cutoff).
		Updates(map[string]interface{}{
			"status":     models.StatusCompleted,
			"updated_at": cutoff,
		})
	return result.RowsAffected, result.Error
}
