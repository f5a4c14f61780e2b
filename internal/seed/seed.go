// Package seed loads the demo directory and example bookings.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/services"
)

var departments = []models.Department{
	{Name: "Cardiology", Code: "CARD", Description: "Heart and vascular care", Phone: "+90 212 000 0001", Location: "B1-201"},
	{Name: "Dermatology", Code: "DERM", Description: "Skin, hair and nail care", Phone: "+90 212 000 0002", Location: "A2-105"},
	{Name: "Neurology", Code: "NEUR", Description: "Brain and nervous system", Phone: "+90 212 000 0003", Location: "C3-301"},
}

type account struct {
	email     string
	firstName string
	lastName  string
	role      models.Role
}

var doctorAccounts = []account{
	{"dr.house@example.com", "Gregory", "House", models.RoleDoctor},
	{"dr.grey@example.com", "Meredith", "Grey", models.RoleDoctor},
}

var patientAccount = account{"patient@example.com", "Demo", "Patient", models.RolePatient}

// Summary reports what a seed run touched.
type Summary struct {
	Departments  int
	Doctors      int
	Appointments int
}

// Run upserts the directory and books one example appointment per doctor on the
// next half hour. It is safe to run repeatedly.
func Run(ctx context.Context, db *gorm.DB, booking *services.BookingEngine, password string, now time.Time) (Summary, error) {
	var summary Summary
	db = db.WithContext(ctx)

	seeded := make([]models.Department, 0, len(departments))
	for _, d := range departments {
		var dep models.Department
		err := db.Where(models.Department{Name: d.Name}).
			Assign(models.Department{
				Code:        d.Code,
				Description: d.Description,
				Phone:       d.Phone,
				Location:    d.Location,
				IsActive:    true,
			}).
			FirstOrCreate(&dep).Error
		if err != nil {
			return summary, fmt.Errorf("seed department %s: %w", d.Name, err)
		}
		seeded = append(seeded, dep)
	}
	summary.Departments = len(seeded)

	patient, err := upsertAccount(db, patientAccount, password)
	if err != nil {
		return summary, err
	}

	doctors := make([]models.Doctor, 0, len(doctorAccounts))
	for i, a := range doctorAccounts {
		user, err := upsertAccount(db, a, password)
		if err != nil {
			return summary, err
		}

		depID := seeded[i%len(seeded)].ID
		var doctor models.Doctor
		err = db.Where(models.Doctor{UserID: user.ID}).
			Assign(models.Doctor{DepartmentID: &depID, Title: "Dr.", IsActive: true}).
			FirstOrCreate(&doctor).Error
		if err != nil {
			return summary, fmt.Errorf("seed doctor %s: %w", a.email, err)
		}
		doctors = append(doctors, doctor)
	}
	summary.Doctors = len(doctors)

	caller := services.Caller{AccountID: patient.ID, Role: models.RolePatient}
	startsAt := NextHalfHour(now)
	for _, doctor := range doctors {
		_, err := booking.CreateAppointment(ctx, caller, services.BookingRequest{
			DoctorID:     doctor.ID,
			DepartmentID: *doctor.DepartmentID,
			StartsAt:     startsAt,
			Reason:       "Initial consultation",
			Source:       models.SourceSeed,
		})
		if err != nil {
			if apperrors.Is(err, apperrors.CodeSlotTaken) {
				log.Debug().Str("doctor_id", doctor.ID).Msg("example appointment already exists")
				continue
			}
			return summary, fmt.Errorf("seed appointment for doctor %s: %w", doctor.ID, err)
		}
		summary.Appointments++
	}

	return summary, nil
}

func upsertAccount(db *gorm.DB, a account, password string) (*models.User, error) {
	user := models.User{
		Email:     a.email,
		FirstName: a.firstName,
		LastName:  a.lastName,
		Role:      a.role,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	var existing models.User
	if err := db.Where(models.User{Email: a.email}).Attrs(user).FirstOrCreate(&existing).Error; err != nil {
		return nil, fmt.Errorf("seed account %s: %w", a.email, err)
	}
	return &existing, nil
}

// NextHalfHour returns the first :00 or :30 boundary strictly after t, in UTC.
func NextHalfHour(t time.Time) time.Time {
	return t.UTC().Truncate(30 * time.Minute).Add(30 * time.Minute)
}
