package models

import (
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusApproved  AppointmentStatus = "APPROVED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// ParseRequestedStatus maps both the canonical names and the mobile client's
// vocabulary ("upcoming", "cancelled") onto a transition target.
func ParseRequestedStatus(s string) (AppointmentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upcoming", "approved":
		return StatusApproved, true
	case "cancelled", "canceled":
		return StatusCancelled, true
	default:
		return "", false
	}
}

// DisplayStatus is the lower-case name the mobile client renders.
func (s AppointmentStatus) DisplayStatus() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "upcoming"
	case StatusCancelled:
		return "cancelled"
	case StatusCompleted:
		return "completed"
	default:
		return strings.ToLower(string(s))
	}
}

// IsFinal reports whether no role-gated transition may leave s.
func (s AppointmentStatus) IsFinal() bool {
	return s != StatusPending
}

// AppointmentSource tags how an appointment was created.
type AppointmentSource string

const (
	SourceMobile AppointmentSource = "MOBILE"
	SourceSeed   AppointmentSource = "SEED"
	SourceAdmin  AppointmentSource = "ADMIN"
)

// Appointment occupies one slot of a doctor's calendar.
// (doctor_id, starts_at) is unique: the database is what prevents double booking.
type Appointment struct {
	BaseModel
	DoctorID         string            `gorm:"size:36;not null;uniqueIndex:idx_doctor_slot,priority:1" json:"doctorId"`
	PatientID        string            `gorm:"size:36;not null;index" json:"patientId"`
	DepartmentID     string            `gorm:"size:36;not null;index" json:"departmentId"`
	StartsAt         time.Time         `gorm:"not null;uniqueIndex:idx_doctor_slot,priority:2" json:"startsAt"`
	EndsAt           time.Time         `gorm:"not null" json:"endsAt"`
	Status           AppointmentStatus `gorm:"size:20;not null;index" json:"status"`
	Reason           string            `gorm:"size:500" json:"reason"`
	CancellationNote *string           `gorm:"size:500" json:"cancellationNote,omitempty"`
	CancelledBy      *Role             `gorm:"size:20" json:"cancelledBy,omitempty"`
	Source           AppointmentSource `gorm:"size:20;not null" json:"source"`
}

// IsOwnedBy reports whether patientID booked the appointment.
func (a *Appointment) IsOwnedBy(patientID string) bool {
	return a.PatientID == patientID
}
