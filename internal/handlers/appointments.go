package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"hospital-booking-server/internal/middleware"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/services"
	"hospital-booking-server/internal/utils"
)

// AppointmentCore is the part of the booking core the appointment endpoints use.
type AppointmentCore interface {
	CreateAppointment(ctx context.Context, caller services.Caller, req services.BookingRequest) (*services.AppointmentView, error)
	Transition(ctx context.Context, caller services.Caller, id string, req services.TransitionRequest) (*services.AppointmentView, error)
	GetAppointment(ctx context.Context, caller services.Caller, id string) (*services.AppointmentView, error)
	GetPatientAppointments(ctx context.Context, caller services.Caller) ([]services.AppointmentView, error)
	GetDoctorSchedule(ctx context.Context, caller services.Caller) ([]services.AppointmentView, error)
}

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Core AppointmentCore
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(core AppointmentCore) *AppointmentHandler {
	return &AppointmentHandler{Core: core}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	DoctorID     string    `json:"doctorId" binding:"required"`
	DepartmentID string    `json:"departmentId" binding:"required"`
	StartsAt     time.Time `json:"startsAt" binding:"required"`
	Reason       string    `json:"reason" binding:"omitempty,max=500"`
}

// CreateAppointment books a slot for the authenticated patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	view, err := h.Core.CreateAppointment(c.Request.Context(), middleware.CallerFromContext(c), services.BookingRequest{
		DoctorID:     req.DoctorID,
		DepartmentID: req.DepartmentID,
		StartsAt:     req.StartsAt,
		Reason:       req.Reason,
		Source:       models.SourceMobile,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", view)
}

// GetAppointmentsForUser lists the authenticated patient's appointments.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	views, err := h.Core.GetPatientAppointments(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", views)
}

// GetAppointmentByID returns one appointment to its patient or doctor.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	view, err := h.Core.GetAppointment(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", view)
}

// UpdateAppointmentStatusRequest accepts both canonical and client status names.
type UpdateAppointmentStatusRequest struct {
	Status             string `json:"status" binding:"required"`
	CancellationReason string `json:"cancellationReason" binding:"omitempty,max=500"`
}

// UpdateAppointmentStatus approves or cancels a pending appointment.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	to, ok := models.ParseRequestedStatus(req.Status)
	if !ok {
		utils.BadRequest(c, "status must be one of: upcoming, cancelled")
		return
	}

	view, err := h.Core.Transition(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"), services.TransitionRequest{
		To:   to,
		Note: req.CancellationReason,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Appointment status updated successfully", view)
}

// GetDoctorSchedule lists every appointment of the authenticated doctor.
func (h *AppointmentHandler) GetDoctorSchedule(c *gin.Context) {
	views, err := h.Core.GetDoctorSchedule(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Schedule fetched successfully", views)
}
