package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hospital-booking-server/internal/middleware"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/services"
	"hospital-booking-server/internal/utils"
)

// DirectoryCore is the part of the booking core the browsing and admin endpoints use.
type DirectoryCore interface {
	ListActiveDepartments(ctx context.Context) ([]models.Department, error)
	ListActiveDoctorsInDepartment(ctx context.Context, departmentID string) ([]services.DoctorListing, error)
	SetDepartmentActive(ctx context.Context, caller services.Caller, id string, active bool) error
	SetDoctorActive(ctx context.Context, caller services.Caller, id string, active bool) error
}

// DirectoryHandler serves departments and doctors.
type DirectoryHandler struct {
	Core DirectoryCore
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(core DirectoryCore) *DirectoryHandler {
	return &DirectoryHandler{Core: core}
}

// GetDepartments lists active departments by name.
func (h *DirectoryHandler) GetDepartments(c *gin.Context) {
	departments, err := h.Core.ListActiveDepartments(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Departments fetched successfully", departments)
}

// GetDepartmentDoctors lists a department's active doctors by name.
func (h *DirectoryHandler) GetDepartmentDoctors(c *gin.Context) {
	doctors, err := h.Core.ListActiveDoctorsInDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// SetActiveRequest toggles an active flag.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetDepartmentActive activates or deactivates a department.
func (h *DirectoryHandler) SetDepartmentActive(c *gin.Context) {
	var req SetActiveRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Core.SetDepartmentActive(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"), *req.Active); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Department updated successfully", gin.H{"id": c.Param("id"), "isActive": *req.Active})
}

// SetDoctorActive activates or deactivates a doctor profile.
func (h *DirectoryHandler) SetDoctorActive(c *gin.Context) {
	var req SetActiveRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Core.SetDoctorActive(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"), *req.Active); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor updated successfully", gin.H{"id": c.Param("id"), "isActive": *req.Active})
}
