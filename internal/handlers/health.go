package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-booking-server/internal/middleware"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/utils"
)

// HealthHandler serves the caller's own health profile.
type HealthHandler struct {
	DB *gorm.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{DB: db}
}

// UpdateHealthRequest replaces every field of the profile; omitted fields are cleared.
type UpdateHealthRequest struct {
	Age       *int              `json:"age" binding:"omitempty,gte=0,lt=150"`
	BloodType *models.BloodType `json:"bloodType" binding:"omitempty,oneof=A_POS A_NEG B_POS B_NEG AB_POS AB_NEG O_POS O_NEG"`
	Height    *float64          `json:"height" binding:"omitempty,gte=0,lt=300"`
	Weight    *float64          `json:"weight" binding:"omitempty,gte=0,lt=600"`
}

// HealthResponse wraps the profile; Health is null until the caller saves one.
type HealthResponse struct {
	Health *models.HealthProfile `json:"health"`
}

// GetMyHealth returns the caller's health profile.
func (h *HealthHandler) GetMyHealth(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var profile models.HealthProfile
	err := h.DB.WithContext(c.Request.Context()).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Success(c, "Health profile not set", HealthResponse{})
		return
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Health profile fetched successfully", HealthResponse{Health: &profile})
}

// UpdateMyHealth upserts the caller's health profile.
func (h *HealthHandler) UpdateMyHealth(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateHealthRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	profile := models.HealthProfile{
		UserID:    userID,
		Age:       req.Age,
		BloodType: req.BloodType,
		HeightCm:  req.Height,
		WeightKg:  req.Weight,
	}

	// One row per account: a concurrent first save lands on the unique user_id index.
	err := db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"age", "blood_type", "height_cm", "weight_kg", "updated_at"}),
		}).
		Create(&profile).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var stored models.HealthProfile
	if err := db.First(&stored, "user_id = ?", userID).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Health profile saved successfully", HealthResponse{Health: &stored})
}
