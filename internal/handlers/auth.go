package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-booking-server/internal/config"
	"hospital-booking-server/internal/middleware"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/repository"
	"hospital-booking-server/internal/utils"
)

const codeEmailTaken = "EMAIL_TAKEN"

var (
	errUnknownDepartment  = errors.New("unknown department")
	errInactiveDepartment = errors.New("inactive department")
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	FirstName    string `json:"firstName" binding:"required,max=100"`
	LastName     string `json:"lastName" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Role         string `json:"role" binding:"required,oneof=patient doctor"`
	PhoneNumber  string `json:"phoneNumber" binding:"omitempty,max=20"`
	DepartmentID string `json:"departmentId"`
	Title        string `json:"title" binding:"omitempty,max=50"`
	Bio          string `json:"bio"`
	Room         string `json:"room" binding:"omitempty,max=20"`
	RoomPhone    string `json:"roomPhone" binding:"omitempty,max=20"`
}

// Register creates an account. Doctors get their bookable profile in the same transaction.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Check if user already exists
	var existingUser models.User
	if err := db.Where("email = ?", email).First(&existingUser).Error; err == nil {
		utils.Conflict(c, codeEmailTaken, "User with this email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error")
		return
	}

	role, _ := models.ParseRole(req.Role)
	user := models.User{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       email,
		Role:        role,
		PhoneNumber: req.PhoneNumber,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}

	var doctor *models.Doctor
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if role != models.RoleDoctor {
			return nil
		}

		doctor = &models.Doctor{
			UserID:    user.ID,
			Title:     req.Title,
			Bio:       req.Bio,
			Room:      req.Room,
			RoomPhone: req.RoomPhone,
			IsActive:  true,
		}
		if req.DepartmentID != "" {
			var department models.Department
			if err := tx.First(&department, "id = ?", req.DepartmentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errUnknownDepartment
				}
				return err
			}
			if !department.IsActive {
				return errInactiveDepartment
			}
			doctor.DepartmentID = &department.ID
		}
		return tx.Create(doctor).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, errUnknownDepartment):
			utils.BadRequest(c, "Department not found")
		case errors.Is(err, errInactiveDepartment):
			utils.BadRequest(c, "Department is not active")
		case repository.IsDuplicate(err):
			utils.Conflict(c, codeEmailTaken, "User with this email already exists")
		default:
			utils.RespondError(c, err)
		}
		return
	}

	utils.Created(c, "User registered successfully", ProfileResponse{
		User:     user.Sanitize(),
		DoctorID: doctorID(doctor),
	})
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken string               `json:"accessToken"`
	User        models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.RespondError(c, err)
		}
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	ttl := time.Duration(h.Cfg.JWTExpirationMinutes) * time.Minute
	accessToken, err := utils.GenerateAccessToken(&user, h.Cfg.JWTSecret, ttl)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Login successful", LoginResponse{
		AccessToken: accessToken,
		User:        user.Sanitize(),
	})
}

// ProfileResponse is an account plus, for doctors, the id of their bookable profile.
type ProfileResponse struct {
	User     models.UserSanitized `json:"user"`
	DoctorID string               `json:"doctorId,omitempty"`
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	db := h.DB.WithContext(c.Request.Context())

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.RespondError(c, err)
		}
		return
	}

	response := ProfileResponse{User: user.Sanitize()}
	if user.Role == models.RoleDoctor {
		var doctor models.Doctor
		err := db.First(&doctor, "user_id = ?", user.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, err)
			return
		}
		response.DoctorID = doctor.ID
	}

	utils.Success(c, "Profile fetched successfully", response)
}

func doctorID(d *models.Doctor) string {
	if d == nil {
		return ""
	}
	return d.ID
}
