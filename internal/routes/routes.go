package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-booking-server/internal/config"
	"hospital-booking-server/internal/handlers"
	"hospital-booking-server/internal/metrics"
	"hospital-booking-server/internal/middleware"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/services"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, core *services.Services, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	directoryHandler := handlers.NewDirectoryHandler(core.Directory)
	appointmentHandler := handlers.NewAppointmentHandler(core)
	healthHandler := handlers.NewHealthHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		private.GET("/auth/profile", authHandler.GetProfile)

		healthRoutes := private.Group("/health")
		{
			healthRoutes.GET("/me", healthHandler.GetMyHealth)
			healthRoutes.PUT("/me", healthHandler.UpdateMyHealth)
		}

		departmentRoutes := private.Group("/departments")
		{
			departmentRoutes.GET("", directoryHandler.GetDepartments)
			departmentRoutes.GET("/:id/doctors", directoryHandler.GetDepartmentDoctors)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.GetAppointmentsForUser)

			// Owner checks happen in the core
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RolePatient), appointmentHandler.UpdateAppointmentStatus)
		}

		private.GET("/doctors/me/schedule", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.GetDoctorSchedule)

		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.PATCH("/departments/:id/active", directoryHandler.SetDepartmentActive)
			adminRoutes.PATCH("/doctors/:id/active", directoryHandler.SetDoctorActive)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}
