package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-booking-server/internal/config"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/services"
	"hospital-booking-server/internal/utils"
)

const testSecret = "test-secret"

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newAuthRouter(t *testing.T, caller services.Caller) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newMockDB(t)
	h := NewAuthHandler(db, &config.Config{JWTSecret: testSecret, JWTExpirationMinutes: 15})
	r := gin.New()
	r.Use(asCaller(caller))
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/profile", h.GetProfile)
	return r, mock
}

var userColumns = []string{"id", "email", "password", "first_name", "last_name", "role", "phone_number", "created_at", "updated_at"}

func TestLogin(t *testing.T) {
	user := models.User{}
	require.NoError(t, user.SetPassword("correct-horse"))
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		router, mock := newAuthRouter(t, services.Caller{})
		mock.ExpectQuery("SELECT \\* FROM `users`").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("pat-1", "meredith@example.com", user.Password, "Meredith", "Grey", "patient", "", now, now))

		w, env := perform(t, router, http.MethodPost, "/auth/login", map[string]string{
			"email":    "Meredith@example.com",
			"password": "correct-horse",
		})

		require.Equal(t, http.StatusOK, w.Code)
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "Meredith Grey", resp.User.Name)

		claims, err := utils.ValidateToken(resp.AccessToken, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "pat-1", claims.UserID)
		assert.Equal(t, models.RolePatient, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		router, mock := newAuthRouter(t, services.Caller{})
		mock.ExpectQuery("SELECT \\* FROM `users`").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("pat-1", "meredith@example.com", user.Password, "Meredith", "Grey", "patient", "", now, now))

		w, _ := perform(t, router, http.MethodPost, "/auth/login", map[string]string{
			"email":    "meredith@example.com",
			"password": "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		router, mock := newAuthRouter(t, services.Caller{})
		mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))

		w, _ := perform(t, router, http.MethodPost, "/auth/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "whatever1",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRegister(t *testing.T) {
	t.Run("duplicate email", func(t *testing.T) {
		router, mock := newAuthRouter(t, services.Caller{})
		now := time.Now()
		mock.ExpectQuery("SELECT \\* FROM `users`").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("pat-1", "meredith@example.com", "x", "Meredith", "Grey", "patient", "", now, now))

		w, env := perform(t, router, http.MethodPost, "/auth/register", map[string]string{
			"firstName": "Meredith",
			"lastName":  "Grey",
			"email":     "meredith@example.com",
			"password":  "correct-horse",
			"role":      "patient",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, codeEmailTaken, env.Code)
	})

	t.Run("doctor gets a profile", func(t *testing.T) {
		router, mock := newAuthRouter(t, services.Caller{})
		mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `doctors`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w, env := perform(t, router, http.MethodPost, "/auth/register", map[string]string{
			"firstName": "Gregory",
			"lastName":  "House",
			"email":     "house@example.com",
			"password":  "vicodin-please",
			"role":      "doctor",
			"title":     "Diagnostician",
		})

		require.Equal(t, http.StatusCreated, w.Code, env.Error)
		var resp ProfileResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, models.RoleDoctor, resp.User.Role)
		assert.NotEmpty(t, resp.DoctorID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive department is rejected", func(t *testing.T) {
		router, mock := newAuthRouter(t, services.Caller{})
		now := time.Now()
		mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT \\* FROM `departments`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "is_active", "created_at", "updated_at"}).
				AddRow("dep-1", "Cardiology", "CARD", false, now, now))
		mock.ExpectRollback()

		w, env := perform(t, router, http.MethodPost, "/auth/register", map[string]string{
			"firstName":    "Gregory",
			"lastName":     "House",
			"email":        "house@example.com",
			"password":     "vicodin-please",
			"role":         "doctor",
			"departmentId": "dep-1",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Department is not active", env.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin role is not self-service", func(t *testing.T) {
		router, _ := newAuthRouter(t, services.Caller{})

		w, _ := perform(t, router, http.MethodPost, "/auth/register", map[string]string{
			"firstName": "Root",
			"lastName":  "User",
			"email":     "root@example.com",
			"password":  "correct-horse",
			"role":      "admin",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetProfile(t *testing.T) {
	router, mock := newAuthRouter(t, patientCaller)
	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("pat-1", "meredith@example.com", "x", "Meredith", "Grey", "patient", "", now, now))

	w, env := perform(t, router, http.MethodGet, "/auth/profile", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "pat-1", resp.User.ID)
	assert.Empty(t, resp.DoctorID)
}
