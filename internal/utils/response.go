package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/logging"
)

// ResponseData represents the structure of a standard API response.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Success sends a standard success response.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a standard resource created response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends a standard error response.
func Error(c *gin.Context, statusCode int, code, errorMessage string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
		Code:    code,
	})
}

// BadRequest sends a 400 Bad Request error response.
func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, apperrors.CodeValidation, errorMessage)
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, apperrors.CodeUnauthenticated, errorMessage)
}

// Forbidden sends a 403 Forbidden error response.
func Forbidden(c *gin.Context, errorMessage string) {
	Error(c, http.StatusForbidden, apperrors.CodeForbidden, errorMessage)
}

// NotFound sends a 404 Not Found error response.
func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, apperrors.CodeNotFound, errorMessage)
}

// Conflict sends a 409 Conflict error response.
func Conflict(c *gin.Context, code, errorMessage string) {
	Error(c, http.StatusConflict, code, errorMessage)
}

// InternalServerError sends a 500 Internal Server Error response.
func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, apperrors.CodeInternal, errorMessage)
}

// StatusFor maps an error type onto an HTTP status.
func StatusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.TypeNotFound:
		return http.StatusNotFound
	case apperrors.TypeConflict, apperrors.TypeInvalidTransition:
		return http.StatusConflict
	case apperrors.TypeForbidden:
		return http.StatusForbidden
	case apperrors.TypeValidation:
		return http.StatusBadRequest
	case apperrors.TypeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using its type and code. Internal errors are logged and
// answered with a generic message.
func RespondError(c *gin.Context, err error) {
	errType := apperrors.TypeOf(err)
	if errType == apperrors.TypeInternal {
		logging.FromContext(c.Request.Context()).Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("request failed")
		InternalServerError(c, "internal server error")
		return
	}

	message := err.Error()
	if appErr, ok := err.(*apperrors.AppError); ok {
		message = appErr.Message
	}
	Error(c, StatusFor(errType), apperrors.CodeOf(err), message)
}
