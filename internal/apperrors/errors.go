// Package apperrors defines the error taxonomy shared by the booking core and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType groups errors by how a caller should react to them.
type ErrorType string

const (
	TypeNotFound          ErrorType = "NOT_FOUND"
	TypeConflict          ErrorType = "CONFLICT"
	TypeForbidden         ErrorType = "FORBIDDEN"
	TypeInvalidTransition ErrorType = "INVALID_TRANSITION"
	TypeValidation        ErrorType = "VALIDATION"
	TypeUnauthenticated   ErrorType = "UNAUTHENTICATED"
	TypeInternal          ErrorType = "INTERNAL"
)

// Stable machine-readable codes returned to clients.
const (
	CodeNotFound                  = "NOT_FOUND"
	CodeDoctorNotAvailable        = "DOCTOR_NOT_AVAILABLE"
	CodeSlotTaken                 = "SLOT_TAKEN"
	CodeForbidden                 = "FORBIDDEN"
	CodeInvalidTransition         = "INVALID_TRANSITION"
	CodeInvalidCancellationReason = "INVALID_CANCELLATION_REASON"
	CodeValidation                = "VALIDATION_ERROR"
	CodeUnauthenticated           = "UNAUTHENTICATED"
	CodeInternal                  = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFound(message string) *AppError {
	return &AppError{Type: TypeNotFound, Code: CodeNotFound, Message: message}
}

func NewDoctorNotAvailable(message string) *AppError {
	return &AppError{Type: TypeNotFound, Code: CodeDoctorNotAvailable, Message: message}
}

func NewSlotTaken(message string, err error) *AppError {
	return &AppError{Type: TypeConflict, Code: CodeSlotTaken, Message: message, Err: err}
}

func NewForbidden(message string) *AppError {
	return &AppError{Type: TypeForbidden, Code: CodeForbidden, Message: message}
}

func NewInvalidTransition(message string) *AppError {
	return &AppError{Type: TypeInvalidTransition, Code: CodeInvalidTransition, Message: message}
}

func NewInvalidCancellationReason(message string) *AppError {
	return &AppError{Type: TypeValidation, Code: CodeInvalidCancellationReason, Message: message}
}

func NewValidation(message string) *AppError {
	return &AppError{Type: TypeValidation, Code: CodeValidation, Message: message}
}

func NewUnauthenticated(message string) *AppError {
	return &AppError{Type: TypeUnauthenticated, Code: CodeUnauthenticated, Message: message}
}

// NewInternal wraps an unexpected infrastructure failure.
func NewInternal(message string, err error) *AppError {
	return &AppError{Type: TypeInternal, Code: CodeInternal, Message: message, Err: err}
}

// TypeOf returns the ErrorType carried by err, or TypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return TypeInternal
}

// CodeOf returns the code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
