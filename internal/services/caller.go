package services

import (
	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/models"
)

// Caller is the authenticated identity on whose behalf a core operation runs.
type Caller struct {
	AccountID string
	Role      models.Role
}

// IsZero reports whether no identity is attached.
func (c Caller) IsZero() bool {
	return c.AccountID == "" || c.Role == ""
}

func requireCaller(c Caller) error {
	if c.IsZero() {
		return apperrors.NewUnauthenticated("caller identity missing")
	}
	return nil
}
