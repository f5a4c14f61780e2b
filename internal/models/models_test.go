package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestedStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   AppointmentStatus
		wantOK bool
	}{
		{"upcoming", StatusApproved, true},
		{"Approved", StatusApproved, true},
		{" APPROVED ", StatusApproved, true},
		{"cancelled", StatusCancelled, true},
		{"canceled", StatusCancelled, true},
		{"pending", "", false},
		{"completed", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRequestedStatus(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.DisplayStatus())
	assert.Equal(t, "upcoming", StatusApproved.DisplayStatus())
	assert.Equal(t, "cancelled", StatusCancelled.DisplayStatus())
	assert.Equal(t, "completed", StatusCompleted.DisplayStatus())
	assert.False(t, StatusPending.IsFinal())
	assert.True(t, StatusApproved.IsFinal())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("Doctor")
	assert.True(t, ok)
	assert.Equal(t, RoleDoctor, role)

	_, ok = ParseRole("nurse")
	assert.False(t, ok)
}

func TestUserPasswordAndName(t *testing.T) {
	u := &User{FirstName: "Gregory", LastName: "House"}
	require.NoError(t, u.SetPassword("correct-horse"))

	assert.NotEqual(t, "correct-horse", u.Password)
	assert.True(t, u.CheckPassword("correct-horse"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.Equal(t, "Gregory House", u.DisplayName())
	assert.Equal(t, "House", (&User{LastName: "House"}).DisplayName())

	sanitized := u.Sanitize()
	assert.Equal(t, "Gregory House", sanitized.Name)
}

func TestDoctorInDepartment(t *testing.T) {
	dep := "dep-1"
	assert.True(t, (&Doctor{DepartmentID: &dep}).InDepartment("dep-1"))
	assert.False(t, (&Doctor{DepartmentID: &dep}).InDepartment("dep-2"))
	assert.False(t, (&Doctor{}).InDepartment("dep-1"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
