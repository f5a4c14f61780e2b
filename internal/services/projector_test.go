package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/models"
)

func TestGetDoctorSchedule_OrderedAndEnriched(t *testing.T) {
	store := seededStore()
	later := pendingAppointment("apt-later", march10.Add(2*time.Hour))
	earlier := pendingAppointment("apt-earlier", march10)
	earlier.PatientID = "pat-2"
	store.addAppointment(later)
	store.addAppointment(earlier)
	other := pendingAppointment("apt-other", march10)
	other.DoctorID = "doc-2"
	store.addAppointment(other)
	svc, _ := newTestServices(store)

	views, err := svc.Projector.GetDoctorSchedule(context.Background(), doctorD)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "apt-earlier", views[0].ID)
	assert.Equal(t, "Jane Doe", views[0].Patient.Name)
	assert.Equal(t, "apt-later", views[1].ID)
	assert.Equal(t, "Meredith Grey", views[1].Patient.Name)
	assert.Equal(t, "Cardiology", views[0].Department.Name)
	assert.Equal(t, EndsAt(march10), views[0].EndsAt)
}

func TestGetDoctorSchedule_ProfileChecks(t *testing.T) {
	store := seededStore()
	store.addUser("u-doc-3", "Retired", "Doc", models.RoleDoctor)
	store.addDoctor("doc-3", "u-doc-3", "dep-1", "Emeritus", false)
	svc, _ := newTestServices(store)
	ctx := context.Background()

	_, err := svc.Projector.GetDoctorSchedule(ctx, Caller{AccountID: "u-doc-3", Role: models.RoleDoctor})
	assert.Equal(t, apperrors.TypeNotFound, apperrors.TypeOf(err))

	_, err = svc.Projector.GetDoctorSchedule(ctx, Caller{AccountID: "u-none", Role: models.RoleDoctor})
	assert.Equal(t, apperrors.TypeNotFound, apperrors.TypeOf(err))

	_, err = svc.Projector.GetDoctorSchedule(ctx, patient)
	assert.Equal(t, apperrors.TypeForbidden, apperrors.TypeOf(err))

	_, err = svc.Projector.GetDoctorSchedule(ctx, Caller{})
	assert.Equal(t, apperrors.TypeUnauthenticated, apperrors.TypeOf(err))
}

func TestGetPatientAppointments_BatchesLookups(t *testing.T) {
	store := seededStore()
	for i := 0; i < 20; i++ {
		a := pendingAppointment(fmt.Sprintf("apt-%02d", i), march10.Add(time.Duration(i)*SlotDuration))
		if i%2 == 1 {
			a.DoctorID = "doc-2"
		}
		store.addAppointment(a)
	}
	svc, _ := newTestServices(store)

	views, err := svc.Projector.GetPatientAppointments(context.Background(), patient)

	require.NoError(t, err)
	require.Len(t, views, 20)
	assert.Equal(t, "apt-00", views[0].ID)
	assert.Equal(t, "Gregory House", views[0].Doctor.Name)
	assert.Equal(t, "Lisa Cuddy", views[1].Doctor.Name)
	assert.Equal(t, "Dean of Medicine", views[1].Doctor.Title)
	assert.Equal(t, 1, store.callsTo("DoctorsByIDs"))
	assert.Equal(t, 1, store.callsTo("UsersByIDs"))
	assert.Equal(t, 1, store.callsTo("DepartmentsByIDs"))
}

func TestGetPatientAppointments_DanglingReferences(t *testing.T) {
	store := seededStore()
	a := pendingAppointment("apt-1", march10)
	a.DoctorID = "doc-gone"
	a.DepartmentID = "dep-gone"
	store.addAppointment(a)
	b := pendingAppointment("apt-2", march10.Add(time.Hour))
	b.DepartmentID = "dep-3"
	store.addAppointment(b)
	svc, _ := newTestServices(store)

	views, err := svc.Projector.GetPatientAppointments(context.Background(), patient)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, DoctorRef{ID: "doc-gone", Name: "Unknown"}, views[0].Doctor)
	assert.Equal(t, DepartmentRef{ID: "dep-gone", Name: "Department"}, views[0].Department)
	// An inactive department still resolves by name.
	assert.Equal(t, "Neurology", views[1].Department.Name)
}

func TestGetPatientAppointments_StorageFailure(t *testing.T) {
	store := seededStore()
	store.addAppointment(pendingAppointment("apt-1", march10))
	store.lookupErr = errors.New("connection reset")
	svc, _ := newTestServices(store)

	_, err := svc.Projector.GetPatientAppointments(context.Background(), patient)

	assert.Equal(t, apperrors.TypeInternal, apperrors.TypeOf(err))
}

func TestGetPatientAppointments_Empty(t *testing.T) {
	store := seededStore()
	svc, _ := newTestServices(store)

	views, err := svc.Projector.GetPatientAppointments(context.Background(), patient)

	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
	assert.Equal(t, 0, store.callsTo("UsersByIDs"))
}

func TestGetAppointment_Visibility(t *testing.T) {
	store := storeWith(models.StatusPending)
	svc, _ := newTestServices(store)
	ctx := context.Background()

	view, err := svc.Projector.GetAppointment(ctx, patient, "apt-1")
	require.NoError(t, err)
	assert.Equal(t, "apt-1", view.ID)

	_, err = svc.Projector.GetAppointment(ctx, doctorD, "apt-1")
	assert.NoError(t, err)

	for _, c := range []Caller{otherPatient, otherDoctor, admin} {
		_, err = svc.Projector.GetAppointment(ctx, c, "apt-1")
		assert.Equal(t, apperrors.TypeForbidden, apperrors.TypeOf(err), c.AccountID)
	}

	_, err = svc.Projector.GetAppointment(ctx, patient, "missing")
	assert.Equal(t, apperrors.TypeNotFound, apperrors.TypeOf(err))
}
