package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hospital-booking-server/internal/metrics"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/repository"
)

// fakeStore is an in-memory Store that enforces the (doctor_id, starts_at)
// uniqueness the database does.
type fakeStore struct {
	mu sync.Mutex

	users        map[string]models.User
	doctors      map[string]models.Doctor
	departments  map[string]models.Department
	appointments map[string]models.Appointment
	nextID       int

	// skipPrecheck makes SlotTaken always report free, forcing the constraint path.
	skipPrecheck bool
	// beforeUpdate runs before a conditional update is applied.
	beforeUpdate func(id string)
	lookupErr    error
	calls        map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[string]models.User{},
		doctors:      map[string]models.Doctor{},
		departments:  map[string]models.Department{},
		appointments: map[string]models.Appointment{},
		calls:        map[string]int{},
	}
}

func (s *fakeStore) count(name string) {
	s.calls[name]++
}

func (s *fakeStore) callsTo(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *fakeStore) addUser(id, first, last string, role models.Role) {
	s.users[id] = models.User{BaseModel: models.BaseModel{ID: id}, FirstName: first, LastName: last, Role: role}
}

func (s *fakeStore) addDepartment(id, name string, active bool) {
	s.departments[id] = models.Department{BaseModel: models.BaseModel{ID: id}, Name: name, IsActive: active}
}

func (s *fakeStore) addDoctor(id, userID, departmentID, title string, active bool) {
	doctor := models.Doctor{BaseModel: models.BaseModel{ID: id}, UserID: userID, Title: title, IsActive: active}
	if departmentID != "" {
		dep := departmentID
		doctor.DepartmentID = &dep
	}
	s.doctors[id] = doctor
}

func (s *fakeStore) addAppointment(a models.Appointment) {
	s.appointments[a.ID] = a
}

func (s *fakeStore) appointment(id string) models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appointments[id]
}

func (s *fakeStore) FindDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("FindDoctor")
	d, ok := s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s *fakeStore) FindDoctorByUser(ctx context.Context, userID string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("FindDoctorByUser")
	for _, d := range s.doctors {
		if d.UserID == userID {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) ActiveDepartments(ctx context.Context) ([]models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ActiveDepartments")
	var out []models.Department
	for _, d := range s.departments {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) ActiveDoctorsInDepartment(ctx context.Context, departmentID string) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ActiveDoctorsInDepartment")
	var out []models.Doctor
	for _, d := range s.doctors {
		if d.IsActive && d.InDepartment(departmentID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) SetDepartmentActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.departments[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.IsActive = active
	s.departments[id] = d
	return nil
}

func (s *fakeStore) SetDoctorActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.IsActive = active
	s.doctors[id] = d
	return nil
}

func (s *fakeStore) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("UsersByIDs")
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeStore) DoctorsByIDs(ctx context.Context, ids []string) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DoctorsByIDs")
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	var out []models.Doctor
	for _, id := range ids {
		if d, ok := s.doctors[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) DepartmentsByIDs(ctx context.Context, ids []string) ([]models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DepartmentsByIDs")
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	var out []models.Department
	for _, id := range ids {
		if d, ok := s.departments[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) SlotTaken(ctx context.Context, doctorID string, startsAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("SlotTaken")
	if s.skipPrecheck {
		return false, nil
	}
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && a.StartsAt.Equal(startsAt) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CreateAppointment")
	for _, a := range s.appointments {
		if a.DoctorID == appointment.DoctorID && a.StartsAt.Equal(appointment.StartsAt) {
			return fmt.Errorf("%w: idx_doctor_slot", repository.ErrDuplicate)
		}
	}
	if appointment.ID == "" {
		s.nextID++
		appointment.ID = fmt.Sprintf("apt-%d", s.nextID)
	}
	s.appointments[appointment.ID] = *appointment
	return nil
}

func (s *fakeStore) FindAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *fakeStore) UpdateAppointmentStatus(ctx context.Context, id string, from models.AppointmentStatus, change repository.StatusChange) (bool, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = change.To
	a.CancellationNote = change.CancellationNote
	a.CancelledBy = change.CancelledBy
	a.UpdatedAt = change.At
	s.appointments[id] = a
	return true, nil
}

func (s *fakeStore) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	return s.appointmentsWhere(func(a models.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (s *fakeStore) AppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return s.appointmentsWhere(func(a models.Appointment) bool { return a.PatientID == patientID }), nil
}

func (s *fakeStore) appointmentsWhere(match func(models.Appointment) bool) []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if match(a) {
			out = append(out, a)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartsAt.Before(out[j-1].StartsAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (s *fakeStore) CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, a := range s.appointments {
		if a.Status == models.StatusApproved && a.EndsAt.Before(cutoff) {
			a.Status = models.StatusCompleted
			s.appointments[id] = a
			n++
		}
	}
	return n, nil
}

// fakeCache is an in-memory Cache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

var testNow = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

var (
	patient      = Caller{AccountID: "pat-1", Role: models.RolePatient}
	otherPatient = Caller{AccountID: "pat-2", Role: models.RolePatient}
	doctorD      = Caller{AccountID: "u-doc-1", Role: models.RoleDoctor}
	otherDoctor  = Caller{AccountID: "u-doc-2", Role: models.RoleDoctor}
	admin        = Caller{AccountID: "adm-1", Role: models.RoleAdmin}
)

// seededStore holds doctor D (Cardiology, id dep-1) and the accounts used across tests.
func seededStore() *fakeStore {
	s := newFakeStore()
	s.addDepartment("dep-1", "Cardiology", true)
	s.addDepartment("dep-2", "Dermatology", true)
	s.addDepartment("dep-3", "Neurology", false)
	s.addUser("u-doc-1", "Gregory", "House", models.RoleDoctor)
	s.addUser("u-doc-2", "Lisa", "Cuddy", models.RoleDoctor)
	s.addUser("pat-1", "Meredith", "Grey", models.RolePatient)
	s.addUser("pat-2", "Jane", "Doe", models.RolePatient)
	s.addDoctor("doc-1", "u-doc-1", "dep-1", "Cardiologist", true)
	s.addDoctor("doc-2", "u-doc-2", "dep-1", "Dean of Medicine", true)
	return s
}

func newTestServices(s *fakeStore) (*Services, *metrics.Metrics) {
	m := metrics.NewNop()
	return New(s, Options{
		Metrics: m,
		Now:     func() time.Time { return testNow },
	}), m
}
