package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/logging"
	"hospital-booking-server/internal/models"
)

const activeDepartmentsKey = "departments:active"

// unknownName is shown when an account reference cannot be resolved.
const unknownName = "Unknown"

// DoctorListing is a doctor as shown when browsing a department.
type DoctorListing struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	DepartmentID string `json:"departmentId"`
}

// Directory resolves departments and doctors and decides which doctors are bookable.
type Directory struct {
	store    DirectoryStore
	lookup   Lookup
	cache    Cache
	cacheTTL time.Duration
}

// NewDirectory creates a resolver. cache may be nil.
func NewDirectory(store Store, cache Cache, cacheTTL time.Duration) *Directory {
	return &Directory{
		store:    store,
		lookup:   store,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// FindBookableDoctor returns the doctor only if it exists, is active and belongs to departmentID.
func (d *Directory) FindBookableDoctor(ctx context.Context, doctorID, departmentID string) (*models.Doctor, error) {
	doctor, err := d.store.FindDoctor(ctx, doctorID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("doctor not found")
		}
		return nil, apperrors.NewInternal("failed to load doctor", err)
	}
	if !doctor.IsActive || !doctor.InDepartment(departmentID) {
		return nil, apperrors.NewNotFound("doctor not found in department")
	}
	return doctor, nil
}

// ListActiveDepartments returns active departments ordered by name.
func (d *Directory) ListActiveDepartments(ctx context.Context) ([]models.Department, error) {
	if cached, ok := d.cachedDepartments(ctx); ok {
		return cached, nil
	}

	departments, err := d.store.ActiveDepartments(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list departments", err)
	}
	sort.SliceStable(departments, func(i, j int) bool {
		return departments[i].Name < departments[j].Name
	})

	d.storeDepartments(ctx, departments)
	return departments, nil
}

func (d *Directory) cachedDepartments(ctx context.Context) ([]models.Department, bool) {
	if d.cache == nil {
		return nil, false
	}
	raw, found, err := d.cache.Get(ctx, activeDepartmentsKey)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("department cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	var departments []models.Department
	if err := json.Unmarshal(raw, &departments); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("discarding malformed department cache entry")
		return nil, false
	}
	return departments, true
}

func (d *Directory) storeDepartments(ctx context.Context, departments []models.Department) {
	if d.cache == nil {
		return
	}
	raw, err := json.Marshal(departments)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, activeDepartmentsKey, raw, d.cacheTTL); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("department cache write failed")
	}
}

// ListActiveDoctorsInDepartment returns the department's active doctors ordered by display name.
// Owner accounts are fetched in one batch.
func (d *Directory) ListActiveDoctorsInDepartment(ctx context.Context, departmentID string) ([]DoctorListing, error) {
	doctors, err := d.store.ActiveDoctorsInDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list doctors", err)
	}

	userIDs := make([]string, 0, len(doctors))
	for _, doctor := range doctors {
		userIDs = append(userIDs, doctor.UserID)
	}
	users, err := batchLoad(ctx, userIDs, d.lookup.UsersByIDs, userKey)
	if err != nil {
		return nil, apperrors.NewInternal("failed to resolve doctor names", err)
	}

	listings := make([]DoctorListing, 0, len(doctors))
	for _, doctor := range doctors {
		listings = append(listings, DoctorListing{
			ID:           doctor.ID,
			Name:         nameOf(users, doctor.UserID),
			Title:        doctor.Title,
			DepartmentID: departmentID,
		})
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Name < listings[j].Name
	})
	return listings, nil
}

// SetDepartmentActive toggles a department. Admin only.
func (d *Directory) SetDepartmentActive(ctx context.Context, caller Caller, id string, active bool) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := d.store.SetDepartmentActive(ctx, id, active); err != nil {
		if isNotFound(err) {
			return apperrors.NewNotFound("department not found")
		}
		return apperrors.NewInternal("failed to update department", err)
	}
	if d.cache != nil {
		if err := d.cache.Delete(ctx, activeDepartmentsKey); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("department cache invalidation failed")
		}
	}
	return nil
}

// SetDoctorActive toggles a doctor's booking eligibility. Admin only.
func (d *Directory) SetDoctorActive(ctx context.Context, caller Caller, id string, active bool) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := d.store.SetDoctorActive(ctx, id, active); err != nil {
		if isNotFound(err) {
			return apperrors.NewNotFound("doctor not found")
		}
		return apperrors.NewInternal("failed to update doctor", err)
	}
	return nil
}

func requireAdmin(caller Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin {
		return apperrors.NewForbidden("admin access required")
	}
	return nil
}

func userKey(u models.User) string             { return u.ID }
func doctorKey(d models.Doctor) string         { return d.ID }
func departmentKey(d models.Department) string { return d.ID }

func nameOf(users map[string]models.User, id string) string {
	if user, ok := users[id]; ok {
		if name := user.DisplayName(); name != "" {
			return name
		}
	}
	return unknownName
}
