// Package seed writes the demo data a fresh deployment starts with.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/pkg/blobstore"
	"github.com/cirs/cirs-api/pkg/security"
)

// Seeder fills empty collections with demo data.
type Seeder struct {
	store  blobstore.Store
	keys   blob.Keys
	hasher security.PasswordHasher
}

func New(store blobstore.Store, keys blob.Keys, hasher security.PasswordHasher) *Seeder {
	return &Seeder{store: store, keys: keys, hasher: hasher}
}

// Run seeds every collection whose key is missing, or all of them when force
// is set. It returns the keys that were written.
func (s *Seeder) Run(ctx context.Context, force bool) ([]string, error) {
	users, err := s.users()
	if err != nil {
		return nil, err
	}
	registrations, err := s.registrations()
	if err != nil {
		return nil, err
	}

	steps := []struct {
		key  string
		seed func() (bool, error)
	}{
		{s.keys.Patients, func() (bool, error) { return blob.Seed(ctx, s.store, s.keys.Patients, Patients(), force) }},
		{s.keys.Vaccines, func() (bool, error) { return blob.Seed(ctx, s.store, s.keys.Vaccines, Vaccines(), force) }},
		{s.keys.Vaccinations, func() (bool, error) {
			return blob.Seed(ctx, s.store, s.keys.Vaccinations, VaccinationRecords(), force)
		}},
		{s.keys.Users, func() (bool, error) { return blob.Seed(ctx, s.store, s.keys.Users, users, force) }},
		{s.keys.Registrations, func() (bool, error) {
			return blob.Seed(ctx, s.store, s.keys.Registrations, registrations, force)
		}},
	}

	var written []string
	for _, step := range steps {
		ok, err := step.seed()
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, step.key)
		}
	}
	return written, nil
}

func ts(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func Patients() []*model.Patient {
	return []*model.Patient{
		{
			ID:               "patient-1",
			FullName:         "Emma Smith",
			DateOfBirth:      model.NewDate(2022, time.March, 15),
			Gender:           model.GenderFemale,
			ParentName:       "John Smith",
			Phone:            "+1-555-0101",
			Email:            "john.smith@email.com",
			Address:          "123 Main Street, Anytown, ST 12345",
			EmergencyContact: "+1-555-0102",
			MedicalNotes:     ptr("No known allergies"),
			ParentID:         ptr("parent-1"),
			CreatedAt:        ts("2024-01-15T00:00:00Z"),
		},
		{
			ID:               "patient-2",
			FullName:         "Liam Johnson",
			DateOfBirth:      model.NewDate(2021, time.August, 22),
			Gender:           model.GenderMale,
			ParentName:       "Lisa Johnson",
			Phone:            "+1-555-0201",
			Email:            "lisa.johnson@email.com",
			Address:          "456 Oak Avenue, Somewhere, ST 67890",
			EmergencyContact: "+1-555-0202",
			MedicalNotes:     ptr("Mild eczema"),
			CreatedAt:        ts("2024-01-20T00:00:00Z"),
		},
	}
}

func Vaccines() []*model.Vaccine {
	created := ts("2024-01-01T00:00:00Z")
	return []*model.Vaccine{
		{ID: "vaccine-1", Name: "Hepatitis B", Description: "Protects against hepatitis B virus infection", RecommendedAgeMonths: 0, CreatedAt: created},
		{ID: "vaccine-2", Name: "DTaP (Diphtheria, Tetanus, Pertussis)", Description: "Protects against diphtheria, tetanus, and pertussis", RecommendedAgeMonths: 2, CreatedAt: created},
		{ID: "vaccine-3", Name: "MMR (Measles, Mumps, Rubella)", Description: "Protects against measles, mumps, and rubella", RecommendedAgeMonths: 12, CreatedAt: created},
	}
}

func VaccinationRecords() []*model.VaccinationRecord {
	administered := model.NewDate(2022, time.March, 16)
	return []*model.VaccinationRecord{
		{
			ID:               "record-1",
			PatientID:        "patient-1",
			VaccineID:        "vaccine-1",
			DueDate:          model.NewDate(2022, time.March, 15),
			AdministeredDate: &administered,
			AdministeredBy:   ptr("Dr. Sarah Johnson"),
			Notes:            ptr("No adverse reactions"),
			CreatedAt:        ts("2022-03-16T00:00:00Z"),
		},
		{
			ID:        "record-2",
			PatientID: "patient-1",
			VaccineID: "vaccine-2",
			DueDate:   model.NewDate(2022, time.May, 15),
			CreatedAt: ts("2022-05-15T00:00:00Z"),
		},
	}
}

// Demo accounts, one per role.
var demoUsers = []struct {
	id, email, password, fullName string
	role                          model.Role
}{
	{"admin-1", "admin@cirs.demo", "admin123", "Dr. Sarah Johnson", model.RoleAdmin},
	{"nurse-1", "nurse@cirs.demo", "nurse123", "Nurse Mary Wilson", model.RoleHealthcareWorker},
	{"parent-1", "parent@cirs.demo", "parent123", "John Smith", model.RoleParent},
}

func (s *Seeder) users() ([]*model.User, error) {
	created := ts("2024-01-01T00:00:00Z")
	users := make([]*model.User, 0, len(demoUsers))
	for _, u := range demoUsers {
		hash, err := s.hasher.Hash(u.password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password of %s: %w", u.email, err)
		}
		users = append(users, &model.User{
			ID:           u.id,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
			FullName:     u.fullName,
			CreatedAt:    created,
		})
	}
	return users, nil
}

func (s *Seeder) registrations() ([]*model.PendingRegistration, error) {
	hash, err := s.hasher.Hash("password123")
	if err != nil {
		return nil, fmt.Errorf("failed to hash registration password: %w", err)
	}
	return []*model.PendingRegistration{
		{
			ID:           "pending-1",
			Email:        "jane.doe@email.com",
			PasswordHash: hash,
			FullName:     "Jane Doe",
			Role:         model.RoleHealthcareWorker,
			Status:       model.RegistrationPending,
			CreatedAt:    ts("2024-12-19T10:30:00Z"),
		},
		{
			ID:           "pending-2",
			Email:        "bob.smith@email.com",
			PasswordHash: hash,
			FullName:     "Bob Smith",
			Role:         model.RoleParent,
			Status:       model.RegistrationPending,
			CreatedAt:    ts("2024-12-19T14:15:00Z"),
		},
	}, nil
}
