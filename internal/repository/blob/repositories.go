package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

var (
	_ repository.PatientRepository      = (*PatientRepository)(nil)
	_ repository.VaccineRepository      = (*VaccineRepository)(nil)
	_ repository.VaccinationRepository  = (*VaccinationRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.RegistrationRepository = (*RegistrationRepository)(nil)
	_ repository.SettingsRepository     = (*SettingsRepository)(nil)
	_ repository.OutboxRepository       = (*OutboxRepository)(nil)
	_ repository.AuditRepository        = (*AuditRepository)(nil)
)

const DefaultPrefix = "cirs_"

// Keys names the blob holding each collection.
type Keys struct {
	Patients      string
	Vaccines      string
	Vaccinations  string
	Users         string
	Registrations string
	Settings      string
	Outbox        string
	Audit         string
}

func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keys{
		Patients:      prefix + "patients",
		Vaccines:      prefix + "vaccines",
		Vaccinations:  prefix + "vaccination_records",
		Users:         prefix + "users",
		Registrations: prefix + "pending_registrations",
		Settings:      prefix + "user_settings",
		Outbox:        prefix + "outbox",
		Audit:         prefix + "audit_logs",
	}
}

// Repositories bundles every repository backed by the same store.
type Repositories struct {
	Keys          Keys
	Patients      *PatientRepository
	Vaccines      *VaccineRepository
	Vaccinations  *VaccinationRepository
	Users         *UserRepository
	Registrations *RegistrationRepository
	Settings      *SettingsRepository
	Outbox        *OutboxRepository
	Audit         *AuditRepository
}

func New(store blobstore.Store, prefix string) *Repositories {
	keys := NewKeys(prefix)
	return &Repositories{
		Keys:          keys,
		Patients:      NewPatientRepository(store, keys.Patients),
		Vaccines:      NewVaccineRepository(store, keys.Vaccines),
		Vaccinations:  NewVaccinationRepository(store, keys.Vaccinations),
		Users:         NewUserRepository(store, keys.Users),
		Registrations: NewRegistrationRepository(store, keys.Registrations),
		Settings:      NewSettingsRepository(store, keys.Settings),
		Outbox:        NewOutboxRepository(store, keys.Outbox),
		Audit:         NewAuditRepository(store, keys.Audit),
	}
}

// Seed writes items under key when the key is missing, or always when force is set.
// It reports whether anything was written.
func Seed[T any](ctx context.Context, store blobstore.Store, key string, items []*T, force bool) (bool, error) {
	if !force {
		_, err := store.Get(ctx, key)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, blobstore.ErrNotFound) {
			return false, fmt.Errorf("failed to check %s: %w", key, err)
		}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return false, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return false, fmt.Errorf("failed to seed %s: %w", key, err)
	}
	return true, nil
}
