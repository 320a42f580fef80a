package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cirs/cirs-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type (
	PatientRepository interface {
		List(ctx context.Context) ([]*model.Patient, error)
		Get(ctx context.Context, id string) (*model.Patient, error)
		Create(ctx context.Context, patient *model.Patient) error
		Update(ctx context.Context, id string, fn func(*model.Patient) error) (*model.Patient, error)
		Delete(ctx context.Context, id string) error
		ListByParent(ctx context.Context, parentID string) ([]*model.Patient, error)
	}

	VaccineRepository interface {
		List(ctx context.Context) ([]*model.Vaccine, error)
		Get(ctx context.Context, id string) (*model.Vaccine, error)
		Create(ctx context.Context, vaccine *model.Vaccine) error
	}

	VaccinationRepository interface {
		List(ctx context.Context) ([]*model.VaccinationRecord, error)
		Get(ctx context.Context, id string) (*model.VaccinationRecord, error)
		Create(ctx context.Context, record *model.VaccinationRecord) error
		CreateMany(ctx context.Context, records []*model.VaccinationRecord) error
		Update(ctx context.Context, id string, fn func(*model.VaccinationRecord) error) (*model.VaccinationRecord, error)
		Delete(ctx context.Context, id string) error
		DeleteByPatient(ctx context.Context, patientID string) (int, error)
	}

	UserRepository interface {
		List(ctx context.Context) ([]*model.User, error)
		Get(ctx context.Context, id string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Create(ctx context.Context, user *model.User) error
		Update(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error)
	}

	RegistrationRepository interface {
		List(ctx context.Context) ([]*model.PendingRegistration, error)
		Get(ctx context.Context, id string) (*model.PendingRegistration, error)
		GetByEmail(ctx context.Context, email string) (*model.PendingRegistration, error)
		Create(ctx context.Context, reg *model.PendingRegistration) error
		Update(ctx context.Context, id string, fn func(*model.PendingRegistration) error) (*model.PendingRegistration, error)
	}

	SettingsRepository interface {
		Get(ctx context.Context, userID string) (*model.UserSettings, error)
		Save(ctx context.Context, settings *model.UserSettings) error
		// Upsert applies fn to the stored settings, or to fresh ones built by
		// init, inside one atomic write.
		Upsert(ctx context.Context, userID string, init func() *model.UserSettings, fn func(*model.UserSettings) error) (*model.UserSettings, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		ListPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id string, at time.Time) error
		MarkFailed(ctx context.Context, id string, reason string, retryCount int, final bool) error
		DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)
