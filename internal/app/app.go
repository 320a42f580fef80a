// Package app wires the store, repositories and services shared by the
// server, the worker and the command line tool.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cirs/cirs-api/internal/config"
	"github.com/cirs/cirs-api/internal/email"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/internal/seed"
	"github.com/cirs/cirs-api/internal/service/audit"
	"github.com/cirs/cirs-api/internal/service/auth"
	"github.com/cirs/cirs-api/internal/service/dashboard"
	"github.com/cirs/cirs-api/internal/service/event"
	"github.com/cirs/cirs-api/internal/service/notification"
	"github.com/cirs/cirs-api/internal/service/patient"
	"github.com/cirs/cirs-api/internal/service/registration"
	"github.com/cirs/cirs-api/internal/service/report"
	"github.com/cirs/cirs-api/internal/service/settings"
	"github.com/cirs/cirs-api/internal/service/vaccination"
	"github.com/cirs/cirs-api/internal/service/vaccine"
	tokens "github.com/cirs/cirs-api/pkg/auth"
	"github.com/cirs/cirs-api/pkg/blobstore"
	"github.com/cirs/cirs-api/pkg/logger"
	"github.com/cirs/cirs-api/pkg/metrics"
	"github.com/cirs/cirs-api/pkg/security"
	"github.com/cirs/cirs-api/pkg/storage"
)

type Services struct {
	Auth          *auth.Service
	Patients      *patient.Service
	Vaccines      *vaccine.Service
	Vaccinations  *vaccination.Service
	Dashboard     *dashboard.Service
	Reports       *report.Service
	Registrations *registration.Service
	Settings      *settings.Service
	Notifications *notification.Service
	Audit         *audit.Service
	Events        *event.Service
}

type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Store    blobstore.Store
	Repos    *blob.Repositories
	Hasher   security.PasswordHasher
	Seeder   *seed.Seeder
	Services Services
	// AuditLogger writes request audit entries in the background.
	AuditLogger *audit.AuditLogger
}

// New opens the configured store and builds every service on top of it.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*App, error) {
	m := metrics.New("cirs", reg)

	store, err := blobstore.Open(ctx, cfg.ToStoreConfig(), m)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	repos := blob.New(store, cfg.Store.Prefix)
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)

	var mailer email.Service
	if smtp := cfg.SMTP.ToEmailConfig(); smtp.Enabled() {
		mailer = email.NewSMTPService(smtp, log.Component("email"))
	} else {
		log.Warn("SMTP is not configured, emails are only logged")
		mailer = email.NewLogService(log)
	}

	var objects storage.ObjectStore
	if sc := cfg.Storage.ToStorageConfig(); sc.Enabled() {
		minio, err := storage.NewMinioStore(sc)
		if err != nil {
			store.Close()
			return nil, err
		}
		objects = minio
	}

	events := event.NewService(repos.Outbox)
	jwt := tokens.NewJWTService(cfg.ToJWTConfig())
	vaccinations := vaccination.NewService(repos.Vaccinations, repos.Patients, repos.Vaccines, events)

	svcs := Services{
		Auth:          auth.NewService(repos.Users, repos.Registrations, hasher, jwt, events),
		Patients:      patient.NewService(repos.Patients, repos.Vaccinations, repos.Users, events),
		Vaccines:      vaccine.NewService(repos.Vaccines),
		Vaccinations:  vaccinations,
		Dashboard:     dashboard.NewService(repos.Patients, vaccinations),
		Reports:       report.NewService(repos.Patients, vaccinations, objects),
		Registrations: registration.NewService(repos.Registrations, repos.Users, mailer, events),
		Settings: settings.NewService(repos.Users, repos.Settings, hasher, mailer, settings.Info{
			Application: cfg.App.Name,
			Version:     cfg.App.Version,
			StoreDriver: cfg.Store.Driver,
		}),
		Notifications: notification.NewService(vaccinations, repos.Users, repos.Settings, mailer),
		Audit:         audit.NewService(repos.Audit),
		Events:        events,
	}

	return &App{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Store:    store,
		Repos:    repos,
		Hasher:   hasher,
		Seeder:   seed.New(store, repos.Keys, hasher),
		Services: svcs,

		AuditLogger: audit.NewAuditLogger(svcs.Audit),
	}, nil
}

// SeedIfEnabled writes the demo data into empty collections when seeding is on.
func (a *App) SeedIfEnabled(ctx context.Context) error {
	if !a.Config.Seed.Enabled {
		return nil
	}
	written, err := a.Seeder.Run(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	if len(written) > 0 {
		a.Logger.Info("Seeded demo data", "keys", written)
	}
	return nil
}

// Close waits for pending audit writes and closes the store.
func (a *App) Close() error {
	a.AuditLogger.Wait()
	return a.Store.Close()
}
