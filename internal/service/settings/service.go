package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cirs/cirs-api/internal/email"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
	"github.com/cirs/cirs-api/pkg/security"
)

// Info describes the running deployment.
type Info struct {
	Application string
	Version     string
	StoreDriver string
}

type Service struct {
	users    repository.UserRepository
	settings repository.SettingsRepository
	hasher   security.PasswordHasher
	mailer   email.Service
	info     Info
	now      func() time.Time
}

func NewService(
	users repository.UserRepository,
	settings repository.SettingsRepository,
	hasher security.PasswordHasher,
	mailer email.Service,
	info Info,
) *Service {
	return &Service{
		users:    users,
		settings: settings,
		hasher:   hasher,
		mailer:   mailer,
		info:     info,
		now:      time.Now,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.UserProfile, error) {
	name := strings.TrimSpace(req.FullName)
	if len(name) < 2 {
		return nil, apperrors.BadRequest("full_name must be at least 2 characters", nil)
	}

	u, err := s.users.Update(ctx, userID, func(u *model.User) error {
		u.FullName = name
		u.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, lookupError(err)
	}
	return u.Profile(), nil
}

// GetNotifications returns the stored preferences, or the defaults for a
// user who never saved any.
func (s *Service) GetNotifications(ctx context.Context, userID string) (*model.UserSettings, error) {
	st, err := s.settings.Get(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return defaultSettings(userID), nil
}

// UpdateNotifications changes only the supplied preferences. The merge runs
// inside the store update, so concurrent partial updates keep each other's
// fields.
func (s *Service) UpdateNotifications(ctx context.Context, userID string, req model.UpdateNotificationsRequest) (*model.UserSettings, error) {
	st, err := s.settings.Upsert(ctx, userID,
		func() *model.UserSettings { return defaultSettings(userID) },
		func(st *model.UserSettings) error {
			req.Apply(&st.NotificationPreferences)
			st.UpdatedAt = s.now().UTC()
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return st, nil
}

func defaultSettings(userID string) *model.UserSettings {
	return &model.UserSettings{
		UserID:                  userID,
		NotificationPreferences: model.DefaultNotificationPreferences(),
	}
}

func (s *Service) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, req.CurrentPassword); err != nil {
		return apperrors.BadRequest("current password is incorrect", nil)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return apperrors.BadRequest("new password must be at least 6 characters", nil)
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.users.Update(ctx, userID, func(u *model.User) error {
		u.PasswordHash = hash
		u.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return lookupError(err)
	}
	return nil
}

// RequestPasswordReset emails the user a reset notice.
func (s *Service) RequestPasswordReset(ctx context.Context, userID string) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return apperrors.Unavailable("email is not configured", nil)
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, u.FullName); err != nil {
		return apperrors.Unavailable("failed to send password reset email", err)
	}
	return nil
}

func (s *Service) System() model.SystemInfo {
	return model.SystemInfo{
		Application: s.info.Application,
		Version:     s.info.Version,
		StoreDriver: s.info.StoreDriver,
		ServerTime:  s.now().UTC(),
	}
}

func (s *Service) user(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, lookupError(err)
	}
	return u, nil
}

func lookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("user", err)
	}
	return fmt.Errorf("failed to access user: %w", err)
}
