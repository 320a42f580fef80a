package registration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cirs/cirs-api/internal/email"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/internal/service/event"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
)

type Service struct {
	registrations repository.RegistrationRepository
	users         repository.UserRepository
	mailer        email.Service
	events        event.Emitter
	now           func() time.Time
}

func NewService(
	registrations repository.RegistrationRepository,
	users repository.UserRepository,
	mailer email.Service,
	events event.Emitter,
) *Service {
	return &Service{
		registrations: registrations,
		users:         users,
		mailer:        mailer,
		events:        events,
		now:           time.Now,
	}
}

// List returns registrations newest first, optionally only those in one status.
func (s *Service) List(ctx context.Context, filter model.RegistrationFilter) ([]model.RegistrationView, error) {
	regs, err := s.registrations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})

	views := make([]model.RegistrationView, 0, len(regs))
	for _, r := range regs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		views = append(views, r.View())
	}
	return views, nil
}

func (s *Service) Summary(ctx context.Context) (*model.RegistrationSummary, error) {
	regs, err := s.registrations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	summary := &model.RegistrationSummary{}
	for _, r := range regs {
		switch r.Status {
		case model.RegistrationPending:
			summary.Pending++
		case model.RegistrationApproved:
			summary.Approved++
		case model.RegistrationRejected:
			summary.Rejected++
		}
	}
	return summary, nil
}

// Approve turns a pending registration into a user account that signs in
// with the password chosen at sign-up.
func (s *Service) Approve(ctx context.Context, id, reviewerID string) (*model.RegistrationView, error) {
	reg, err := s.review(ctx, id, reviewerID, model.RegistrationApproved)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        reg.Email,
		PasswordHash: reg.PasswordHash,
		Role:         reg.Role,
		FullName:     reg.FullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.revert(ctx, id)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("user with this email already exists", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	view := reg.View()
	event.EmitLogged(ctx, s.events, model.EventRegistrationApproved, map[string]interface{}{
		"registration": view,
		"user_id":      user.ID,
	})

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, user.Email, user.FullName); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to send welcome email")
		}
	}
	return &view, nil
}

func (s *Service) Reject(ctx context.Context, id, reviewerID string) (*model.RegistrationView, error) {
	reg, err := s.review(ctx, id, reviewerID, model.RegistrationRejected)
	if err != nil {
		return nil, err
	}

	view := reg.View()
	event.EmitLogged(ctx, s.events, model.EventRegistrationRejected, view)

	if s.mailer != nil {
		if err := s.mailer.SendRegistrationRejected(ctx, reg.Email, reg.FullName); err != nil {
			log.Warn().Err(err).Str("registration_id", id).Msg("Failed to send rejection email")
		}
	}
	return &view, nil
}

// review moves a pending registration to status in one atomic write.
func (s *Service) review(ctx context.Context, id, reviewerID string, status model.RegistrationStatus) (*model.PendingRegistration, error) {
	reg, err := s.registrations.Update(ctx, id, func(r *model.PendingRegistration) error {
		if r.Status != model.RegistrationPending {
			return apperrors.Conflict(fmt.Sprintf("registration has already been %s", r.Status), nil)
		}
		now := s.now().UTC()
		r.Status = status
		r.ReviewedAt = &now
		if reviewerID != "" {
			reviewer := reviewerID
			r.ReviewedBy = &reviewer
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("registration", err)
		}
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	return reg, nil
}

// revert puts an approval back to pending after the account could not be created.
func (s *Service) revert(ctx context.Context, id string) {
	_, err := s.registrations.Update(ctx, id, func(r *model.PendingRegistration) error {
		r.Status = model.RegistrationPending
		r.ReviewedAt = nil
		r.ReviewedBy = nil
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("registration_id", id).Msg("Failed to revert registration to pending")
	}
}
