package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/internal/service/event"
	tokens "github.com/cirs/cirs-api/pkg/auth"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
	"github.com/cirs/cirs-api/pkg/security"
)

const invalidCredentials = "invalid email or password"

type Service struct {
	users         repository.UserRepository
	registrations repository.RegistrationRepository
	hasher        security.PasswordHasher
	jwt           *tokens.JWTService
	events        event.Emitter
	revoked       *cache.Cache
	now           func() time.Time
}

func NewService(
	users repository.UserRepository,
	registrations repository.RegistrationRepository,
	hasher security.PasswordHasher,
	jwt *tokens.JWTService,
	events event.Emitter,
) *Service {
	return &Service{
		users:         users,
		registrations: registrations,
		hasher:        hasher,
		jwt:           jwt,
		events:        events,
		revoked:       cache.New(time.Hour, 10*time.Minute),
		now:           time.Now,
	}
}

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	token, claims, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.FullName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user.Profile(),
	}, nil
}

// SignUp queues a registration for administrator approval. It does not log
// the caller in.
func (s *Service) SignUp(ctx context.Context, req model.SignUpRequest) (*model.RegistrationView, error) {
	if req.Role != model.RoleHealthcareWorker && req.Role != model.RoleParent {
		return nil, apperrors.BadRequest("role must be healthcare_worker or parent", nil)
	}

	email := NormalizeEmail(req.Email)
	if err := s.ensureEmailAvailable(ctx, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest("password must be at least 6 characters", nil)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	reg := &model.PendingRegistration{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Status:       model.RegistrationPending,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("user with this email already exists", err)
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	view := reg.View()
	event.EmitLogged(ctx, s.events, model.EventRegistrationSubmitted, view)
	return &view, nil
}

func (s *Service) ensureEmailAvailable(ctx context.Context, email string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.Conflict("user with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check users: %w", err)
	}

	if _, err := s.registrations.GetByEmail(ctx, email); err == nil {
		return apperrors.Conflict("user with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check registrations: %w", err)
	}
	return nil
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *Service) Logout(_ context.Context, p *model.Principal) error {
	if p == nil || p.TokenID == "" {
		return apperrors.Unauthorized("not authenticated")
	}
	ttl := p.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.revoked.Set(p.TokenID, struct{}{}, ttl)
	return nil
}

func (s *Service) Me(ctx context.Context, userID string) (*model.UserProfile, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Profile(), nil
}

// ValidateToken verifies the token and that it has not been revoked.
func (s *Service) ValidateToken(_ context.Context, token string) (*model.Principal, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, apperrors.Unauthorized("token has been revoked")
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	p := &model.Principal{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     role,
		FullName: claims.FullName,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}
