package vaccine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
)

type Service struct {
	repo repository.VaccineRepository
	now  func() time.Time
}

func NewService(repo repository.VaccineRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns vaccines in schedule order: by recommended age, then name.
func (s *Service) List(ctx context.Context) ([]*model.Vaccine, error) {
	vaccines, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}
	sort.SliceStable(vaccines, func(i, j int) bool {
		if vaccines[i].RecommendedAgeMonths != vaccines[j].RecommendedAgeMonths {
			return vaccines[i].RecommendedAgeMonths < vaccines[j].RecommendedAgeMonths
		}
		return vaccines[i].Name < vaccines[j].Name
	})
	return vaccines, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Vaccine, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("vaccine", err)
		}
		return nil, fmt.Errorf("failed to get vaccine: %w", err)
	}
	return v, nil
}

func (s *Service) Create(ctx context.Context, req model.CreateVaccineRequest) (*model.Vaccine, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, apperrors.BadRequest("name must be at least 2 characters", nil)
	}
	if req.RecommendedAgeMonths == nil || *req.RecommendedAgeMonths < 0 {
		return nil, apperrors.BadRequest("recommended_age_months must be zero or more", nil)
	}

	v := &model.Vaccine{
		ID:                   uuid.NewString(),
		Name:                 name,
		Description:          strings.TrimSpace(req.Description),
		RecommendedAgeMonths: *req.RecommendedAgeMonths,
		CreatedAt:            s.now().UTC(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(fmt.Sprintf("vaccine %q already exists", name), err)
		}
		return nil, fmt.Errorf("failed to create vaccine: %w", err)
	}
	return v, nil
}
