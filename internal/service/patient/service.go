package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/internal/service/event"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
)

type Service struct {
	repo    repository.PatientRepository
	records repository.VaccinationRepository
	users   repository.UserRepository
	events  event.Emitter
	now     func() time.Time
}

func NewService(
	repo repository.PatientRepository,
	records repository.VaccinationRepository,
	users repository.UserRepository,
	events event.Emitter,
) *Service {
	return &Service{
		repo:    repo,
		records: records,
		users:   users,
		events:  events,
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns the patients visible to caller that match filter. Parents only
// see their own children.
func (s *Service) List(ctx context.Context, caller *model.Principal, filter model.PatientFilter) (model.Page[model.PatientView], error) {
	var (
		patients []*model.Patient
		err      error
	)
	if caller.IsParent() {
		patients, err = s.repo.ListByParent(ctx, caller.UserID)
	} else {
		patients, err = s.repo.List(ctx)
	}
	if err != nil {
		return model.Page[model.PatientView]{}, fmt.Errorf("failed to list patients: %w", err)
	}

	now := s.now()
	views := make([]model.PatientView, 0, len(patients))
	for _, p := range patients {
		if filter.Matches(p) {
			views = append(views, model.NewPatientView(p, now))
		}
	}
	return model.Paginate(views, filter.Pagination), nil
}

// ListForParent returns the children linked to a parent account.
func (s *Service) ListForParent(ctx context.Context, parentID string) ([]model.PatientView, error) {
	patients, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	now := s.now()
	views := make([]model.PatientView, 0, len(patients))
	for _, p := range patients {
		views = append(views, model.NewPatientView(p, now))
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, caller *model.Principal, id string) (*model.PatientView, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	if caller.IsParent() && !p.BelongsTo(caller.UserID) {
		return nil, apperrors.NotFound("patient", nil)
	}
	view := model.NewPatientView(p, s.now())
	return &view, nil
}

func (s *Service) Create(ctx context.Context, req model.CreatePatientRequest) (*model.PatientView, error) {
	if req.DateOfBirth == nil || req.DateOfBirth.IsZero() {
		return nil, apperrors.BadRequest("date_of_birth is required", nil)
	}
	if err := s.checkDateOfBirth(*req.DateOfBirth); err != nil {
		return nil, err
	}
	parentID := model.NullIfEmpty(req.ParentID)
	if err := s.checkParent(ctx, parentID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.Patient{
		ID:               uuid.NewString(),
		FullName:         strings.TrimSpace(req.FullName),
		DateOfBirth:      *req.DateOfBirth,
		Gender:           req.Gender,
		ParentName:       strings.TrimSpace(req.ParentName),
		Phone:            strings.TrimSpace(req.Phone),
		Email:            strings.TrimSpace(req.Email),
		Address:          strings.TrimSpace(req.Address),
		EmergencyContact: strings.TrimSpace(req.EmergencyContact),
		MedicalNotes:     model.NullIfEmpty(req.MedicalNotes),
		ParentID:         parentID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	event.EmitLogged(ctx, s.events, model.EventPatientCreated, p)
	view := model.NewPatientView(p, s.now())
	return &view, nil
}

// Update changes only the fields present in req.
func (s *Service) Update(ctx context.Context, id string, req model.UpdatePatientRequest) (*model.PatientView, error) {
	if req.DateOfBirth != nil {
		if req.DateOfBirth.IsZero() {
			return nil, apperrors.BadRequest("date_of_birth cannot be cleared", nil)
		}
		if err := s.checkDateOfBirth(*req.DateOfBirth); err != nil {
			return nil, err
		}
	}
	if req.ParentID != nil {
		if err := s.checkParent(ctx, model.NullIfEmpty(req.ParentID)); err != nil {
			return nil, err
		}
	}

	p, err := s.repo.Update(ctx, id, func(p *model.Patient) error {
		req.Apply(p)
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, lookupError(err)
	}

	event.EmitLogged(ctx, s.events, model.EventPatientUpdated, p)
	view := model.NewPatientView(p, s.now())
	return &view, nil
}

// Delete removes the patient and then the patient's vaccination records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err)
	}

	removed, err := s.records.DeleteByPatient(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete vaccination records of patient %s: %w", id, err)
	}

	log.Info().Str("patient_id", id).Int("records_removed", removed).Msg("Patient deleted")
	event.EmitLogged(ctx, s.events, model.EventPatientDeleted, map[string]interface{}{
		"id":              id,
		"records_removed": removed,
	})
	return nil
}

func (s *Service) checkDateOfBirth(dob model.Date) error {
	if dob.After(model.DateOf(s.now())) {
		return apperrors.BadRequest("date_of_birth cannot be in the future", nil)
	}
	return nil
}

func (s *Service) checkParent(ctx context.Context, parentID *string) error {
	if parentID == nil {
		return nil
	}
	u, err := s.users.Get(ctx, *parentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest("parent_id does not reference an existing user", nil)
		}
		return fmt.Errorf("failed to get parent: %w", err)
	}
	if u.Role != model.RoleParent {
		return apperrors.BadRequest("parent_id must reference a parent account", nil)
	}
	return nil
}

func lookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("patient", err)
	}
	return fmt.Errorf("failed to access patient: %w", err)
}
