package vaccination

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
	"github.com/cirs/cirs-api/internal/service/event"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
)

type Service struct {
	records  repository.VaccinationRepository
	patients repository.PatientRepository
	vaccines repository.VaccineRepository
	events   event.Emitter
	now      func() time.Time
}

func NewService(
	records repository.VaccinationRepository,
	patients repository.PatientRepository,
	vaccines repository.VaccineRepository,
	events event.Emitter,
) *Service {
	return &Service{
		records:  records,
		patients: patients,
		vaccines: vaccines,
		events:   events,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Views joins every record the caller may see with its patient, vaccine and
// derived status. A nil caller sees everything.
func (s *Service) Views(ctx context.Context, caller *model.Principal) ([]model.VaccinationView, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccination records: %w", err)
	}
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	vaccines, err := s.vaccines.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}

	byPatient := make(map[string]*model.Patient, len(patients))
	for _, p := range patients {
		byPatient[p.ID] = p
	}
	byVaccine := make(map[string]*model.Vaccine, len(vaccines))
	for _, v := range vaccines {
		byVaccine[v.ID] = v
	}

	now := s.now()
	views := make([]model.VaccinationView, 0, len(records))
	for _, r := range records {
		p := byPatient[r.PatientID]
		if caller.IsParent() && (p == nil || !p.BelongsTo(caller.UserID)) {
			continue
		}
		views = append(views, model.VaccinationView{
			VaccinationRecord: r,
			Patient:           p,
			Vaccine:           byVaccine[r.VaccineID],
			Status:            DeriveStatus(r.DueDate, r.AdministeredDate, now),
		})
	}
	return views, nil
}

// List returns the caller's records matching filter, soonest due first.
func (s *Service) List(ctx context.Context, caller *model.Principal, filter model.VaccinationFilter) (model.Page[model.VaccinationView], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return model.Page[model.VaccinationView]{}, apperrors.BadRequest(fmt.Sprintf("unknown status %q", filter.Status), nil)
	}

	views, err := s.Views(ctx, caller)
	if err != nil {
		return model.Page[model.VaccinationView]{}, err
	}

	matched := views[:0]
	for _, v := range views {
		if filter.Matches(v) {
			matched = append(matched, v)
		}
	}
	SortByDueDate(matched)

	return model.Paginate(matched, filter.Pagination), nil
}

// SortByDueDate orders views by due date, then patient name.
func SortByDueDate(views []model.VaccinationView) {
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].DueDate.Equal(views[j].DueDate) {
			return views[i].DueDate.Before(views[j].DueDate)
		}
		return views[i].PatientName() < views[j].PatientName()
	})
}

// Get returns one record. Records of other families are reported as missing
// to parents.
func (s *Service) Get(ctx context.Context, caller *model.Principal, id string) (*model.VaccinationView, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, lookupError("vaccination record", err)
	}

	view, err := s.view(ctx, record)
	if err != nil {
		return nil, err
	}
	if caller.IsParent() && (view.Patient == nil || !view.Patient.BelongsTo(caller.UserID)) {
		return nil, apperrors.NotFound("vaccination record", nil)
	}
	return view, nil
}

func (s *Service) Create(ctx context.Context, req model.CreateVaccinationRequest) (*model.VaccinationView, error) {
	if req.DueDate == nil || req.DueDate.IsZero() {
		return nil, apperrors.BadRequest("due_date is required", nil)
	}
	if err := s.checkReferences(ctx, req.PatientID, req.VaccineID); err != nil {
		return nil, err
	}
	if err := s.checkAdministeredDate(req.AdministeredDate); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &model.VaccinationRecord{
		ID:               uuid.NewString(),
		PatientID:        req.PatientID,
		VaccineID:        req.VaccineID,
		DueDate:          *req.DueDate,
		AdministeredDate: nonZero(req.AdministeredDate),
		AdministeredBy:   model.NullIfEmpty(trimmed(req.AdministeredBy)),
		Notes:            model.NullIfEmpty(trimmed(req.Notes)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create vaccination record: %w", err)
	}

	event.EmitLogged(ctx, s.events, model.EventVaccinationCreated, record)
	return s.view(ctx, record)
}

// Update applies a partial update. An explicit null administered_date
// clears it.
func (s *Service) Update(ctx context.Context, id string, req model.UpdateVaccinationRequest) (*model.VaccinationView, error) {
	if (req.PatientID != nil && *req.PatientID == "") || (req.VaccineID != nil && *req.VaccineID == "") {
		return nil, apperrors.BadRequest("patient_id and vaccine_id cannot be empty", nil)
	}
	if req.PatientID != nil || req.VaccineID != nil {
		if err := s.checkReferences(ctx, deref(req.PatientID), deref(req.VaccineID)); err != nil {
			return nil, err
		}
	}
	if req.AdministeredDate.Set {
		if err := s.checkAdministeredDate(req.AdministeredDate.Value); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil && req.DueDate.IsZero() {
		return nil, apperrors.BadRequest("due_date cannot be cleared", nil)
	}

	var wasAdministered bool
	record, err := s.records.Update(ctx, id, func(r *model.VaccinationRecord) error {
		wasAdministered = r.Administered()
		req.Apply(r)
		r.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, lookupError("vaccination record", err)
	}

	event.EmitLogged(ctx, s.events, model.EventVaccinationUpdated, record)
	if !wasAdministered && record.Administered() {
		event.EmitLogged(ctx, s.events, model.EventVaccinationAdministered, record)
	}
	return s.view(ctx, record)
}

// Administer marks a record completed. The date defaults to today and the
// administering person to the caller.
func (s *Service) Administer(ctx context.Context, caller *model.Principal, id string, req model.AdministerRequest) (*model.VaccinationView, error) {
	date := model.DateOf(s.now())
	if req.AdministeredDate != nil && !req.AdministeredDate.IsZero() {
		date = *req.AdministeredDate
	}
	if err := s.checkAdministeredDate(&date); err != nil {
		return nil, err
	}

	by := strings.TrimSpace(req.AdministeredBy)
	if by == "" && caller != nil {
		by = caller.FullName
	}

	record, err := s.records.Update(ctx, id, func(r *model.VaccinationRecord) error {
		if r.Administered() {
			return apperrors.Conflict("vaccination has already been administered", nil)
		}
		r.AdministeredDate = &date
		r.AdministeredBy = model.NullIfEmpty(&by)
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			r.Notes = &notes
		}
		r.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, lookupError("vaccination record", err)
	}

	event.EmitLogged(ctx, s.events, model.EventVaccinationAdministered, record)
	return s.view(ctx, record)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return lookupError("vaccination record", err)
	}
	event.EmitLogged(ctx, s.events, model.EventVaccinationDeleted, map[string]string{"id": id})
	return nil
}

// Schedule creates a record for every vaccine the patient has none for, due
// at date of birth plus the vaccine's recommended age.
func (s *Service) Schedule(ctx context.Context, patientID string) ([]model.VaccinationView, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, lookupError("patient", err)
	}
	vaccines, err := s.vaccines.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccination records: %w", err)
	}

	covered := make(map[string]bool)
	for _, r := range records {
		if r.PatientID == patientID {
			covered[r.VaccineID] = true
		}
	}

	now := s.now().UTC()
	var created []*model.VaccinationRecord
	for _, v := range vaccines {
		if covered[v.ID] {
			continue
		}
		created = append(created, &model.VaccinationRecord{
			ID:        uuid.NewString(),
			PatientID: patientID,
			VaccineID: v.ID,
			DueDate:   model.DateOf(patient.DateOfBirth.AddDate(0, v.RecommendedAgeMonths, 0)),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.records.CreateMany(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to schedule vaccinations: %w", err)
	}

	byVaccine := make(map[string]*model.Vaccine, len(vaccines))
	for _, v := range vaccines {
		byVaccine[v.ID] = v
	}
	views := make([]model.VaccinationView, 0, len(created))
	for _, r := range created {
		event.EmitLogged(ctx, s.events, model.EventVaccinationCreated, r)
		views = append(views, model.VaccinationView{
			VaccinationRecord: r,
			Patient:           patient,
			Vaccine:           byVaccine[r.VaccineID],
			Status:            DeriveStatus(r.DueDate, nil, s.now()),
		})
	}
	SortByDueDate(views)
	return views, nil
}

func (s *Service) view(ctx context.Context, r *model.VaccinationRecord) (*model.VaccinationView, error) {
	view := &model.VaccinationView{
		VaccinationRecord: r,
		Status:            DeriveStatus(r.DueDate, r.AdministeredDate, s.now()),
	}

	p, err := s.patients.Get(ctx, r.PatientID)
	switch {
	case err == nil:
		view.Patient = p
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	v, err := s.vaccines.Get(ctx, r.VaccineID)
	switch {
	case err == nil:
		view.Vaccine = v
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get vaccine: %w", err)
	}
	return view, nil
}

// checkReferences verifies the ids that are set.
func (s *Service) checkReferences(ctx context.Context, patientID, vaccineID string) error {
	if patientID != "" {
		if _, err := s.patients.Get(ctx, patientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.BadRequest("patient_id does not reference an existing patient", nil)
			}
			return fmt.Errorf("failed to get patient: %w", err)
		}
	}
	if vaccineID != "" {
		if _, err := s.vaccines.Get(ctx, vaccineID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.BadRequest("vaccine_id does not reference an existing vaccine", nil)
			}
			return fmt.Errorf("failed to get vaccine: %w", err)
		}
	}
	return nil
}

func (s *Service) checkAdministeredDate(d *model.Date) error {
	if d != nil && d.After(model.DateOf(s.now())) {
		return apperrors.BadRequest("administered_date cannot be in the future", nil)
	}
	return nil
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return fmt.Errorf("failed to access %s: %w", resource, err)
}

func nonZero(d *model.Date) *model.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
