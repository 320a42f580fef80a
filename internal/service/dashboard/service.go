package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/internal/service/vaccination"
)

// UpcomingLimit caps the upcoming list.
const UpcomingLimit = 5

type Service struct {
	patients     repository.PatientRepository
	vaccinations *vaccination.Service
	now          func() time.Time
}

func NewService(patients repository.PatientRepository, vaccinations *vaccination.Service) *Service {
	return &Service{patients: patients, vaccinations: vaccinations, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get summarises every patient for clinical roles and the caller's children
// for parents.
func (s *Service) Get(ctx context.Context, caller *model.Principal) (*model.Dashboard, error) {
	var (
		patients []*model.Patient
		err      error
	)
	if caller.IsParent() {
		patients, err = s.patients.ListByParent(ctx, caller.UserID)
	} else {
		patients, err = s.patients.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	d := &model.Dashboard{Upcoming: []model.UpcomingVaccination{}}
	if caller != nil {
		d.Role = caller.Role
	}
	d.Stats.TotalPatients = len(patients)
	if caller.IsParent() && len(patients) == 0 {
		return d, nil
	}

	views, err := s.vaccinations.Views(ctx, caller)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := model.DateOf(now)
	monthStart := model.NewDate(today.Year(), today.Month(), 1)

	var upcoming []model.VaccinationView
	for _, v := range views {
		if v.Administered() {
			if !v.AdministeredDate.Before(monthStart) {
				d.Stats.VaccinationsThisMonth++
			}
			continue
		}
		if v.DueDate.Before(today) {
			d.Stats.OverdueVaccinations++
			continue
		}
		d.Stats.UpcomingVaccinations++
		upcoming = append(upcoming, v)
	}

	vaccination.SortByDueDate(upcoming)
	if len(upcoming) > UpcomingLimit {
		upcoming = upcoming[:UpcomingLimit]
	}
	for _, v := range upcoming {
		d.Upcoming = append(d.Upcoming, model.UpcomingVaccination{
			ID:          v.ID,
			PatientID:   v.PatientID,
			PatientName: v.PatientName(),
			VaccineName: v.VaccineName(),
			DueDate:     v.DueDate,
			Status:      v.Status,
		})
	}
	return d, nil
}
