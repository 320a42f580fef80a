package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/cirs/cirs-api/internal/email"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/internal/service/vaccination"
)

// Service finds the vaccination reminders parents should receive and sends them.
type Service struct {
	vaccinations *vaccination.Service
	users        repository.UserRepository
	settings     repository.SettingsRepository
	mailer       email.Service
}

func NewService(
	vaccinations *vaccination.Service,
	users repository.UserRepository,
	settings repository.SettingsRepository,
	mailer email.Service,
) *Service {
	return &Service{
		vaccinations: vaccinations,
		users:        users,
		settings:     settings,
		mailer:       mailer,
	}
}

// Due lists reminders for due and overdue records of children linked to a
// parent whose preferences ask for them.
func (s *Service) Due(ctx context.Context) ([]model.Reminder, error) {
	views, err := s.vaccinations.Views(ctx, nil)
	if err != nil {
		return nil, err
	}

	parents := make(map[string]*model.User)
	prefs := make(map[string]model.NotificationPreferences)

	var reminders []model.Reminder
	for _, v := range views {
		if v.Status != model.StatusDue && v.Status != model.StatusOverdue {
			continue
		}
		if v.Patient == nil || v.Patient.ParentID == nil {
			continue
		}
		parentID := *v.Patient.ParentID

		parent, ok := parents[parentID]
		if !ok {
			parent, err = s.users.Get(ctx, parentID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to get parent %s: %w", parentID, err)
			}
			parents[parentID] = parent
		}
		if parent == nil {
			continue
		}

		p, ok := prefs[parentID]
		if !ok {
			p, err = s.preferences(ctx, parentID)
			if err != nil {
				return nil, err
			}
			prefs[parentID] = p
		}
		if !p.Wants(v.Status) {
			continue
		}

		reminders = append(reminders, model.Reminder{
			RecordID:    v.ID,
			ParentID:    parentID,
			ParentEmail: parent.Email,
			ParentName:  parent.FullName,
			PatientName: v.PatientName(),
			VaccineName: v.VaccineName(),
			DueDate:     v.DueDate,
			Status:      v.Status,
		})
	}
	return reminders, nil
}

func (s *Service) Send(ctx context.Context, r model.Reminder) error {
	return s.mailer.SendReminder(ctx, r)
}

func (s *Service) preferences(ctx context.Context, userID string) (model.NotificationPreferences, error) {
	st, err := s.settings.Get(ctx, userID)
	if err == nil {
		return st.NotificationPreferences, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return model.DefaultNotificationPreferences(), nil
	}
	return model.NotificationPreferences{}, fmt.Errorf("failed to get settings of %s: %w", userID, err)
}
