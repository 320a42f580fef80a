package vaccination

import (
	"time"

	"github.com/cirs/cirs-api/internal/model"
)

// DeriveStatus classifies a record on the calendar day of now.
//
// An administered record is completed whatever its due date. Otherwise a due
// date before today is overdue, today through today+DueSoonDays is due, and
// anything later is upcoming.
func DeriveStatus(due model.Date, administered *model.Date, now time.Time) model.VaccinationStatus {
	if administered != nil && !administered.IsZero() {
		return model.StatusCompleted
	}

	today := model.DateOf(now)
	if due.Before(today) {
		return model.StatusOverdue
	}
	if today.DaysUntil(due) <= model.DueSoonDays {
		return model.StatusDue
	}
	return model.StatusUpcoming
}
