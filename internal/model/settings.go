package model

import "time"

type NotificationPreferences struct {
	EmailNotifications   bool `json:"email_notifications"`
	VaccinationReminders bool `json:"vaccination_reminders"`
	OverdueAlerts        bool `json:"overdue_alerts"`
	WeeklyReports        bool `json:"weekly_reports"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailNotifications:   true,
		VaccinationReminders: true,
		OverdueAlerts:        true,
		WeeklyReports:        false,
	}
}

// Wants reports whether a reminder of the given status should be emailed.
func (p NotificationPreferences) Wants(status VaccinationStatus) bool {
	if !p.EmailNotifications {
		return false
	}
	switch status {
	case StatusDue:
		return p.VaccinationReminders
	case StatusOverdue:
		return p.OverdueAlerts
	}
	return false
}

type UserSettings struct {
	UserID string `json:"user_id"`
	NotificationPreferences
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required,min=2"`
}

type UpdateNotificationsRequest struct {
	EmailNotifications   *bool `json:"email_notifications"`
	VaccinationReminders *bool `json:"vaccination_reminders"`
	OverdueAlerts        *bool `json:"overdue_alerts"`
	WeeklyReports        *bool `json:"weekly_reports"`
}

func (r *UpdateNotificationsRequest) Apply(p *NotificationPreferences) {
	if r.EmailNotifications != nil {
		p.EmailNotifications = *r.EmailNotifications
	}
	if r.VaccinationReminders != nil {
		p.VaccinationReminders = *r.VaccinationReminders
	}
	if r.OverdueAlerts != nil {
		p.OverdueAlerts = *r.OverdueAlerts
	}
	if r.WeeklyReports != nil {
		p.WeeklyReports = *r.WeeklyReports
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type SystemInfo struct {
	Application string    `json:"application"`
	Version     string    `json:"version"`
	StoreDriver string    `json:"store_driver"`
	ServerTime  time.Time `json:"server_time"`
}
