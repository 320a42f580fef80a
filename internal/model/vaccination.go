package model

import (
	"strings"
	"time"
)

type VaccinationStatus string

const (
	StatusCompleted VaccinationStatus = "completed"
	StatusOverdue   VaccinationStatus = "overdue"
	StatusDue       VaccinationStatus = "due"
	StatusUpcoming  VaccinationStatus = "upcoming"
)

// DueSoonDays is how far ahead a pending dose counts as due rather than upcoming.
const DueSoonDays = 7

func (s VaccinationStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusOverdue, StatusDue, StatusUpcoming:
		return true
	}
	return false
}

type VaccinationRecord struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patient_id"`
	VaccineID        string    `json:"vaccine_id"`
	DueDate          Date      `json:"due_date"`
	AdministeredDate *Date     `json:"administered_date"`
	AdministeredBy   *string   `json:"administered_by"`
	Notes            *string   `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

func (r *VaccinationRecord) Administered() bool {
	return r.AdministeredDate != nil && !r.AdministeredDate.IsZero()
}

// VaccinationView is a record joined with its patient and vaccine.
type VaccinationView struct {
	*VaccinationRecord
	Patient *Patient          `json:"patient"`
	Vaccine *Vaccine          `json:"vaccine"`
	Status  VaccinationStatus `json:"status"`
}

func (v VaccinationView) PatientName() string {
	if v.Patient == nil {
		return "Unknown"
	}
	return v.Patient.FullName
}

func (v VaccinationView) VaccineName() string {
	if v.Vaccine == nil {
		return "Unknown"
	}
	return v.Vaccine.Name
}

type CreateVaccinationRequest struct {
	PatientID        string  `json:"patient_id" binding:"required"`
	VaccineID        string  `json:"vaccine_id" binding:"required"`
	DueDate          *Date   `json:"due_date" binding:"required"`
	AdministeredDate *Date   `json:"administered_date"`
	AdministeredBy   *string `json:"administered_by"`
	Notes            *string `json:"notes"`
}

type UpdateVaccinationRequest struct {
	PatientID        *string      `json:"patient_id" binding:"omitempty,min=1"`
	VaccineID        *string      `json:"vaccine_id" binding:"omitempty,min=1"`
	DueDate          *Date        `json:"due_date"`
	AdministeredDate OptionalDate `json:"administered_date"`
	AdministeredBy   *string      `json:"administered_by"`
	Notes            *string      `json:"notes"`
}

func (r *UpdateVaccinationRequest) Apply(rec *VaccinationRecord) {
	if r.PatientID != nil {
		rec.PatientID = *r.PatientID
	}
	if r.VaccineID != nil {
		rec.VaccineID = *r.VaccineID
	}
	if r.DueDate != nil {
		rec.DueDate = *r.DueDate
	}
	if r.AdministeredDate.Set {
		rec.AdministeredDate = r.AdministeredDate.Value
	}
	if r.AdministeredBy != nil {
		rec.AdministeredBy = NullIfEmpty(r.AdministeredBy)
	}
	if r.Notes != nil {
		rec.Notes = NullIfEmpty(r.Notes)
	}
}

type AdministerRequest struct {
	AdministeredDate *Date  `json:"administered_date"`
	AdministeredBy   string `json:"administered_by" binding:"omitempty,min=2"`
	Notes            string `json:"notes"`
}

type VaccinationFilter struct {
	Search    string            `form:"search"`
	Status    VaccinationStatus `form:"status" binding:"omitempty,oneof=completed overdue due upcoming"`
	PatientID string            `form:"patient_id"`
	Pagination
}

// Matches applies the search term to the patient or vaccine name and the
// status filter to the derived status.
func (f VaccinationFilter) Matches(v VaccinationView) bool {
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.PatientID != "" && v.PatientID != f.PatientID {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.PatientName()), term) ||
		strings.Contains(strings.ToLower(v.VaccineName()), term)
}
