package model

import (
	"math"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Patient struct {
	ID               string    `json:"id"`
	FullName         string    `json:"full_name"`
	DateOfBirth      Date      `json:"date_of_birth"`
	Gender           Gender    `json:"gender"`
	ParentName       string    `json:"parent_name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	Address          string    `json:"address"`
	EmergencyContact string    `json:"emergency_contact"`
	MedicalNotes     *string   `json:"medical_notes"`
	ParentID         *string   `json:"parent_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// BelongsTo reports whether the patient is linked to the given parent account.
func (p *Patient) BelongsTo(parentID string) bool {
	return p.ParentID != nil && *p.ParentID == parentID
}

// AgeInMonths uses the average month length, matching how ages are grouped in reports.
func (p *Patient) AgeInMonths(now time.Time) int {
	days := now.Sub(p.DateOfBirth.Time).Hours() / 24
	if days < 0 {
		return 0
	}
	return int(math.Floor(days / 30.44))
}

// CalendarAge returns completed years, counting a birthday only once its day
// is reached, and the month count between the birth month and the current
// month. Dates are compared in UTC.
func (p *Patient) CalendarAge(now time.Time) (years, months int) {
	by, bm, bd := p.DateOfBirth.Time.UTC().Date()
	ny, nm, nd := now.UTC().Date()

	years = ny - by
	if nm < bm || (nm == bm && nd < bd) {
		years--
	}
	months = (ny-by)*12 + int(nm) - int(bm)

	if years < 0 {
		years = 0
	}
	if months < 0 {
		months = 0
	}
	return years, months
}

// PatientView is a patient as returned by the API.
type PatientView struct {
	*Patient
	AgeYears  int `json:"age_years"`
	AgeMonths int `json:"age_months"`
}

func NewPatientView(p *Patient, now time.Time) PatientView {
	years, months := p.CalendarAge(now)
	return PatientView{Patient: p, AgeYears: years, AgeMonths: months}
}

type CreatePatientRequest struct {
	FullName         string  `json:"full_name" binding:"required,min=2"`
	DateOfBirth      *Date   `json:"date_of_birth" binding:"required"`
	Gender           Gender  `json:"gender" binding:"required,oneof=male female"`
	ParentName       string  `json:"parent_name" binding:"required,min=2"`
	Phone            string  `json:"phone" binding:"required,min=10"`
	Email            string  `json:"email" binding:"required,email"`
	Address          string  `json:"address" binding:"required,min=5"`
	EmergencyContact string  `json:"emergency_contact" binding:"required,min=10"`
	MedicalNotes     *string `json:"medical_notes"`
	ParentID         *string `json:"parent_id"`
}

// UpdatePatientRequest changes only the fields that are present.
type UpdatePatientRequest struct {
	FullName         *string `json:"full_name" binding:"omitempty,min=2"`
	DateOfBirth      *Date   `json:"date_of_birth"`
	Gender           *Gender `json:"gender" binding:"omitempty,oneof=male female"`
	ParentName       *string `json:"parent_name" binding:"omitempty,min=2"`
	Phone            *string `json:"phone" binding:"omitempty,min=10"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Address          *string `json:"address" binding:"omitempty,min=5"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,min=10"`
	MedicalNotes     *string `json:"medical_notes"`
	ParentID         *string `json:"parent_id"`
}

// Apply merges the request into p.
func (r *UpdatePatientRequest) Apply(p *Patient) {
	if r.FullName != nil {
		p.FullName = strings.TrimSpace(*r.FullName)
	}
	if r.DateOfBirth != nil {
		p.DateOfBirth = *r.DateOfBirth
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.ParentName != nil {
		p.ParentName = strings.TrimSpace(*r.ParentName)
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Email != nil {
		p.Email = *r.Email
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.EmergencyContact != nil {
		p.EmergencyContact = *r.EmergencyContact
	}
	if r.MedicalNotes != nil {
		p.MedicalNotes = NullIfEmpty(r.MedicalNotes)
	}
	if r.ParentID != nil {
		p.ParentID = NullIfEmpty(r.ParentID)
	}
}

type PatientFilter struct {
	Search string `form:"search"`
	Gender Gender `form:"gender" binding:"omitempty,oneof=male female"`
	Pagination
}

// Matches applies the search term to full name or parent name, case-insensitively.
func (f PatientFilter) Matches(p *Patient) bool {
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.FullName), term) ||
		strings.Contains(strings.ToLower(p.ParentName), term)
}
