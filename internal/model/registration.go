package model

import "time"

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// PendingRegistration is a sign-up waiting for an administrator's decision.
type PendingRegistration struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"password_hash"`
	FullName     string             `json:"full_name"`
	Role         Role               `json:"role"`
	Status       RegistrationStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	ReviewedAt   *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy   *string            `json:"reviewed_by,omitempty"`
}

type RegistrationView struct {
	ID         string             `json:"id"`
	Email      string             `json:"email"`
	FullName   string             `json:"full_name"`
	Role       Role               `json:"role"`
	Status     RegistrationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	ReviewedAt *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy *string            `json:"reviewed_by,omitempty"`
}

func (r *PendingRegistration) View() RegistrationView {
	return RegistrationView{
		ID:         r.ID,
		Email:      r.Email,
		FullName:   r.FullName,
		Role:       r.Role,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ReviewedAt: r.ReviewedAt,
		ReviewedBy: r.ReviewedBy,
	}
}

type RegistrationFilter struct {
	Status RegistrationStatus `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

type RegistrationSummary struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
