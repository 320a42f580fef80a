package model

import "time"

type Role string

const (
	RoleAdmin            Role = "admin"
	RoleHealthcareWorker Role = "healthcare_worker"
	RoleParent           Role = "parent"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHealthcareWorker, RoleParent:
		return true
	}
	return false
}

// Clinical roles see every patient; parents only see their own children.
func (r Role) Clinical() bool {
	return r == RoleAdmin || r == RoleHealthcareWorker
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         Role      `json:"role"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// UserProfile is the public part of a user; the password hash never leaves the service.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
	}
}
