package model

import "time"

// AuthRequest types
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required,min=2"`
	Role     Role   `json:"role" binding:"required,oneof=healthcare_worker parent"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *UserProfile `json:"user"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	Email     string
	Role      Role
	FullName  string
	TokenID   string
	ExpiresAt time.Time
}

// IsParent reports whether the caller is limited to their own children. Any
// role that is not clinical is treated that way.
func (p *Principal) IsParent() bool {
	return p != nil && !p.Role.Clinical()
}
