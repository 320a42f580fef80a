package model

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	IPAddress  string          `json:"ip_address"`
	UserAgent  string          `json:"user_agent"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	// Action types
	AuditActionCreate  = "create"
	AuditActionRead    = "read"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionLogin   = "login"
	AuditActionLogout  = "logout"
	AuditActionApprove = "approve"
	AuditActionReject  = "reject"

	// Entity types
	AuditEntityUser         = "user"
	AuditEntityPatient      = "patient"
	AuditEntityVaccine      = "vaccine"
	AuditEntityVaccination  = "vaccination"
	AuditEntityRegistration = "registration"
	AuditEntityReport       = "report"
	AuditEntitySettings     = "settings"
)

type AuditFilter struct {
	UserID     string `form:"user_id"`
	EntityType string `form:"entity_type"`
	Action     string `form:"action"`
	Pagination
}

func (f AuditFilter) Matches(l *AuditLog) bool {
	if f.UserID != "" && l.UserID != f.UserID {
		return false
	}
	if f.EntityType != "" && l.EntityType != f.EntityType {
		return false
	}
	if f.Action != "" && l.Action != f.Action {
		return false
	}
	return true
}
