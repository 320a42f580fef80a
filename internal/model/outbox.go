package model

import (
	"encoding/json"
	"time"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types written to the outbox.
const (
	EventPatientCreated          = "patient.created"
	EventPatientUpdated          = "patient.updated"
	EventPatientDeleted          = "patient.deleted"
	EventVaccinationCreated      = "vaccination.created"
	EventVaccinationUpdated      = "vaccination.updated"
	EventVaccinationAdministered = "vaccination.administered"
	EventVaccinationDeleted      = "vaccination.deleted"
	EventRegistrationSubmitted   = "registration.submitted"
	EventRegistrationApproved    = "registration.approved"
	EventRegistrationRejected    = "registration.rejected"
)

type OutboxEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       OutboxStatus    `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
}
