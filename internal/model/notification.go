package model

// Reminder is one vaccination a parent is told about.
type Reminder struct {
	RecordID    string            `json:"record_id"`
	ParentID    string            `json:"parent_id"`
	ParentEmail string            `json:"parent_email"`
	ParentName  string            `json:"parent_name"`
	PatientName string            `json:"patient_name"`
	VaccineName string            `json:"vaccine_name"`
	DueDate     Date              `json:"due_date"`
	Status      VaccinationStatus `json:"status"`
}
