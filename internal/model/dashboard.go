package model

type DashboardStats struct {
	TotalPatients         int `json:"total_patients"`
	VaccinationsThisMonth int `json:"vaccinations_this_month"`
	OverdueVaccinations   int `json:"overdue_vaccinations"`
	UpcomingVaccinations  int `json:"upcoming_vaccinations"`
}

type UpcomingVaccination struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patient_id"`
	PatientName string            `json:"patient_name"`
	VaccineName string            `json:"vaccine_name"`
	DueDate     Date              `json:"due_date"`
	Status      VaccinationStatus `json:"status"`
}

type Dashboard struct {
	Role     Role                  `json:"role"`
	Stats    DashboardStats        `json:"stats"`
	Upcoming []UpcomingVaccination `json:"upcoming"`
}
