package model

import "time"

type ReportStats struct {
	TotalVaccinations int `json:"total_vaccinations"`
	Completed         int `json:"completed"`
	Overdue           int `json:"overdue"`
	Scheduled         int `json:"scheduled"`
}

type MonthlyCount struct {
	Month        string `json:"month"`
	Key          string `json:"key"`
	Vaccinations int    `json:"vaccinations"`
}

type VaccineShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type AgeGroupCount struct {
	AgeGroup string `json:"age_group"`
	Count    int    `json:"count"`
}

type Report struct {
	GeneratedAt         time.Time       `json:"generated_at"`
	Stats               ReportStats     `json:"stats"`
	MonthlyData         []MonthlyCount  `json:"monthly_data"`
	VaccineDistribution []VaccineShare  `json:"vaccine_distribution"`
	AgeGroupData        []AgeGroupCount `json:"age_group_data"`
}

// ExportResult describes a report uploaded to object storage.
type ExportResult struct {
	Bucket    string    `json:"bucket"`
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
