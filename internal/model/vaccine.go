package model

import "time"

// Vaccine is reference data describing one vaccine and when it is recommended.
type Vaccine struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	RecommendedAgeMonths int       `json:"recommended_age_months"`
	CreatedAt            time.Time `json:"created_at"`
}

type CreateVaccineRequest struct {
	Name                 string `json:"name" binding:"required,min=2"`
	Description          string `json:"description"`
	RecommendedAgeMonths *int   `json:"recommended_age_months" binding:"required,min=0,max=240"`
}
