package model

import (
	"github.com/google/uuid"
)

// Clinician is a doctor. A clinician works at exactly one clinic.
type Clinician struct {
	Base
	ClinicID          uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name              string    `db:"name" json:"name"`
	Specialization    string    `db:"specialization" json:"specialization"`
	YearsOfExperience int       `db:"years_of_experience" json:"years_of_experience"`
}

type CreateClinicianRequest struct {
	ClinicID          uuid.UUID `json:"clinic_id" validate:"required"`
	Name              string    `json:"name" validate:"required,max=200"`
	Specialization    string    `json:"specialization" validate:"max=200"`
	YearsOfExperience int       `json:"years_of_experience" validate:"min=0,max=80"`
}
