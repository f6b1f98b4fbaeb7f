package model

import (
	"github.com/google/uuid"
)

type Patient struct {
	Base
	PersonalID        string `db:"personal_id" json:"personal_id"`
	Name              string `db:"name" json:"name"`
	Email             string `db:"email" json:"email"`
	Phone             string `db:"phone" json:"phone"`
	InsuranceProvider string `db:"insurance_provider" json:"insurance_provider"`
}

type CreatePatientRequest struct {
	PersonalID        string `json:"personal_id" validate:"required,max=50"`
	Name              string `json:"name" validate:"required,max=200"`
	Email             string `json:"email" validate:"omitempty,email"`
	Phone             string `json:"phone" validate:"max=50"`
	InsuranceProvider string `json:"insurance_provider" validate:"max=200"`
	// ClinicID, when set, registers the new patient with that clinic.
	ClinicID *uuid.UUID `json:"clinic_id,omitempty"`
}
