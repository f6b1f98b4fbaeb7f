package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a billable treatment offered by one clinic.
type Service struct {
	Base
	ClinicID        uuid.UUID       `db:"clinic_id" json:"clinic_id"`
	Name            string          `db:"name" json:"name"`
	Price           decimal.Decimal `db:"price" json:"price"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

type CreateServiceRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes" validate:"gt=0,max=720"`
}
