package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Bill struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	AppointmentID uuid.UUID       `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID       `db:"patient_id" json:"patient_id"`
	ClinicID      uuid.UUID       `db:"clinic_id" json:"clinic_id"`
	ServiceID     uuid.UUID       `db:"service_id" json:"service_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	IssueDate     time.Time       `db:"issue_date" json:"issue_date"`
	Paid          bool            `db:"paid" json:"paid"`
	PaidAt        *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
}

type BillFilters struct {
	PatientID uuid.UUID
	ClinicID  uuid.UUID
	Paid      *bool
}
