package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
)

// Appointment is immutable once booked. DurationMinutes is copied from the
// service at booking time.
type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	ClinicianID     uuid.UUID         `db:"clinician_id" json:"clinician_id"`
	ClinicID        uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	ServiceID       uuid.UUID         `db:"service_id" json:"service_id"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	Status          AppointmentStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}

func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(a.Duration())
}

type CreateAppointmentRequest struct {
	PatientID         uuid.UUID `json:"patient_id" validate:"required"`
	ClinicianID       uuid.UUID `json:"clinician_id" validate:"required"`
	ClinicID          uuid.UUID `json:"clinic_id" validate:"required"`
	ServiceID         uuid.UUID `json:"service_id" validate:"required"`
	StartTime         time.Time `json:"start_time" validate:"required"`
	AcceptAlternative bool      `json:"accept_alternative"`
}

// ScheduleByNameRequest books using display names. Patient details other than
// the name are only needed when the patient is not registered yet.
type ScheduleByNameRequest struct {
	ClinicName        string    `json:"clinic_name" validate:"required"`
	ClinicianName     string    `json:"clinician_name" validate:"required"`
	ServiceName       string    `json:"service_name" validate:"required"`
	PatientName       string    `json:"patient_name" validate:"required"`
	StartTime         time.Time `json:"start_time" validate:"required"`
	AcceptAlternative bool      `json:"accept_alternative"`

	PersonalID        string `json:"personal_id"`
	Email             string `json:"email" validate:"omitempty,email"`
	Phone             string `json:"phone"`
	InsuranceProvider string `json:"insurance_provider"`
}

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AppointmentFilters narrows appointment listings. Zero values are ignored.
type AppointmentFilters struct {
	ClinicID    uuid.UUID
	ClinicianID uuid.UUID
	PatientID   uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
}
