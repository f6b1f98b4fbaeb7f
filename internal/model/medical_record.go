package model

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord is one medical-history entry, written for every booked
// appointment.
type MedicalRecord struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	ClinicID      uuid.UUID `db:"clinic_id" json:"clinic_id"`
	ServiceID     uuid.UUID `db:"service_id" json:"service_id"`
	ClinicianID   uuid.UUID `db:"clinician_id" json:"clinician_id"`
	VisitDate     time.Time `db:"visit_date" json:"visit_date"`
	Description   string    `db:"description" json:"description"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
