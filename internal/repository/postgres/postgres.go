package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

// Repositories bundles every postgres repository over one connection pool.
type Repositories struct {
	Clinics        repository.ClinicRepository
	Services       repository.ServiceRepository
	Clinicians     repository.ClinicianRepository
	Patients       repository.PatientRepository
	Appointments   repository.AppointmentRepository
	Bills          repository.BillRepository
	MedicalRecords repository.MedicalRecordRepository
	Audit          repository.AuditRepository
	Outbox         repository.OutboxRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	base := NewBaseRepository(db)
	return &Repositories{
		Clinics:        NewClinicRepository(base),
		Services:       NewServiceRepository(base),
		Clinicians:     NewClinicianRepository(base),
		Patients:       NewPatientRepository(base),
		Appointments:   NewAppointmentRepository(base),
		Bills:          NewBillRepository(base),
		MedicalRecords: NewMedicalRecordRepository(base),
		Audit:          NewAuditRepository(base),
		Outbox:         NewOutboxRepository(base),
	}
}
