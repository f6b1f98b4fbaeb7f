package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
)

// All repository interfaces in one file
type (
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		// GetByName matches case-insensitively.
		GetByName(ctx context.Context, name string) (*model.Clinic, error)
		List(ctx context.Context) ([]*model.Clinic, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Service, error)
		// ListByClinic returns services ordered by name.
		ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error)
	}

	ClinicianRepository interface {
		Create(ctx context.Context, clinician *model.Clinician) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error)
		GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Clinician, error)
		ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Clinician, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		// GetByName looks among the patients registered with clinicID.
		GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Patient, error)
		RegisterWithClinic(ctx context.Context, patientID, clinicID uuid.UUID) error
		ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error)
	}

	AppointmentRepository interface {
		// CreateWithEvent writes the appointment and its outbox event in one
		// transaction.
		CreateWithEvent(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// List with nil or empty filters returns every appointment.
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	BillRepository interface {
		Create(ctx context.Context, bill *model.Bill) error
		Get(ctx context.Context, id uuid.UUID) (*model.Bill, error)
		List(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error)
		MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	OutboxRepository interface {
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
