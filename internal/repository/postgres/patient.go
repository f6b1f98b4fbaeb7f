package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const patientColumns = `p.id, p.personal_id, p.name, p.email, p.phone, p.insurance_provider, p.created_at, p.updated_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, personal_id, name, email, phone, insurance_provider, created_at, updated_at)
		VALUES (:id, :personal_id, :name, :email, :phone, :insurance_provider, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients p WHERE p.id = $1`
	if err := r.getOne(ctx, &patient, query, id); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Patient, error) {
	var patient model.Patient
	query := `
		SELECT ` + patientColumns + `
		FROM patients p
		JOIN clinic_patients cp ON cp.patient_id = p.id
		WHERE cp.clinic_id = $1 AND lower(p.name) = lower($2)
		ORDER BY cp.registered_at
		LIMIT 1
	`
	if err := r.getOne(ctx, &patient, query, clinicID, name); err != nil {
		return nil, fmt.Errorf("failed to get patient by name: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) RegisterWithClinic(ctx context.Context, patientID, clinicID uuid.UUID) error {
	query := `
		INSERT INTO clinic_patients (clinic_id, patient_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, clinicID, patientID); err != nil {
		return fmt.Errorf("failed to register patient with clinic: %w", err)
	}
	return nil
}

func (r *patientRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	var patients []*model.Patient
	query := `
		SELECT ` + patientColumns + `
		FROM patients p
		JOIN clinic_patients cp ON cp.patient_id = p.id
		WHERE cp.clinic_id = $1
		ORDER BY p.name
	`
	if err := r.db.SelectContext(ctx, &patients, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
