package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const clinicianColumns = `id, clinic_id, name, specialization, years_of_experience, created_at, updated_at`

type clinicianRepository struct {
	BaseRepository
}

func NewClinicianRepository(base BaseRepository) repository.ClinicianRepository {
	return &clinicianRepository{base}
}

func (r *clinicianRepository) Create(ctx context.Context, clinician *model.Clinician) error {
	query := `
		INSERT INTO clinicians (id, clinic_id, name, specialization, years_of_experience, created_at, updated_at)
		VALUES (:id, :clinic_id, :name, :specialization, :years_of_experience, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, clinician); err != nil {
		return fmt.Errorf("failed to create clinician: %w", err)
	}
	return nil
}

func (r *clinicianRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	var clinician model.Clinician
	query := `SELECT ` + clinicianColumns + ` FROM clinicians WHERE id = $1`
	if err := r.getOne(ctx, &clinician, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return &clinician, nil
}

func (r *clinicianRepository) GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Clinician, error) {
	var clinician model.Clinician
	query := `
		SELECT ` + clinicianColumns + ` FROM clinicians
		WHERE clinic_id = $1 AND lower(name) = lower($2)
		ORDER BY created_at
		LIMIT 1
	`
	if err := r.getOne(ctx, &clinician, query, clinicID, name); err != nil {
		return nil, fmt.Errorf("failed to get clinician by name: %w", err)
	}
	return &clinician, nil
}

func (r *clinicianRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Clinician, error) {
	var clinicians []*model.Clinician
	query := `SELECT ` + clinicianColumns + ` FROM clinicians WHERE clinic_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &clinicians, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	return clinicians, nil
}
