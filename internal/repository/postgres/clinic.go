package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const clinicColumns = `id, name, address, phone, created_at, updated_at`

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, address, phone, created_at, updated_at)
		VALUES (:id, :name, :address, :phone, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, clinic); err != nil {
		return fmt.Errorf("failed to create clinic: %w", mapError(err))
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	var clinic model.Clinic
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE id = $1`
	if err := r.getOne(ctx, &clinic, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) GetByName(ctx context.Context, name string) (*model.Clinic, error) {
	var clinic model.Clinic
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE lower(name) = lower($1)`
	if err := r.getOne(ctx, &clinic, query, name); err != nil {
		return nil, fmt.Errorf("failed to get clinic by name: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	var clinics []*model.Clinic
	query := `SELECT ` + clinicColumns + ` FROM clinics ORDER BY name`
	if err := r.db.SelectContext(ctx, &clinics, query); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}
