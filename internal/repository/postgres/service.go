package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const serviceColumns = `id, clinic_id, name, price, duration_minutes, created_at, updated_at`

type serviceRepository struct {
	BaseRepository
}

func NewServiceRepository(base BaseRepository) repository.ServiceRepository {
	return &serviceRepository{base}
}

func (r *serviceRepository) Create(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (id, clinic_id, name, price, duration_minutes, created_at, updated_at)
		VALUES (:id, :clinic_id, :name, :price, :duration_minutes, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, service); err != nil {
		return fmt.Errorf("failed to create service: %w", mapError(err))
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var service model.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	if err := r.getOne(ctx, &service, query, id); err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &service, nil
}

func (r *serviceRepository) GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Service, error) {
	var service model.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE clinic_id = $1 AND lower(name) = lower($2)`
	if err := r.getOne(ctx, &service, query, clinicID, name); err != nil {
		return nil, fmt.Errorf("failed to get service by name: %w", err)
	}
	return &service, nil
}

func (r *serviceRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error) {
	var services []*model.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE clinic_id = $1 ORDER BY lower(name)`
	if err := r.db.SelectContext(ctx, &services, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}
