package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

var appointmentColumns = []interface{}{
	"id", "patient_id", "clinician_id", "clinic_id", "service_id",
	"start_time", "duration_minutes", "status", "created_at",
}

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) CreateWithEvent(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	insertAppointment := `
		INSERT INTO appointments (
			id, patient_id, clinician_id, clinic_id, service_id,
			start_time, duration_minutes, status, created_at
		) VALUES (
			:id, :patient_id, :clinician_id, :clinic_id, :service_id,
			:start_time, :duration_minutes, :status, :created_at
		)
	`
	insertEvent := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES (
			:id, :event_type, :payload, :status, :retry_count, :created_at, :updated_at
		)
	`

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertAppointment, appointment); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		if event == nil {
			return nil
		}
		if _, err := tx.NamedExecContext(ctx, insertEvent, event); err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query, args, err := dialect.From("appointments").
		Select(appointmentColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var appointment model.Appointment
	if err := r.getOne(ctx, &appointment, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	ds := dialect.From("appointments").Select(appointmentColumns...)

	if filters != nil {
		if filters.ClinicID != uuid.Nil {
			ds = ds.Where(goqu.C("clinic_id").Eq(filters.ClinicID))
		}
		if filters.ClinicianID != uuid.Nil {
			ds = ds.Where(goqu.C("clinician_id").Eq(filters.ClinicianID))
		}
		if filters.PatientID != uuid.Nil {
			ds = ds.Where(goqu.C("patient_id").Eq(filters.PatientID))
		}
		if !filters.StartDate.IsZero() {
			ds = ds.Where(goqu.C("start_time").Gte(filters.StartDate))
		}
		if !filters.EndDate.IsZero() {
			ds = ds.Where(goqu.C("start_time").Lt(filters.EndDate))
		}
	}

	query, args, err := ds.Order(goqu.C("start_time").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}
