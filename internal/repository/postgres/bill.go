package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

var billColumns = []interface{}{
	"id", "appointment_id", "patient_id", "clinic_id", "service_id",
	"amount", "issue_date", "paid", "paid_at",
}

type billRepository struct {
	BaseRepository
}

func NewBillRepository(base BaseRepository) repository.BillRepository {
	return &billRepository{base}
}

func (r *billRepository) Create(ctx context.Context, bill *model.Bill) error {
	query := `
		INSERT INTO bills (
			id, appointment_id, patient_id, clinic_id, service_id,
			amount, issue_date, paid, paid_at
		) VALUES (
			:id, :appointment_id, :patient_id, :clinic_id, :service_id,
			:amount, :issue_date, :paid, :paid_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, bill); err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

func (r *billRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	query, args, err := dialect.From("bills").
		Select(billColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if err := r.getOne(ctx, &bill, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return &bill, nil
}

func (r *billRepository) List(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error) {
	ds := dialect.From("bills").Select(billColumns...)

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			ds = ds.Where(goqu.C("patient_id").Eq(filters.PatientID))
		}
		if filters.ClinicID != uuid.Nil {
			ds = ds.Where(goqu.C("clinic_id").Eq(filters.ClinicID))
		}
		if filters.Paid != nil {
			ds = ds.Where(goqu.C("paid").Eq(*filters.Paid))
		}
	}

	query, args, err := ds.Order(goqu.C("issue_date").Asc(), goqu.C("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var bills []*model.Bill
	if err := r.db.SelectContext(ctx, &bills, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}

func (r *billRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	query := `UPDATE bills SET paid = TRUE, paid_at = $1 WHERE id = $2 AND paid = FALSE`
	result, err := r.db.ExecContext(ctx, query, paidAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark bill paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark bill paid: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
