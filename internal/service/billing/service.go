package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

type Service struct {
	repo    repository.BillRepository
	auditor audit.Recorder
	loc     *time.Location
	now     func() time.Time
}

// NewService creates the billing service. Issue dates are calendar days in loc.
func NewService(repo repository.BillRepository, auditor audit.Recorder, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:    repo,
		auditor: auditor,
		loc:     loc,
		now:     time.Now,
	}
}

// BillAppointment issues an unpaid bill for the service price, dated today.
func (s *Service) BillAppointment(ctx context.Context, apt *model.Appointment, svc *model.Service) (*model.Bill, error) {
	if apt == nil || svc == nil {
		return nil, errors.New("appointment and service are required")
	}

	now := s.now().In(s.loc)
	bill := &model.Bill{
		ID:            uuid.New(),
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		ClinicID:      apt.ClinicID,
		ServiceID:     svc.ID,
		Amount:        svc.Price,
		IssueDate:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc),
	}
	if err := s.repo.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	s.auditor.Log(ctx, audit.SystemActor, model.AuditActionCreate, model.AuditEntityBill, bill.ID, map[string]interface{}{
		"appointment_id": apt.ID,
		"amount":         bill.Amount.StringFixed(2),
	})
	return bill, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Bill, error) {
	return s.repo.List(ctx, &model.BillFilters{PatientID: patientID})
}

func (s *Service) ListUnpaid(ctx context.Context) ([]*model.Bill, error) {
	unpaid := false
	return s.repo.List(ctx, &model.BillFilters{Paid: &unpaid})
}

// MarkPaid settles an unpaid bill.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, actorID string) (*model.Bill, error) {
	bill, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("bill", err)
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	if bill.Paid {
		return nil, apperrors.NewConflict("bill is already paid", nil)
	}

	paidAt := s.now()
	if err := s.repo.MarkPaid(ctx, id, paidAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewConflict("bill is already paid", err)
		}
		return nil, fmt.Errorf("failed to mark bill paid: %w", err)
	}
	bill.Paid = true
	bill.PaidAt = &paidAt

	s.auditor.Log(ctx, actorID, model.AuditActionPay, model.AuditEntityBill, bill.ID, nil)
	return bill, nil
}
