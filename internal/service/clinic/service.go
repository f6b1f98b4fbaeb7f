package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

type Service struct {
	repo     repository.ClinicRepository
	services repository.ServiceRepository
	auditor  audit.Recorder
	now      func() time.Time
}

func NewService(repo repository.ClinicRepository, services repository.ServiceRepository, auditor audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		services: services,
		auditor:  auditor,
		now:      time.Now,
	}
}

func (s *Service) CreateClinic(ctx context.Context, req *model.CreateClinicRequest, actorID string) (*model.Clinic, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("clinic name is required", nil)
	}

	clinic := &model.Clinic{
		Base:    model.NewBase(s.now()),
		Name:    name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if err := s.repo.Create(ctx, clinic); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(fmt.Sprintf("clinic %q already exists", name), err)
		}
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityClinic, clinic.ID, map[string]interface{}{
		"name": clinic.Name,
	})
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("clinic", err)
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	return s.repo.List(ctx)
}

// AddService adds a treatment to the clinic's catalogue.
func (s *Service) AddService(ctx context.Context, clinicID uuid.UUID, req *model.CreateServiceRequest, actorID string) (*model.Service, error) {
	if _, err := s.GetClinic(ctx, clinicID); err != nil {
		return nil, err
	}
	if req.DurationMinutes <= 0 {
		return nil, apperrors.NewBadRequest("duration_minutes must be positive", nil)
	}
	if req.Price.IsNegative() {
		return nil, apperrors.NewBadRequest("price must not be negative", nil)
	}

	service := &model.Service{
		Base:            model.NewBase(s.now()),
		ClinicID:        clinicID,
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price.Round(2),
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.services.Create(ctx, service); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(fmt.Sprintf("service %q already exists", service.Name), err)
		}
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityService, service.ID, map[string]interface{}{
		"clinic_id": clinicID,
		"name":      service.Name,
		"price":     service.Price.StringFixed(2),
	})
	return service, nil
}

// ListServices returns the clinic's services ordered by name.
func (s *Service) ListServices(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error) {
	if _, err := s.GetClinic(ctx, clinicID); err != nil {
		return nil, err
	}
	return s.services.ListByClinic(ctx, clinicID)
}
