package clinician

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
	repo    repository.ClinicianRepository
	clinics repository.ClinicRepository
	auditor audit.Recorder
	now     func() time.Time
}

func NewService(repo repository.ClinicianRepository, clinics repository.ClinicRepository, auditor audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		clinics: clinics,
		auditor: auditor,
		now:     time.Now,
	}
}

func (s *Service) CreateClinician(ctx context.Context, req *model.CreateClinicianRequest, actorID string) (*model.Clinician, error) {
	if _, err := s.clinics.Get(ctx, req.ClinicID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewBadRequest("clinic does not exist", err)
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}

	clinician := &model.Clinician{
		Base:              model.NewBase(s.now()),
		ClinicID:          req.ClinicID,
		Name:              strings.TrimSpace(req.Name),
		Specialization:    req.Specialization,
		YearsOfExperience: req.YearsOfExperience,
	}
	if err := s.repo.Create(ctx, clinician); err != nil {
		return nil, fmt.Errorf("failed to create clinician: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityClinician, clinician.ID, map[string]interface{}{
		"clinic_id": clinician.ClinicID,
		"name":      clinician.Name,
	})
	return clinician, nil
}

func (s *Service) GetClinician(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	clinician, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("clinician", err)
		}
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return clinician, nil
}

func (s *Service) ListClinicClinicians(ctx context.Context, clinicID uuid.UUID) ([]*model.Clinician, error) {
	return s.repo.ListByClinic(ctx, clinicID)
}
