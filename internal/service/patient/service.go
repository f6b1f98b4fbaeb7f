package patient

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
	repo    repository.PatientRepository
	clinics repository.ClinicRepository
	auditor audit.Recorder
	now     func() time.Time
}

func NewService(repo repository.PatientRepository, clinics repository.ClinicRepository, auditor audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		clinics: clinics,
		auditor: auditor,
		now:     time.Now,
	}
}

// CreatePatient creates a patient and, when req.ClinicID is set, registers
// them with that clinic.
func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest, actorID string) (*model.Patient, error) {
	if req.ClinicID != nil {
		if err := s.ensureClinic(ctx, *req.ClinicID); err != nil {
			return nil, err
		}
	}

	patient := &model.Patient{
		Base:              model.NewBase(s.now()),
		PersonalID:        strings.TrimSpace(req.PersonalID),
		Name:              strings.TrimSpace(req.Name),
		Email:             req.Email,
		Phone:             req.Phone,
		InsuranceProvider: req.InsuranceProvider,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityPatient, patient.ID, nil)

	if req.ClinicID != nil {
		if err := s.register(ctx, patient.ID, *req.ClinicID, actorID); err != nil {
			return nil, err
		}
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

// RegisterWithClinic is idempotent.
func (s *Service) RegisterWithClinic(ctx context.Context, patientID, clinicID uuid.UUID, actorID string) error {
	if _, err := s.GetPatient(ctx, patientID); err != nil {
		return err
	}
	if err := s.ensureClinic(ctx, clinicID); err != nil {
		return err
	}
	return s.register(ctx, patientID, clinicID, actorID)
}

func (s *Service) ListClinicPatients(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	return s.repo.ListByClinic(ctx, clinicID)
}

func (s *Service) register(ctx context.Context, patientID, clinicID uuid.UUID, actorID string) error {
	if err := s.repo.RegisterWithClinic(ctx, patientID, clinicID); err != nil {
		return fmt.Errorf("failed to register patient: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionRegister, model.AuditEntityPatient, patientID, map[string]interface{}{
		"clinic_id": clinicID,
	})
	return nil
}

func (s *Service) ensureClinic(ctx context.Context, clinicID uuid.UUID) error {
	if _, err := s.clinics.Get(ctx, clinicID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("clinic", err)
		}
		return fmt.Errorf("failed to get clinic: %w", err)
	}
	return nil
}
