package medical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/service/audit"
)

type Service struct {
	repo    repository.MedicalRecordRepository
	auditor audit.Recorder
	loc     *time.Location
	now     func() time.Time
}

func NewService(repo repository.MedicalRecordRepository, auditor audit.Recorder, loc *time.Location) *Service {
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

// RecordVisit appends a history entry dated to the appointment's day.
func (s *Service) RecordVisit(ctx context.Context, apt *model.Appointment, clinic *model.Clinic, svc *model.Service, doctor *model.Clinician) (*model.MedicalRecord, error) {
	start := apt.StartTime.In(s.loc)
	record := &model.MedicalRecord{
		ID:            uuid.New(),
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		ClinicID:      clinic.ID,
		ServiceID:     svc.ID,
		ClinicianID:   doctor.ID,
		VisitDate:     time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc),
		Description:   fmt.Sprintf("%s at %s with %s, %s", svc.Name, clinic.Name, doctor.Name, start.Format("2006-01-02 15:04")),
		CreatedAt:     s.now(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create medical record: %w", err)
	}

	s.auditor.Log(ctx, audit.SystemActor, model.AuditActionCreate, model.AuditEntityMedicalRecord, record.ID, map[string]interface{}{
		"appointment_id": apt.ID,
	})
	return record, nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
