package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/postgres"
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/service/audit"
	"github.com/jwalitptl/clinic-scheduler/internal/service/billing"
	"github.com/jwalitptl/clinic-scheduler/internal/service/clinic"
	"github.com/jwalitptl/clinic-scheduler/internal/service/clinician"
	"github.com/jwalitptl/clinic-scheduler/internal/service/directory"
	"github.com/jwalitptl/clinic-scheduler/internal/service/medical"
	"github.com/jwalitptl/clinic-scheduler/internal/service/patient"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// Services is the wired service layer shared by the API and the CLI.
type Services struct {
	Repos        *postgres.Repositories
	Directory    *directory.Directory
	Audit        *audit.Service
	AuditLogger  *audit.AuditLogger
	Clinics      *clinic.Service
	Clinicians   *clinician.Service
	Patients     *patient.Service
	Billing      *billing.Service
	Medical      *medical.Service
	Appointments *appointment.Service
	Location     *time.Location
}

// NewServices wires every service over db and loads committed appointments
// into the scheduling store.
func NewServices(ctx context.Context, cfg *config.Config, db *sqlx.DB, log *logger.Logger, m *metrics.Metrics) (*Services, error) {
	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduling timezone: %w", err)
	}
	open, closing, err := cfg.Scheduling.Window()
	if err != nil {
		return nil, err
	}

	repos := postgres.NewRepositories(db)
	auditSvc := audit.NewService(repos.Audit)
	auditLogger := audit.NewAuditLogger(auditSvc, log)

	dir := directory.New(repos.Clinics, repos.Clinicians, repos.Services, repos.Patients, directory.Config{
		TTL:             cfg.Cache.DirectoryTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	billingSvc := billing.NewService(repos.Bills, auditLogger, loc)
	medicalSvc := medical.NewService(repos.MedicalRecords, auditLogger, loc)

	appointments := appointment.NewService(
		repos.Appointments,
		dir,
		billingSvc,
		medicalSvc,
		auditLogger,
		appointment.Config{
			Window:   appointment.OperatingWindow{Open: open, Close: closing},
			Step:     cfg.Scheduling.Step,
			Location: loc,
		},
		log,
		m,
	)
	if err := appointments.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	return &Services{
		Repos:        repos,
		Directory:    dir,
		Audit:        auditSvc,
		AuditLogger:  auditLogger,
		Clinics:      clinic.NewService(repos.Clinics, repos.Services, auditLogger),
		Clinicians:   clinician.NewService(repos.Clinicians, repos.Clinics, auditLogger),
		Patients:     patient.NewService(repos.Patients, repos.Clinics, auditLogger),
		Billing:      billingSvc,
		Medical:      medicalSvc,
		Appointments: appointments,
		Location:     loc,
	}, nil
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.LoggingConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Console,
	})
}
