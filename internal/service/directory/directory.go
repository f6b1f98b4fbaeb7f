package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

// Directory resolves clinics, clinicians, services and patients by ID or by
// case-insensitive name, caching hits.
type Directory struct {
	clinics    repository.ClinicRepository
	clinicians repository.ClinicianRepository
	services   repository.ServiceRepository
	patients   repository.PatientRepository
	cache      *cache.Cache
}

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func New(
	clinics repository.ClinicRepository,
	clinicians repository.ClinicianRepository,
	services repository.ServiceRepository,
	patients repository.PatientRepository,
	cfg Config,
) *Directory {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	return &Directory{
		clinics:    clinics,
		clinicians: clinicians,
		services:   services,
		patients:   patients,
		cache:      cache.New(cfg.TTL, cfg.CleanupInterval),
	}
}

func idKey(kind string, id uuid.UUID) string {
	return kind + ":id:" + id.String()
}

func nameKey(kind string, scope uuid.UUID, name string) string {
	return kind + ":name:" + scope.String() + ":" + strings.ToLower(strings.TrimSpace(name))
}

// lookup serves key from the cache or loads it. Values are stored by value
// so callers cannot mutate cached entries.
func lookup[T any](d *Directory, key, resource string, load func() (*T, error)) (*T, error) {
	if v, ok := d.cache.Get(key); ok {
		cp := v.(T)
		return &cp, nil
	}
	item, err := load()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(resource, err)
		}
		return nil, fmt.Errorf("failed to load %s: %w", resource, err)
	}
	d.cache.Set(key, *item, cache.DefaultExpiration)
	cp := *item
	return &cp, nil
}

func (d *Directory) Clinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	return lookup(d, idKey("clinic", id), "clinic", func() (*model.Clinic, error) {
		return d.clinics.Get(ctx, id)
	})
}

func (d *Directory) Clinician(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	return lookup(d, idKey("clinician", id), "clinician", func() (*model.Clinician, error) {
		return d.clinicians.Get(ctx, id)
	})
}

func (d *Directory) Patient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return lookup(d, idKey("patient", id), "patient", func() (*model.Patient, error) {
		return d.patients.Get(ctx, id)
	})
}

func (d *Directory) Service(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return lookup(d, idKey("service", id), "service", func() (*model.Service, error) {
		return d.services.Get(ctx, id)
	})
}

func (d *Directory) ClinicByName(ctx context.Context, name string) (*model.Clinic, error) {
	return lookup(d, nameKey("clinic", uuid.Nil, name), "clinic", func() (*model.Clinic, error) {
		return d.clinics.GetByName(ctx, name)
	})
}

func (d *Directory) ClinicianByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Clinician, error) {
	return lookup(d, nameKey("clinician", clinicID, name), "clinician", func() (*model.Clinician, error) {
		return d.clinicians.GetByName(ctx, clinicID, name)
	})
}

func (d *Directory) ServiceByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Service, error) {
	return lookup(d, nameKey("service", clinicID, name), "service", func() (*model.Service, error) {
		return d.services.GetByName(ctx, clinicID, name)
	})
}

func (d *Directory) PatientByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Patient, error) {
	return lookup(d, nameKey("patient", clinicID, name), "patient", func() (*model.Patient, error) {
		return d.patients.GetByName(ctx, clinicID, name)
	})
}

// RegisterPatient creates patient and registers them with clinicID.
func (d *Directory) RegisterPatient(ctx context.Context, patient *model.Patient, clinicID uuid.UUID) error {
	if err := d.patients.Create(ctx, patient); err != nil {
		return err
	}
	if err := d.patients.RegisterWithClinic(ctx, patient.ID, clinicID); err != nil {
		return err
	}
	d.cache.Set(idKey("patient", patient.ID), *patient, cache.DefaultExpiration)
	return nil
}

// Flush drops every cached entry.
func (d *Directory) Flush() {
	d.cache.Flush()
}
