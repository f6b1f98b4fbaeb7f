package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

type seedService struct {
	name     string
	price    string
	duration int
}

type seedClinic struct {
	name     string
	address  string
	services []seedService
	doctors  []model.CreateClinicianRequest
}

var demoClinics = []seedClinic{
	{
		name:    "Smile Clinic",
		address: "12 Victoriei Blvd",
		services: []seedService{
			{name: "Cleaning", price: "50.00", duration: 30},
			{name: "Checkup", price: "60.00", duration: 25},
		},
		doctors: []model.CreateClinicianRequest{
			{Name: "Dr. John", Specialization: "Dentistry", YearsOfExperience: 12},
		},
	},
	{
		name:    "Healthy Teeth",
		address: "4 Unirii Square",
		services: []seedService{
			{name: "Cleaning", price: "50.00", duration: 30},
			{name: "Checkup", price: "60.00", duration: 25},
		},
		doctors: []model.CreateClinicianRequest{
			{Name: "Dr. Alice", Specialization: "Orthodontics", YearsOfExperience: 8},
		},
	},
}

var demoPatients = []model.CreatePatientRequest{
	{PersonalID: "2900101123456", Name: "Ana", Email: "ana@example.com", Phone: "+40 700 000 001", InsuranceProvider: "CASMB"},
	{PersonalID: "1880202123456", Name: "Mihai", Email: "mihai@example.com", Phone: "+40 700 000 002", InsuranceProvider: "CASMB"},
}

// Seed loads the demo clinics, services, doctors and patients. Clinics that
// already exist are left untouched.
func (s *Services) Seed(ctx context.Context) error {
	actor := audit.SystemActor

	for _, sc := range demoClinics {
		if _, err := s.Directory.ClinicByName(ctx, sc.name); err == nil {
			continue
		} else if !apperrors.IsNotFound(err) {
			return fmt.Errorf("failed to look up clinic %q: %w", sc.name, err)
		}

		clinic, err := s.Clinics.CreateClinic(ctx, &model.CreateClinicRequest{Name: sc.name, Address: sc.address}, actor)
		if err != nil {
			return err
		}
		for _, svc := range sc.services {
			if _, err := s.Clinics.AddService(ctx, clinic.ID, &model.CreateServiceRequest{
				Name:            svc.name,
				Price:           decimal.RequireFromString(svc.price),
				DurationMinutes: svc.duration,
			}, actor); err != nil {
				return err
			}
		}
		for _, doc := range sc.doctors {
			req := doc
			req.ClinicID = clinic.ID
			if _, err := s.Clinicians.CreateClinician(ctx, &req, actor); err != nil {
				return err
			}
		}
		for _, p := range demoPatients {
			req := p
			req.ClinicID = &clinic.ID
			if _, err := s.Patients.CreatePatient(ctx, &req, actor); err != nil {
				return err
			}
		}
	}
	return nil
}
