package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

type mockPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
	links    map[uuid.UUID]map[uuid.UUID]bool
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{
		patients: make(map[uuid.UUID]*model.Patient),
		links:    make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *mockPatientRepo) Create(_ context.Context, p *model.Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if p, ok := m.patients[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockPatientRepo) GetByName(context.Context, uuid.UUID, string) (*model.Patient, error) {
	return nil, repository.ErrNotFound
}

func (m *mockPatientRepo) RegisterWithClinic(_ context.Context, patientID, clinicID uuid.UUID) error {
	if m.links[clinicID] == nil {
		m.links[clinicID] = make(map[uuid.UUID]bool)
	}
	m.links[clinicID][patientID] = true
	return nil
}

func (m *mockPatientRepo) ListByClinic(_ context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	var out []*model.Patient
	for id := range m.links[clinicID] {
		out = append(out, m.patients[id])
	}
	return out, nil
}

type mockClinicRepo struct {
	clinics map[uuid.UUID]*model.Clinic
}

func (m *mockClinicRepo) Create(_ context.Context, c *model.Clinic) error {
	m.clinics[c.ID] = c
	return nil
}

func (m *mockClinicRepo) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	if c, ok := m.clinics[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockClinicRepo) GetByName(context.Context, string) (*model.Clinic, error) {
	return nil, repository.ErrNotFound
}

func (m *mockClinicRepo) List(context.Context) ([]*model.Clinic, error) {
	return nil, nil
}

type countingAuditor struct {
	actions []string
}

func (a *countingAuditor) Log(_ context.Context, _, action, _ string, _ uuid.UUID, _ map[string]interface{}) {
	a.actions = append(a.actions, action)
}

func TestCreatePatientRegistersWithClinic(t *testing.T) {
	clinicID := uuid.New()
	patients := newMockPatientRepo()
	auditor := &countingAuditor{}
	s := NewService(patients, &mockClinicRepo{clinics: map[uuid.UUID]*model.Clinic{
		clinicID: {Base: model.Base{ID: clinicID}, Name: "Smile Clinic"},
	}}, auditor)
	ctx := context.Background()

	p, err := s.CreatePatient(ctx, &model.CreatePatientRequest{
		PersonalID: "2900101123456",
		Name:       " Ana ",
		ClinicID:   &clinicID,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, []string{model.AuditActionCreate, model.AuditActionRegister}, auditor.actions)

	listed, err := s.ListClinicPatients(ctx, clinicID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)

	// Registering twice is harmless.
	require.NoError(t, s.RegisterWithClinic(ctx, p.ID, clinicID, "user-1"))
	listed, err = s.ListClinicPatients(ctx, clinicID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCreatePatientUnknownClinic(t *testing.T) {
	patients := newMockPatientRepo()
	s := NewService(patients, &mockClinicRepo{clinics: map[uuid.UUID]*model.Clinic{}}, &countingAuditor{})
	missing := uuid.New()

	_, err := s.CreatePatient(context.Background(), &model.CreatePatientRequest{Name: "Mihai", ClinicID: &missing}, "")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, patients.patients)
}

func TestRegisterWithClinicUnknownPatient(t *testing.T) {
	clinicID := uuid.New()
	s := NewService(newMockPatientRepo(), &mockClinicRepo{clinics: map[uuid.UUID]*model.Clinic{
		clinicID: {Base: model.Base{ID: clinicID}},
	}}, &countingAuditor{})

	err := s.RegisterWithClinic(context.Background(), uuid.New(), clinicID, "")
	assert.True(t, apperrors.IsNotFound(err))
}
