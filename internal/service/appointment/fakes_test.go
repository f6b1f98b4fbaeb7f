package appointment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// callLog records the order in which collaborators were invoked.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	log          *callLog
	appointments []*model.Appointment
	events       []*model.OutboxEvent
	createErr    error
}

func (r *fakeAppointmentRepo) CreateWithEvent(_ context.Context, apt *model.Appointment, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.log.add("commit")
	cp := *apt
	r.appointments = append(r.appointments, &cp)
	r.events = append(r.events, event)
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, apt := range r.appointments {
		if apt.ID == id {
			cp := *apt
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAppointmentRepo) List(_ context.Context, f *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if f != nil {
			if f.ClinicianID != uuid.Nil && apt.ClinicianID != f.ClinicianID {
				continue
			}
			if f.ClinicID != uuid.Nil && apt.ClinicID != f.ClinicID {
				continue
			}
			if f.PatientID != uuid.Nil && apt.PatientID != f.PatientID {
				continue
			}
		}
		cp := *apt
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appointments)
}

type fakeDirectory struct {
	mu         sync.Mutex
	clinics    []*model.Clinic
	clinicians []*model.Clinician
	services   []*model.Service
	patients   []*model.Patient
	members    map[uuid.UUID][]uuid.UUID
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{members: make(map[uuid.UUID][]uuid.UUID)}
}

func notFound(resource string) error {
	return apperrors.NewNotFound(resource, repository.ErrNotFound)
}

func (d *fakeDirectory) Clinic(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	for _, c := range d.clinics {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, notFound("clinic")
}

func (d *fakeDirectory) Clinician(_ context.Context, id uuid.UUID) (*model.Clinician, error) {
	for _, c := range d.clinicians {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, notFound("clinician")
}

func (d *fakeDirectory) Patient(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, notFound("patient")
}

func (d *fakeDirectory) Service(_ context.Context, id uuid.UUID) (*model.Service, error) {
	for _, s := range d.services {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, notFound("service")
}

func (d *fakeDirectory) ClinicByName(_ context.Context, name string) (*model.Clinic, error) {
	for _, c := range d.clinics {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, notFound("clinic")
}

func (d *fakeDirectory) ClinicianByName(_ context.Context, clinicID uuid.UUID, name string) (*model.Clinician, error) {
	for _, c := range d.clinicians {
		if c.ClinicID == clinicID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, notFound("clinician")
}

func (d *fakeDirectory) PatientByName(_ context.Context, clinicID uuid.UUID, name string) (*model.Patient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.members[clinicID] {
		for _, p := range d.patients {
			if p.ID == id && strings.EqualFold(p.Name, name) {
				return p, nil
			}
		}
	}
	return nil, notFound("patient")
}

func (d *fakeDirectory) ServiceByName(_ context.Context, clinicID uuid.UUID, name string) (*model.Service, error) {
	for _, s := range d.services {
		if s.ClinicID == clinicID && strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return nil, notFound("service")
}

func (d *fakeDirectory) RegisterPatient(_ context.Context, patient *model.Patient, clinicID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patients = append(d.patients, patient)
	d.members[clinicID] = append(d.members[clinicID], patient.ID)
	return nil
}

type fakeBiller struct {
	mu    sync.Mutex
	log   *callLog
	bills []*model.Bill
	err   error
}

func (b *fakeBiller) BillAppointment(_ context.Context, apt *model.Appointment, svc *model.Service) (*model.Bill, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log.add("bill")
	if b.err != nil {
		return nil, b.err
	}
	bill := &model.Bill{
		ID:            uuid.New(),
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		ClinicID:      apt.ClinicID,
		ServiceID:     svc.ID,
		Amount:        svc.Price,
	}
	b.bills = append(b.bills, bill)
	return bill, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	log     *callLog
	records []*model.MedicalRecord
	err     error
}

func (h *fakeHistory) RecordVisit(_ context.Context, apt *model.Appointment, clinic *model.Clinic, svc *model.Service, doctor *model.Clinician) (*model.MedicalRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log.add("history")
	if h.err != nil {
		return nil, h.err
	}
	y, m, d := apt.StartTime.Date()
	record := &model.MedicalRecord{
		ID:            uuid.New(),
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		ClinicID:      clinic.ID,
		ServiceID:     svc.ID,
		ClinicianID:   doctor.ID,
		VisitDate:     time.Date(y, m, d, 0, 0, 0, 0, apt.StartTime.Location()),
	}
	h.records = append(h.records, record)
	return record, nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAuditor) Log(_ context.Context, _, action, entityType string, _ uuid.UUID, _ map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, entityType+":"+action)
}

// fixture is a single clinic with two doctors, two services and a patient.
type fixture struct {
	svc       *Service
	repo      *fakeAppointmentRepo
	directory *fakeDirectory
	biller    *fakeBiller
	history   *fakeHistory
	auditor   *fakeAuditor
	log       *callLog

	clinic   *model.Clinic
	john     *model.Clinician
	alice    *model.Clinician
	cleaning *model.Service
	checkup  *model.Service
	ana      *model.Patient
}

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newFixture() *fixture {
	log := &callLog{}
	f := &fixture{
		repo:      &fakeAppointmentRepo{log: log},
		directory: newFakeDirectory(),
		biller:    &fakeBiller{log: log},
		history:   &fakeHistory{log: log},
		auditor:   &fakeAuditor{},
		log:       log,
	}

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.clinic = &model.Clinic{Base: model.NewBase(now), Name: "Smile Clinic"}
	f.john = &model.Clinician{Base: model.NewBase(now), ClinicID: f.clinic.ID, Name: "Dr. John"}
	f.alice = &model.Clinician{Base: model.NewBase(now), ClinicID: f.clinic.ID, Name: "Dr. Alice"}
	f.cleaning = &model.Service{Base: model.NewBase(now), ClinicID: f.clinic.ID, Name: "Cleaning", Price: decimal.RequireFromString("50.00"), DurationMinutes: 30}
	f.checkup = &model.Service{Base: model.NewBase(now), ClinicID: f.clinic.ID, Name: "Checkup", Price: decimal.RequireFromString("60.00"), DurationMinutes: 25}
	f.ana = &model.Patient{Base: model.NewBase(now), Name: "Ana", PersonalID: "1900101"}

	f.directory.clinics = []*model.Clinic{f.clinic}
	f.directory.clinicians = []*model.Clinician{f.john, f.alice}
	f.directory.services = []*model.Service{f.cleaning, f.checkup}
	f.directory.patients = []*model.Patient{f.ana}
	f.directory.members[f.clinic.ID] = []uuid.UUID{f.ana.ID}

	f.svc = NewService(f.repo, f.directory, f.biller, f.history, f.auditor,
		Config{Window: DefaultWindow, Step: DefaultStep, Location: time.UTC},
		logger.Nop(), metrics.NewMetrics("test", "scheduling", nil))
	f.svc.SetClock(func() time.Time { return now })
	return f
}

func (f *fixture) request(doctor *model.Clinician, service *model.Service, start time.Time, decide Decision) ScheduleRequest {
	return ScheduleRequest{
		Patient:        f.ana,
		Doctor:         doctor,
		Clinic:         f.clinic,
		Service:        service,
		RequestedStart: start,
		Decide:         decide,
		ActorID:        "tester",
	}
}

var errBoom = errors.New("boom")
