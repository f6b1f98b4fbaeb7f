package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// Directory resolves the entities a booking refers to.
type Directory interface {
	Clinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	Clinician(ctx context.Context, id uuid.UUID) (*model.Clinician, error)
	Patient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Service(ctx context.Context, id uuid.UUID) (*model.Service, error)
	ClinicByName(ctx context.Context, name string) (*model.Clinic, error)
	ClinicianByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Clinician, error)
	PatientByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Patient, error)
	ServiceByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Service, error)
	RegisterPatient(ctx context.Context, patient *model.Patient, clinicID uuid.UUID) error
}

type Biller interface {
	BillAppointment(ctx context.Context, apt *model.Appointment, svc *model.Service) (*model.Bill, error)
}

type HistoryRecorder interface {
	RecordVisit(ctx context.Context, apt *model.Appointment, clinic *model.Clinic, svc *model.Service, doctor *model.Clinician) (*model.MedicalRecord, error)
}

type Auditor interface {
	Log(ctx context.Context, actorID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{})
}

// Decision is asked whether an alternative slot is acceptable. It runs while
// the doctor's schedule is locked and must not block.
type Decision func(ctx context.Context, offered time.Time) bool

// AcceptAlternative returns a Decision with a fixed answer.
func AcceptAlternative(accept bool) Decision {
	return func(context.Context, time.Time) bool { return accept }
}

type ScheduleRequest struct {
	Patient        *model.Patient
	Doctor         *model.Clinician
	Clinic         *model.Clinic
	Service        *model.Service
	RequestedStart time.Time
	// Decide is consulted when the requested start is taken. Nil declines.
	Decide  Decision
	ActorID string
}

type Booking struct {
	Appointment  *model.Appointment  `json:"appointment"`
	ActualStart  time.Time           `json:"actual_start"`
	Rescheduled  bool                `json:"rescheduled"`
	Bill         *model.Bill         `json:"bill,omitempty"`
	HistoryEntry *model.MedicalRecord `json:"history_entry,omitempty"`
	// Warnings lists side effects that failed after the booking committed.
	Warnings []string `json:"warnings,omitempty"`
}

type SlotOffer struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Rescheduled bool      `json:"rescheduled"`
}

type Config struct {
	Window   OperatingWindow
	Step     time.Duration
	Location *time.Location
}

// scheduledEvent is the outbox payload for a committed booking.
type scheduledEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	ClinicianID   uuid.UUID `json:"clinician_id"`
	ClinicID      uuid.UUID `json:"clinic_id"`
	ServiceID     uuid.UUID `json:"service_id"`
	StartTime     time.Time `json:"start_time"`
	Duration      int       `json:"duration_minutes"`
}

type Service struct {
	repo      repository.AppointmentRepository
	directory Directory
	billing   Biller
	history   HistoryRecorder
	auditor   Auditor
	store     *Store
	avail     *Availability
	finder    *SlotFinder
	locks     *doctorLocks
	loc       *time.Location
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	directory Directory,
	billing Biller,
	history HistoryRecorder,
	auditor Auditor,
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if cfg.Window == (OperatingWindow{}) {
		cfg.Window = DefaultWindow
	}
	store := NewStore(loc)
	avail := NewAvailability(store)
	return &Service{
		repo:      repo,
		directory: directory,
		billing:   billing,
		history:   history,
		auditor:   auditor,
		store:     store,
		avail:     avail,
		finder:    NewSlotFinder(avail, cfg.Window, cfg.Step, loc),
		locks:     newDoctorLocks(),
		loc:       loc,
		logger:    log,
		metrics:   m,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock used for bill, history and audit stamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Rebuild reloads the in-memory store from the database.
func (s *Service) Rebuild(ctx context.Context) error {
	apts, err := s.repo.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load appointments: %w", err)
	}
	s.store.Load(apts)
	s.metrics.StoredAppointments.Set(float64(s.store.Len()))
	s.logger.Info("appointment store rebuilt", "appointments", s.store.Len())
	return nil
}

// Schedule books req.Patient with req.Doctor at the requested time, or at the
// next free slot that day if req.Decide accepts it. A *RejectionError is
// returned when nothing was committed.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Booking, error) {
	if err := validate(req); err != nil {
		return nil, s.rejected(err)
	}

	apt, rescheduled, err := s.reserve(ctx, req)
	if err != nil {
		return nil, s.rejected(err)
	}
	s.metrics.BookingsTotal.WithLabelValues("booked").Inc()

	booking := &Booking{
		Appointment: apt,
		ActualStart: apt.StartTime,
		Rescheduled: rescheduled,
	}

	// The booking stands from here on; side effects must not be cut short
	// by the caller going away.
	ctx = context.WithoutCancel(ctx)

	bill, err := s.billing.BillAppointment(ctx, apt, req.Service)
	if err != nil {
		booking.Warnings = append(booking.Warnings, s.sideEffectFailed("billing", apt, err))
	}
	booking.Bill = bill

	record, err := s.history.RecordVisit(ctx, apt, req.Clinic, req.Service, req.Doctor)
	if err != nil {
		booking.Warnings = append(booking.Warnings, s.sideEffectFailed("medical_history", apt, err))
	}
	booking.HistoryEntry = record

	s.auditor.Log(ctx, req.ActorID, model.AuditActionSchedule, model.AuditEntityAppointment, apt.ID, map[string]interface{}{
		"clinician_id": apt.ClinicianID,
		"patient_id":   apt.PatientID,
		"start_time":   apt.StartTime,
		"rescheduled":  rescheduled,
	})

	return booking, nil
}

// reserve finds and commits the slot under the doctor's lock.
func (s *Service) reserve(ctx context.Context, req ScheduleRequest) (*model.Appointment, bool, error) {
	duration := req.Service.Duration()

	unlock := s.locks.lock(req.Doctor.ID)
	defer unlock()

	slot, ok := s.findSlot(req.Doctor.ID, req.Clinic.ID, req.RequestedStart, duration)
	if !ok {
		return nil, false, reject(ReasonNoAvailability, ErrNoAvailability)
	}

	rescheduled := !slot.Equal(s.normalize(req.RequestedStart))
	if rescheduled && (req.Decide == nil || !req.Decide(ctx, slot)) {
		offered := slot
		return nil, false, &RejectionError{Reason: ReasonDeclined, Offered: &offered, Err: ErrDeclined}
	}

	apt := &model.Appointment{
		ID:              uuid.New(),
		PatientID:       req.Patient.ID,
		ClinicianID:     req.Doctor.ID,
		ClinicID:        req.Clinic.ID,
		ServiceID:       req.Service.ID,
		StartTime:       slot,
		DurationMinutes: req.Service.DurationMinutes,
		Status:          model.AppointmentStatusScheduled,
		CreatedAt:       s.now(),
	}

	event, err := model.NewOutboxEvent(model.EventAppointmentScheduled, scheduledEvent{
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		ClinicianID:   apt.ClinicianID,
		ClinicID:      apt.ClinicID,
		ServiceID:     apt.ServiceID,
		StartTime:     apt.StartTime,
		Duration:      apt.DurationMinutes,
	}, apt.CreatedAt)
	if err != nil {
		return nil, false, reject(ReasonPersistenceFailure, err)
	}

	if err := s.repo.CreateWithEvent(ctx, apt, event); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("create_appointment", "error").Inc()
		s.logger.WithContext(ctx).Error(err, "failed to persist appointment",
			"clinician_id", apt.ClinicianID.String(),
			"start_time", apt.StartTime)
		return nil, false, reject(ReasonPersistenceFailure, err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("create_appointment", "success").Inc()

	s.store.Add(*apt)
	s.metrics.StoredAppointments.Set(float64(s.store.Len()))
	return apt, rescheduled, nil
}

func (s *Service) findSlot(doctorID, clinicID uuid.UUID, requested time.Time, duration time.Duration) (time.Time, bool) {
	timer := prometheus.NewTimer(s.metrics.SlotSearchDuration)
	defer timer.ObserveDuration()

	slot, steps, ok := s.finder.search(doctorID, requested, duration)
	s.metrics.SlotSearchSteps.Observe(float64(steps))
	return slot, ok
}

// normalize drops seconds the same way the slot search does.
func (s *Service) normalize(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, s.loc)
}

func (s *Service) sideEffectFailed(effect string, apt *model.Appointment, err error) string {
	s.metrics.SideEffectFailures.WithLabelValues(effect).Inc()
	s.logger.Error(err, "post-booking side effect failed",
		"effect", effect,
		"appointment_id", apt.ID.String())
	return fmt.Sprintf("%s: %v", effect, err)
}

func (s *Service) rejected(err error) error {
	var rej *RejectionError
	if errors.As(err, &rej) {
		s.metrics.BookingsTotal.WithLabelValues(string(rej.Reason)).Inc()
	}
	return err
}

func validate(req ScheduleRequest) error {
	switch {
	case req.Patient == nil:
		return reject(ReasonInvalidInput, errors.New("patient is required"))
	case req.Doctor == nil:
		return reject(ReasonInvalidInput, errors.New("clinician is required"))
	case req.Clinic == nil:
		return reject(ReasonInvalidInput, errors.New("clinic is required"))
	case req.Service == nil:
		return reject(ReasonInvalidInput, errors.New("service is required"))
	case req.RequestedStart.IsZero():
		return reject(ReasonInvalidInput, errors.New("start time is required"))
	case req.Doctor.ClinicID != req.Clinic.ID:
		return reject(ReasonInvalidInput, fmt.Errorf("clinician %s does not work at clinic %s", req.Doctor.Name, req.Clinic.Name))
	case req.Service.ClinicID != req.Clinic.ID:
		return reject(ReasonInvalidInput, fmt.Errorf("service %s is not offered by clinic %s", req.Service.Name, req.Clinic.Name))
	case req.Service.DurationMinutes <= 0:
		return reject(ReasonInvalidDuration, ErrInvalidDuration)
	}
	return nil
}

// Book schedules using entity IDs.
func (s *Service) Book(ctx context.Context, req *model.CreateAppointmentRequest, actorID string) (*Booking, error) {
	sreq, err := s.resolveIDs(ctx, req.PatientID, req.ClinicianID, req.ClinicID, req.ServiceID)
	if err != nil {
		return nil, s.rejected(err)
	}
	sreq.RequestedStart = req.StartTime
	sreq.Decide = AcceptAlternative(req.AcceptAlternative)
	sreq.ActorID = actorID
	return s.Schedule(ctx, sreq)
}

// ScheduleByNames resolves clinic, clinician, service and patient by name
// within the clinic, ignoring case. An unknown patient is registered with
// the clinic when the request carries a personal ID.
func (s *Service) ScheduleByNames(ctx context.Context, req *model.ScheduleByNameRequest, actorID string) (*Booking, error) {
	clinic, err := s.directory.ClinicByName(ctx, req.ClinicName)
	if err != nil {
		return nil, s.rejected(lookupFailed("clinic", err))
	}
	doctor, err := s.directory.ClinicianByName(ctx, clinic.ID, req.ClinicianName)
	if err != nil {
		return nil, s.rejected(lookupFailed("clinician", err))
	}
	svc, err := s.directory.ServiceByName(ctx, clinic.ID, req.ServiceName)
	if err != nil {
		return nil, s.rejected(lookupFailed("service", err))
	}

	patient, err := s.directory.PatientByName(ctx, clinic.ID, req.PatientName)
	if err != nil {
		if !isNotFound(err) || req.PersonalID == "" {
			return nil, s.rejected(lookupFailed("patient", err))
		}
		patient, err = s.registerPatient(ctx, req, clinic, actorID)
		if err != nil {
			return nil, err
		}
	}

	return s.Schedule(ctx, ScheduleRequest{
		Patient:        patient,
		Doctor:         doctor,
		Clinic:         clinic,
		Service:        svc,
		RequestedStart: req.StartTime,
		Decide:         AcceptAlternative(req.AcceptAlternative),
		ActorID:        actorID,
	})
}

func (s *Service) registerPatient(ctx context.Context, req *model.ScheduleByNameRequest, clinic *model.Clinic, actorID string) (*model.Patient, error) {
	patient := &model.Patient{
		Base:              model.NewBase(s.now()),
		PersonalID:        req.PersonalID,
		Name:              req.PatientName,
		Email:             req.Email,
		Phone:             req.Phone,
		InsuranceProvider: req.InsuranceProvider,
	}
	if err := s.directory.RegisterPatient(ctx, patient, clinic.ID); err != nil {
		return nil, fmt.Errorf("failed to register patient: %w", err)
	}
	s.logger.WithContext(ctx).Info("registered new patient while booking",
		"patient_id", patient.ID.String(),
		"clinic_id", clinic.ID.String())
	s.auditor.Log(ctx, actorID, model.AuditActionRegister, model.AuditEntityPatient, patient.ID, map[string]interface{}{
		"clinic_id": clinic.ID,
	})
	return patient, nil
}

// FindSlot answers when the service could be booked, without booking it.
func (s *Service) FindSlot(ctx context.Context, doctorID, clinicID, serviceID uuid.UUID, requestedStart time.Time) (*SlotOffer, error) {
	clinic, err := s.directory.Clinic(ctx, clinicID)
	if err != nil {
		return nil, lookupFailed("clinic", err)
	}
	doctor, err := s.directory.Clinician(ctx, doctorID)
	if err != nil {
		return nil, lookupFailed("clinician", err)
	}
	svc, err := s.directory.Service(ctx, serviceID)
	if err != nil {
		return nil, lookupFailed("service", err)
	}

	// Patient is irrelevant to availability.
	if err := validate(ScheduleRequest{
		Patient:        &model.Patient{},
		Doctor:         doctor,
		Clinic:         clinic,
		Service:        svc,
		RequestedStart: requestedStart,
	}); err != nil {
		return nil, err
	}

	slot, ok := s.findSlot(doctor.ID, clinic.ID, requestedStart, svc.Duration())
	if !ok {
		return nil, reject(ReasonNoAvailability, ErrNoAvailability)
	}
	return &SlotOffer{
		Start:       slot,
		End:         slot.Add(svc.Duration()),
		Rescheduled: !slot.Equal(s.normalize(requestedStart)),
	}, nil
}

// DoctorSchedule returns the doctor's appointments on date's day.
func (s *Service) DoctorSchedule(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.Appointment, error) {
	if _, err := s.directory.Clinician(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.store.ByDoctorOnDay(doctorID, date), nil
}

// Location is the time zone operating hours are expressed in.
func (s *Service) Location() *time.Location {
	return s.store.Location()
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	apts, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return apts, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	return s.List(ctx, &model.AppointmentFilters{ClinicianID: doctorID})
}

func (s *Service) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Appointment, error) {
	return s.List(ctx, &model.AppointmentFilters{ClinicID: clinicID})
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return s.List(ctx, &model.AppointmentFilters{PatientID: patientID})
}

func (s *Service) resolveIDs(ctx context.Context, patientID, doctorID, clinicID, serviceID uuid.UUID) (ScheduleRequest, error) {
	var req ScheduleRequest
	var err error
	if req.Clinic, err = s.directory.Clinic(ctx, clinicID); err != nil {
		return req, lookupFailed("clinic", err)
	}
	if req.Doctor, err = s.directory.Clinician(ctx, doctorID); err != nil {
		return req, lookupFailed("clinician", err)
	}
	if req.Service, err = s.directory.Service(ctx, serviceID); err != nil {
		return req, lookupFailed("service", err)
	}
	if req.Patient, err = s.directory.Patient(ctx, patientID); err != nil {
		return req, lookupFailed("patient", err)
	}
	return req, nil
}

// lookupFailed turns a missing entity into InvalidInput and passes any
// other failure through untouched.
func lookupFailed(entity string, err error) error {
	if isNotFound(err) {
		return reject(ReasonInvalidInput, fmt.Errorf("unknown %s: %w", entity, err))
	}
	return fmt.Errorf("failed to look up %s: %w", entity, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || apperrors.IsNotFound(err)
}
