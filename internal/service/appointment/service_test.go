package appointment

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func TestScheduleRequestedSlotFree(t *testing.T) {
	f := newFixture()

	booking, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)

	assert.Equal(t, at(9, 0), booking.ActualStart)
	assert.False(t, booking.Rescheduled)
	assert.Empty(t, booking.Warnings)
	assert.Equal(t, 30, booking.Appointment.DurationMinutes)

	assert.Equal(t, 1, f.repo.count())
	require.Len(t, f.repo.events, 1)
	assert.Equal(t, model.EventAppointmentScheduled, f.repo.events[0].EventType)

	require.Len(t, f.biller.bills, 1)
	assert.True(t, f.cleaning.Price.Equal(f.biller.bills[0].Amount))
	assert.Equal(t, booking.Appointment.ID, f.biller.bills[0].AppointmentID)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, testDay, f.history.records[0].VisitDate)
	assert.Equal(t, booking.Appointment.ID, f.history.records[0].AppointmentID)

	assert.Equal(t, []string{"commit", "bill", "history"}, f.log.list())
	assert.Equal(t, []string{"appointment:schedule"}, f.auditor.actions)

	schedule, err := f.svc.DoctorSchedule(context.Background(), f.john.ID, at(0, 0))
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, booking.Appointment.ID, schedule[0].ID)
}

func TestScheduleTakenSlotWithoutDecisionIsDeclined(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)

	_, err = f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.ErrorIs(t, err, ErrDeclined)

	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	require.NotNil(t, rej.Offered)
	assert.Equal(t, at(9, 30), *rej.Offered)

	assert.Equal(t, 1, f.repo.count())
	assert.Len(t, f.biller.bills, 1)
	assert.Len(t, f.history.records, 1)
}

func TestScheduleDecisionSeesOfferedSlot(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)

	var offered time.Time
	decline := func(_ context.Context, slot time.Time) bool {
		offered = slot
		return false
	}
	_, err = f.svc.Schedule(context.Background(), f.request(f.john, f.checkup, at(9, 10), decline))
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, at(9, 30), offered)
	assert.Equal(t, 1, f.repo.count())
}

func TestScheduleAcceptedAlternative(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)

	booking, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), AcceptAlternative(true)))
	require.NoError(t, err)
	assert.True(t, booking.Rescheduled)
	assert.Equal(t, at(9, 30), booking.ActualStart)
	assert.Equal(t, 2, f.repo.count())
}

func TestScheduleOtherDoctorUnaffected(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)

	booking, err := f.svc.Schedule(context.Background(), f.request(f.alice, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), booking.ActualStart)
}

func TestScheduleNoAvailability(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(19, 45), AcceptAlternative(true)))
	assert.ErrorIs(t, err, ErrNoAvailability)
	assert.Zero(t, f.repo.count())
	assert.Empty(t, f.log.list())
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture()
	otherClinic := &model.Clinic{Base: model.NewBase(testDay), Name: "Healthy Teeth"}
	visiting := &model.Clinician{Base: model.NewBase(testDay), ClinicID: otherClinic.ID, Name: "Dr. Visiting"}
	foreignService := &model.Service{Base: model.NewBase(testDay), ClinicID: otherClinic.ID, Name: "Whitening", DurationMinutes: 40}
	zero := *f.cleaning
	zero.DurationMinutes = 0
	negative := *f.cleaning
	negative.DurationMinutes = -5

	tests := []struct {
		name   string
		mutate func(*ScheduleRequest)
		want   error
	}{
		{"missing patient", func(r *ScheduleRequest) { r.Patient = nil }, ErrInvalidInput},
		{"missing doctor", func(r *ScheduleRequest) { r.Doctor = nil }, ErrInvalidInput},
		{"missing clinic", func(r *ScheduleRequest) { r.Clinic = nil }, ErrInvalidInput},
		{"missing service", func(r *ScheduleRequest) { r.Service = nil }, ErrInvalidInput},
		{"missing start", func(r *ScheduleRequest) { r.RequestedStart = time.Time{} }, ErrInvalidInput},
		{"doctor at another clinic", func(r *ScheduleRequest) { r.Doctor = visiting }, ErrInvalidInput},
		{"service from another clinic", func(r *ScheduleRequest) { r.Service = foreignService }, ErrInvalidInput},
		{"zero duration", func(r *ScheduleRequest) { r.Service = &zero }, ErrInvalidDuration},
		{"negative duration", func(r *ScheduleRequest) { r.Service = &negative }, ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(f.john, f.cleaning, at(9, 0), AcceptAlternative(true))
			tt.mutate(&req)

			_, err := f.svc.Schedule(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.repo.count())
}

func TestSchedulePersistenceFailureLeavesStoreUntouched(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errBoom

	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, errBoom)

	schedule, err := f.svc.DoctorSchedule(context.Background(), f.john.ID, at(0, 0))
	require.NoError(t, err)
	assert.Empty(t, schedule)
	assert.Empty(t, f.biller.bills)
	assert.Empty(t, f.history.records)

	// The slot is still available once the database recovers.
	f.repo.createErr = nil
	booking, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), booking.ActualStart)
}

func TestScheduleSideEffectFailuresAreWarnings(t *testing.T) {
	f := newFixture()
	f.biller.err = errBoom

	booking, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)
	require.Len(t, booking.Warnings, 1)
	assert.Contains(t, booking.Warnings[0], "billing")
	assert.Nil(t, booking.Bill)
	assert.NotNil(t, booking.HistoryEntry)
	assert.Equal(t, []string{"commit", "bill", "history"}, f.log.list())

	_, err = f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestScheduleCommittedAppointmentsNeverOverlap(t *testing.T) {
	f := newFixture()
	rng := rand.New(rand.NewSource(42))
	doctors := []*model.Clinician{f.john, f.alice}
	services := []*model.Service{f.cleaning, f.checkup}

	for i := 0; i < 300; i++ {
		start := at(6, 0).Add(time.Duration(rng.Intn(15*60)) * time.Minute)
		req := f.request(doctors[rng.Intn(2)], services[rng.Intn(2)], start, AcceptAlternative(rng.Intn(4) > 0))
		_, err := f.svc.Schedule(context.Background(), req)
		if err != nil {
			require.True(t, errors.Is(err, ErrNoAvailability) || errors.Is(err, ErrDeclined), err)
		}
	}

	apts, err := f.svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, apts)
	assertNoOverlaps(t, apts)

	for _, d := range doctors {
		schedule, err := f.svc.DoctorSchedule(context.Background(), d.ID, at(0, 0))
		require.NoError(t, err)
		for i := 1; i < len(schedule); i++ {
			assert.True(t, schedule[i-1].StartTime.Before(schedule[i].StartTime))
		}
		for _, apt := range schedule {
			assert.False(t, apt.StartTime.Before(at(8, 0)))
			assert.False(t, apt.EndTime().After(at(20, 0)))
		}
	}
}

func assertNoOverlaps(t *testing.T, apts []*model.Appointment) {
	t.Helper()
	byDoctor := make(map[uuid.UUID][]*model.Appointment)
	for _, apt := range apts {
		byDoctor[apt.ClinicianID] = append(byDoctor[apt.ClinicianID], apt)
	}
	for _, list := range byDoctor {
		sort.Slice(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i].StartTime.Before(list[i-1].EndTime()),
				"%s overlaps %s", list[i].StartTime, list[i-1].StartTime)
		}
	}
}

func TestConcurrentBookingsSameDoctorWithoutAlternatives(t *testing.T) {
	f := newFixture()
	const workers = 20

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var rej *RejectionError
		require.ErrorAs(t, err, &rej)
		if rej.Reason == ReasonDeclined {
			require.NotNil(t, rej.Offered)
			assert.NotEqual(t, at(9, 0), *rej.Offered)
		} else {
			assert.Equal(t, ReasonNoAvailability, rej.Reason)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.repo.count())
}

func TestConcurrentBookingsSameDoctorAcceptingAlternatives(t *testing.T) {
	f := newFixture()
	const workers = 20

	var wg sync.WaitGroup
	starts := make(chan time.Time, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			booking, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), AcceptAlternative(true)))
			if assert.NoError(t, err) {
				starts <- booking.ActualStart
			}
		}()
	}
	wg.Wait()
	close(starts)

	atRequested := 0
	seen := make(map[time.Time]bool)
	for s := range starts {
		assert.False(t, seen[s], "slot %s booked twice", s)
		seen[s] = true
		if s.Equal(at(9, 0)) {
			atRequested++
		}
	}
	assert.Equal(t, 1, atRequested)
	assert.Len(t, seen, workers)

	apts, err := f.svc.ListByDoctor(context.Background(), f.john.ID)
	require.NoError(t, err)
	assertNoOverlaps(t, apts)
}

func TestScheduleByNames(t *testing.T) {
	f := newFixture()

	booking, err := f.svc.ScheduleByNames(context.Background(), &model.ScheduleByNameRequest{
		ClinicName:    "smile clinic",
		ClinicianName: "DR. JOHN",
		ServiceName:   "cleaning",
		PatientName:   "ana",
		StartTime:     at(10, 0),
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, f.ana.ID, booking.Appointment.PatientID)
	assert.Equal(t, f.john.ID, booking.Appointment.ClinicianID)
	assert.Equal(t, f.cleaning.ID, booking.Appointment.ServiceID)
}

func TestScheduleByNamesRegistersUnknownPatient(t *testing.T) {
	f := newFixture()

	booking, err := f.svc.ScheduleByNames(context.Background(), &model.ScheduleByNameRequest{
		ClinicName:    "Smile Clinic",
		ClinicianName: "Dr. Alice",
		ServiceName:   "Checkup",
		PatientName:   "Mihai",
		StartTime:     at(10, 0),
		PersonalID:    "1850505",
		Email:         "mihai@example.com",
	}, "tester")
	require.NoError(t, err)

	patient, err := f.directory.PatientByName(context.Background(), f.clinic.ID, "mihai")
	require.NoError(t, err)
	assert.Equal(t, patient.ID, booking.Appointment.PatientID)
	assert.Equal(t, "1850505", patient.PersonalID)
	assert.Contains(t, f.auditor.actions, "patient:register")
}

func TestScheduleByNamesUnknownEntities(t *testing.T) {
	f := newFixture()
	base := model.ScheduleByNameRequest{
		ClinicName:    "Smile Clinic",
		ClinicianName: "Dr. John",
		ServiceName:   "Cleaning",
		PatientName:   "Ana",
		StartTime:     at(10, 0),
	}

	tests := []struct {
		name   string
		mutate func(*model.ScheduleByNameRequest)
	}{
		{"clinic", func(r *model.ScheduleByNameRequest) { r.ClinicName = "Nowhere" }},
		{"clinician", func(r *model.ScheduleByNameRequest) { r.ClinicianName = "Dr. Who" }},
		{"service", func(r *model.ScheduleByNameRequest) { r.ServiceName = "Surgery" }},
		{"patient without registration details", func(r *model.ScheduleByNameRequest) { r.PatientName = "Stranger" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.svc.ScheduleByNames(context.Background(), &req, "tester")
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Zero(t, f.repo.count())
}

func TestBookByIDs(t *testing.T) {
	f := newFixture()

	booking, err := f.svc.Book(context.Background(), &model.CreateAppointmentRequest{
		PatientID:   f.ana.ID,
		ClinicianID: f.alice.ID,
		ClinicID:    f.clinic.ID,
		ServiceID:   f.checkup.ID,
		StartTime:   at(11, 0),
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, 25, booking.Appointment.DurationMinutes)

	_, err = f.svc.Book(context.Background(), &model.CreateAppointmentRequest{
		PatientID:   uuid.New(),
		ClinicianID: f.alice.ID,
		ClinicID:    f.clinic.ID,
		ServiceID:   f.checkup.ID,
		StartTime:   at(11, 0),
	}, "tester")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFindSlotQuery(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)

	offer, err := f.svc.FindSlot(context.Background(), f.john.ID, f.clinic.ID, f.cleaning.ID, at(9, 0))
	require.NoError(t, err)
	assert.Equal(t, at(9, 30), offer.Start)
	assert.Equal(t, at(10, 0), offer.End)
	assert.True(t, offer.Rescheduled)

	again, err := f.svc.FindSlot(context.Background(), f.john.ID, f.clinic.ID, f.cleaning.ID, at(9, 0))
	require.NoError(t, err)
	assert.Equal(t, offer, again)
	assert.Equal(t, 1, f.repo.count())

	_, err = f.svc.FindSlot(context.Background(), f.john.ID, f.clinic.ID, f.cleaning.ID, at(19, 50))
	assert.ErrorIs(t, err, ErrNoAvailability)
}

func TestRebuildRestoresSchedule(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	require.NoError(t, err)

	restarted := NewService(f.repo, f.directory, f.biller, f.history, f.auditor,
		Config{Location: time.UTC}, f.svc.logger, f.svc.metrics)
	require.NoError(t, restarted.Rebuild(context.Background()))

	_, err = restarted.Schedule(context.Background(), f.request(f.john, f.cleaning, at(9, 0), nil))
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestRejectionErrorMapping(t *testing.T) {
	offered := at(9, 30)
	tests := []struct {
		err    *RejectionError
		status int
		is     error
	}{
		{reject(ReasonInvalidInput, errors.New("unknown clinic")), http.StatusBadRequest, ErrInvalidInput},
		{reject(ReasonInvalidDuration, ErrInvalidDuration), http.StatusBadRequest, ErrInvalidDuration},
		{reject(ReasonNoAvailability, ErrNoAvailability), http.StatusConflict, ErrNoAvailability},
		{&RejectionError{Reason: ReasonDeclined, Offered: &offered, Err: ErrDeclined}, http.StatusConflict, ErrDeclined},
		{reject(ReasonPersistenceFailure, errBoom), http.StatusServiceUnavailable, ErrPersistenceFailure},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Reason), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.ErrorIs(t, tt.err, tt.is)
			assert.Equal(t, tt.err.Reason, tt.err.Details()["reason"])
		})
	}

	declined := &RejectionError{Reason: ReasonDeclined, Offered: &offered, Err: ErrDeclined}
	assert.Equal(t, "alternative slot declined: offered 2025-03-10T09:30:00Z", declined.Error())
	assert.Equal(t, "invalid input: unknown clinic", reject(ReasonInvalidInput, errors.New("unknown clinic")).Error())
}
