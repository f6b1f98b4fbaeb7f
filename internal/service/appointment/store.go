package appointment

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

const dayLayout = "2006-01-02"

// Store is the in-memory set of booked appointments, indexed by doctor and
// calendar day. Reads return copies.
type Store struct {
	mu    sync.RWMutex
	loc   *time.Location
	byDay map[uuid.UUID]map[string][]model.Appointment
	byID  map[uuid.UUID]struct{}
}

// NewStore creates an empty store. Days are computed in loc.
func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:   loc,
		byDay: make(map[uuid.UUID]map[string][]model.Appointment),
		byID:  make(map[uuid.UUID]struct{}),
	}
}

func (s *Store) dayKey(t time.Time) string {
	return t.In(s.loc).Format(dayLayout)
}

// Add inserts apt. Callers must already have checked it against the
// overlap rule for its doctor.
func (s *Store) Add(apt model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(apt)
}

func (s *Store) addLocked(apt model.Appointment) {
	if _, ok := s.byID[apt.ID]; ok {
		return
	}
	days, ok := s.byDay[apt.ClinicianID]
	if !ok {
		days = make(map[string][]model.Appointment)
		s.byDay[apt.ClinicianID] = days
	}
	key := s.dayKey(apt.StartTime)
	list := days[key]
	i := sort.Search(len(list), func(i int) bool {
		return list[i].StartTime.After(apt.StartTime)
	})
	list = append(list, model.Appointment{})
	copy(list[i+1:], list[i:])
	list[i] = apt
	days[key] = list
	s.byID[apt.ID] = struct{}{}
}

// Load replaces the contents of the store.
func (s *Store) Load(apts []*model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDay = make(map[uuid.UUID]map[string][]model.Appointment)
	s.byID = make(map[uuid.UUID]struct{})
	for _, apt := range apts {
		if apt != nil {
			s.addLocked(*apt)
		}
	}
}

// ByDoctorOnDay returns the doctor's appointments starting on date's
// calendar day, ascending by start.
func (s *Store) ByDoctorOnDay(doctorID uuid.UUID, date time.Time) []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byDay[doctorID][s.dayKey(date)]
	out := make([]model.Appointment, len(list))
	copy(out, list)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) Location() *time.Location {
	return s.loc
}
