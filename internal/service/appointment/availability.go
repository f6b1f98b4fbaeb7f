package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// overlapUnit is the finest scheduling granularity.
const overlapUnit = time.Minute

// Availability answers whether a doctor is free for a given span.
type Availability struct {
	store *Store
}

func NewAvailability(store *Store) *Availability {
	return &Availability{store: store}
}

// overlaps reports whether [cs, ce) collides with [es, ee). A candidate may
// start exactly when an existing appointment ends but may not end exactly
// when one starts.
func overlaps(cs, ce, es, ee time.Time) bool {
	return !ce.Before(es) && !cs.After(ee.Add(-overlapUnit))
}

func (a *Availability) IsFree(doctorID uuid.UUID, start time.Time, duration time.Duration) bool {
	end := start.Add(duration)
	for _, existing := range a.store.ByDoctorOnDay(doctorID, start) {
		if overlaps(start, end, existing.StartTime, existing.EndTime()) {
			return false
		}
	}
	return true
}

// Occupied returns the doctor's booked intervals on date, in order.
func (a *Availability) Occupied(doctorID uuid.UUID, date time.Time) []model.TimeSlot {
	apts := a.store.ByDoctorOnDay(doctorID, date)
	slots := make([]model.TimeSlot, 0, len(apts))
	for _, apt := range apts {
		slots = append(slots, model.TimeSlot{Start: apt.StartTime, End: apt.EndTime()})
	}
	return slots
}
