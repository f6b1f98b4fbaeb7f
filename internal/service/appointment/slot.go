package appointment

import (
	"time"

	"github.com/google/uuid"
)

// OperatingWindow bounds bookable time on every day, as offsets from local
// midnight.
type OperatingWindow struct {
	Open  time.Duration
	Close time.Duration
}

// DefaultWindow is 08:00 to 20:00.
var DefaultWindow = OperatingWindow{Open: 8 * time.Hour, Close: 20 * time.Hour}

const DefaultStep = 5 * time.Minute

// SlotFinder scans a day for the earliest start at which a doctor is free.
type SlotFinder struct {
	availability *Availability
	window       OperatingWindow
	step         time.Duration
	loc          *time.Location
}

func NewSlotFinder(availability *Availability, window OperatingWindow, step time.Duration, loc *time.Location) *SlotFinder {
	if step <= 0 {
		step = DefaultStep
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SlotFinder{
		availability: availability,
		window:       window,
		step:         step,
		loc:          loc,
	}
}

// FindSlot returns the earliest free start on requestedStart's day. The scan
// begins at the requested minute, or at opening time if that is later, and
// advances by the configured step. The clinic shares the network-wide
// operating window.
func (f *SlotFinder) FindSlot(doctorID, clinicID uuid.UUID, requestedStart time.Time, duration time.Duration) (time.Time, bool) {
	slot, _, ok := f.search(doctorID, requestedStart, duration)
	return slot, ok
}

// search also reports how many candidates were examined.
func (f *SlotFinder) search(doctorID uuid.UUID, requestedStart time.Time, duration time.Duration) (time.Time, int, bool) {
	if duration <= 0 {
		return time.Time{}, 0, false
	}

	r := requestedStart.In(f.loc)
	open := f.clock(r, f.window.Open)
	closing := f.clock(r, f.window.Close)

	candidate := time.Date(r.Year(), r.Month(), r.Day(), r.Hour(), r.Minute(), 0, 0, f.loc)
	if candidate.Before(open) {
		candidate = open
	}

	steps := 0
	for ; !candidate.Add(duration).After(closing); candidate = candidate.Add(f.step) {
		steps++
		if f.availability.IsFree(doctorID, candidate, duration) {
			return candidate, steps, true
		}
	}
	return time.Time{}, steps, false
}

// clock returns the wall-clock time offset past midnight on day's date.
func (f *SlotFinder) clock(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, f.loc)
}
