package appointment

import (
	"sync"

	"github.com/google/uuid"
)

// doctorLocks serialises bookings per doctor. Entries are dropped once no
// goroutine holds or waits on them.
type doctorLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*doctorLock
}

type doctorLock struct {
	mu   sync.Mutex
	refs int
}

func newDoctorLocks() *doctorLocks {
	return &doctorLocks{locks: make(map[uuid.UUID]*doctorLock)}
}

// lock blocks until doctorID is free and returns the matching unlock.
func (l *doctorLocks) lock(doctorID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[doctorID]
	if !ok {
		entry = &doctorLock{}
		l.locks[doctorID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, doctorID)
		}
		l.mu.Unlock()
	}
}

func (l *doctorLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
