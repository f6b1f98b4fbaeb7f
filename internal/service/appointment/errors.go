package appointment

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Reason classifies why a booking attempt was rejected.
type Reason string

const (
	ReasonInvalidInput       Reason = "invalid_input"
	ReasonInvalidDuration    Reason = "invalid_duration"
	ReasonNoAvailability     Reason = "no_availability"
	ReasonDeclined           Reason = "declined"
	ReasonPersistenceFailure Reason = "persistence_failure"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidDuration    = errors.New("service duration must be positive")
	ErrNoAvailability     = errors.New("no free slot within operating hours")
	ErrDeclined           = errors.New("alternative slot declined")
	ErrPersistenceFailure = errors.New("appointment could not be persisted")
)

var reasonErrors = map[Reason]error{
	ReasonInvalidInput:       ErrInvalidInput,
	ReasonInvalidDuration:    ErrInvalidDuration,
	ReasonNoAvailability:     ErrNoAvailability,
	ReasonDeclined:           ErrDeclined,
	ReasonPersistenceFailure: ErrPersistenceFailure,
}

// RejectionError is returned for every booking attempt that did not commit.
// Nothing has been written when it is returned.
type RejectionError struct {
	Reason Reason
	// Offered is set for Declined: the slot the caller turned down.
	Offered *time.Time
	Err     error
}

func reject(reason Reason, err error) *RejectionError {
	return &RejectionError{Reason: reason, Err: err}
}

func (e *RejectionError) Error() string {
	base := reasonErrors[e.Reason]
	if base == nil {
		base = errors.New(string(e.Reason))
	}
	switch {
	case e.Offered != nil:
		return fmt.Sprintf("%v: offered %s", base, e.Offered.Format(time.RFC3339))
	case e.Err != nil && e.Err != base:
		return fmt.Sprintf("%v: %v", base, e.Err)
	default:
		return base.Error()
	}
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the rejection reason.
func (e *RejectionError) Is(target error) bool {
	return reasonErrors[e.Reason] == target
}

func (e *RejectionError) StatusCode() int {
	switch e.Reason {
	case ReasonInvalidInput, ReasonInvalidDuration:
		return http.StatusBadRequest
	case ReasonNoAvailability, ReasonDeclined:
		return http.StatusConflict
	case ReasonPersistenceFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (e *RejectionError) Details() map[string]interface{} {
	details := map[string]interface{}{"reason": e.Reason}
	if e.Offered != nil {
		details["offered_start"] = e.Offered
	}
	return details
}
