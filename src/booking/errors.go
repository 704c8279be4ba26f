package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("invalid booking request")
	ErrSpaceNotFound       = errors.New("space not found")
	ErrSlotUnavailable     = errors.New("slot unavailable")
	ErrConstraintViolation = errors.New("space constraint violated")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("reservation not found")
)

// Machine-readable reasons carried by a BookingError.
const (
	ReasonRequired       = "required"
	ReasonEndBeforeStart = "end_before_start"
	ReasonInPast         = "in_past"
	ReasonTooShort       = "too_short"
	ReasonTooLong        = "too_long"
	ReasonDuration       = "duration"
	ReasonHours          = "hours"
	ReasonAdvanceNotice  = "advance_notice"
	ReasonNotOwner       = "not_owner"
	ReasonStarted        = "started"
	ReasonTerminal       = "terminal"
	ReasonOverlap        = "overlap"
)

// BookingError is the single error shape returned by the arbitrator.
// Kind is one of the Err* sentinels and is what errors.Is matches against.
type BookingError struct {
	Kind    error
	Reason  string
	Message string
}

func (e *BookingError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Kind
}

func newError(kind error, reason string, format string, args ...any) *BookingError {
	return &BookingError{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the reason of a BookingError anywhere in the chain.
func ReasonOf(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Reason
	}
	return ""
}
