package schedule

import (
	"errors"
	"fmt"
)

// ErrSlotUnavailable is the normal business outcome when the recheck finds a
// slot gone between display and commit. Callers must send the user back to
// slot selection; they must never proceed with the write.
var ErrSlotUnavailable = errors.New("schedule: slot no longer available")

// ErrBookingConflict is the residual race: the store's uniqueness guard
// rejected a write even though the recheck passed. Surfaced to users the same
// way as ErrSlotUnavailable.
var ErrBookingConflict = errors.New("schedule: concurrent booking conflict")

// ErrRangeTooWide rejects availability queries spanning more than
// MaxRangeDays. The result carries one entry per calendar day, so the range
// bounds the allocation.
var ErrRangeTooWide = errors.New("schedule: availability range too wide")

// DataAccessError wraps any failure reading template, appointment or blocked
// rows. Availability is unknown in that case, never "empty"; handlers must
// not render a failed fetch as a fully booked day.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("schedule: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// RescheduleDeniedError carries the business rule that rejected a reschedule.
type RescheduleDeniedError struct {
	Reason RescheduleDenial
}

func (e *RescheduleDeniedError) Error() string {
	return "schedule: reschedule denied: " + string(e.Reason)
}
