// Package appointments owns the appointment lifecycle and the race-safe
// commit protocol around slot occupancy.
package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/lunanails/booking-api/internal/schedule"
)

// Status is the appointment lifecycle state.
type Status string

const (
	// StatusPending is a not-yet-paid hold. It does not occupy a slot.
	StatusPending Status = "pending"
	// StatusScheduled is a paid, confirmed appointment. Occupies its slot.
	StatusScheduled Status = "scheduled"
	// StatusCompleted is a rendered service. Still occupies its slot.
	StatusCompleted Status = "completed"
	// StatusCancelled releases the slot. Terminal.
	StatusCancelled Status = "cancelled"
)

// Occupies reports whether an appointment in this status holds its slot
// against other bookings.
func (s Status) Occupies() bool {
	return s == StatusScheduled || s == StatusCompleted
}

// Appointment is one booked (or held) salon visit.
type Appointment struct {
	ID             uuid.UUID           `json:"id"`
	ClientName     string              `json:"client_name"`
	ClientEmail    string              `json:"client_email"`
	ClientPhone    string              `json:"client_phone,omitempty"`
	Service        string              `json:"service"`
	DesignImageKey string              `json:"design_image_key,omitempty"`
	ScheduledDate  schedule.Date       `json:"scheduled_date"`
	ScheduledTime  schedule.TimeOfDay  `json:"scheduled_time"`
	Status         Status              `json:"status"`
	IsRescheduled  bool                `json:"is_rescheduled"`
	PaymentRef     string              `json:"payment_ref,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Slot returns the slot this appointment targets.
func (a *Appointment) Slot() schedule.SlotKey {
	return schedule.SlotKey{Date: a.ScheduledDate, Time: a.ScheduledTime}
}
