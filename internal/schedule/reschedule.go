package schedule

import "time"

// Reschedule policy. An appointment may be moved at most once, never when it
// sits in the blackout month, and only with enough lead time left on the
// original slot.
const RescheduleMinLeadDays = 3

// December reschedules are shut off entirely; holiday demand means a freed
// slot would go unsold, so clients book a new appointment instead.
const RescheduleBlackoutMonth = time.December

// RescheduleDenial names the rule that blocked a reschedule.
type RescheduleDenial string

const (
	DenialAlreadyRescheduled RescheduleDenial = "already_rescheduled"
	DenialBlackoutMonth      RescheduleDenial = "blackout_month"
	DenialInsufficientLead   RescheduleDenial = "insufficient_lead_time"

	// DenialNotConfirmed is enforced at the store, not by CanReschedule:
	// only confirmed (scheduled) appointments can be moved.
	DenialNotConfirmed RescheduleDenial = "not_confirmed"
)

// CanReschedule decides whether an appointment scheduled on the given date may
// be moved. Pure: today must be derived from the server clock by the caller
// (DateOf with the salon timezone), never read here.
//
// All rules must hold: the appointment has not been rescheduled before, its
// current month is not the blackout month, and the scheduled date is at least
// RescheduleMinLeadDays calendar days away.
func CanReschedule(scheduled Date, isRescheduled bool, today Date) (bool, RescheduleDenial) {
	if isRescheduled {
		return false, DenialAlreadyRescheduled
	}
	if scheduled.Month == RescheduleBlackoutMonth {
		return false, DenialBlackoutMonth
	}
	if today.DaysUntil(scheduled) < RescheduleMinLeadDays {
		return false, DenialInsufficientLead
	}
	return true, ""
}
