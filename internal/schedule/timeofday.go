package schedule

import (
	"fmt"
	"regexp"
)

// TimeOfDay is a slot time in canonical "HH:MM:SS" form. Slots are discrete:
// two times are the same slot only when they match exactly, never by range.
// The zero-padded form makes lexicographic order equal to chronological order.
type TimeOfDay string

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?$`)

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" and returns the canonical
// seconds-padded form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("schedule: invalid time of day %q", s)
	}
	if m[3] == "" {
		return TimeOfDay(s + ":00"), nil
	}
	return TimeOfDay(s), nil
}

func (t TimeOfDay) String() string {
	return string(t)
}

// Valid reports whether t is in canonical HH:MM:SS form.
func (t TimeOfDay) Valid() bool {
	m := timeOfDayPattern.FindStringSubmatch(string(t))
	return m != nil && m[3] != ""
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t < other
}
