package schedule

import "sort"

// TemplateEntry is one recurring weekly bookable time. The admin screens own
// these rows; the scheduling core only reads them. No two entries share the
// same (Day, Time) pair.
type TemplateEntry struct {
	Day  DayOfWeek
	Time TimeOfDay
	Note string
}

// TemplateSlot is a bookable time resolved for a concrete weekday.
type TemplateSlot struct {
	Time TimeOfDay
	Note string
}

// SlotsForWeekday returns the template slots for the given weekday in
// ascending time order. Pure and deterministic; an empty result means the
// salon has no service hours that day, not an error.
func SlotsForWeekday(entries []TemplateEntry, day DayOfWeek) []TemplateSlot {
	var slots []TemplateSlot
	for _, e := range entries {
		if e.Day == day {
			slots = append(slots, TemplateSlot{Time: e.Time, Note: e.Note})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time.Before(slots[j].Time) })
	return slots
}
