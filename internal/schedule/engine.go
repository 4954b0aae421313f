package schedule

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MaxRangeDays caps a single availability query. A leap year covers any
// calendar view a client renders; wider ranges are rejected before any day
// is materialized.
const MaxRangeDays = 366

// SlotKey addresses one concrete bookable slot.
type SlotKey struct {
	Date Date
	Time TimeOfDay
}

// Block is an admin-declared exception. A nil Time blocks the entire day and
// supersedes any slot-level blocks that coexist for the same date.
type Block struct {
	Date Date
	Time *TimeOfDay
}

// SlotStatus is one entry of the availability result shown to clients.
type SlotStatus struct {
	Time      TimeOfDay `json:"time"`
	Available bool      `json:"available"`
	Note      string    `json:"note,omitempty"`
}

// TemplateSource lists the weekly slot template.
type TemplateSource interface {
	ListTemplate(ctx context.Context) ([]TemplateEntry, error)
}

// AppointmentSource lists slots held by occupying appointments (status
// scheduled or completed) within a date range, both bounds inclusive.
type AppointmentSource interface {
	ListOccupied(ctx context.Context, from, to Date) ([]SlotKey, error)
}

// BlockSource lists blocked-schedule entries within a date range, both bounds
// inclusive.
type BlockSource interface {
	ListBlocks(ctx context.Context, from, to Date) ([]Block, error)
}

// Engine computes slot availability by merging the weekly template with
// occupying appointments and blocked-schedule entries. It is read-only and
// holds no state across calls; every invocation re-reads the shared data.
type Engine struct {
	templates    TemplateSource
	appointments AppointmentSource
	blocks       BlockSource
}

func NewEngine(templates TemplateSource, appointments AppointmentSource, blocks BlockSource) *Engine {
	if templates == nil || appointments == nil || blocks == nil {
		panic("schedule: engine requires all three sources")
	}
	return &Engine{templates: templates, appointments: appointments, blocks: blocks}
}

// Availability resolves the slot list for every date in [from, to]. today is
// the current date in the salon timezone, passed in by the caller; dates
// strictly before it resolve to an empty slot list (no past-date booking).
//
// The three reads have no ordering dependency and are issued concurrently.
// Any read failure aborts the whole computation with a DataAccessError;
// partial results could present a half-open day as fully bookable.
func (e *Engine) Availability(ctx context.Context, from, to Date, today Date) (map[Date][]SlotStatus, error) {
	if to.Before(from) {
		from, to = to, from
	}
	if from.DaysUntil(to)+1 > MaxRangeDays {
		return nil, ErrRangeTooWide
	}

	var (
		template []TemplateEntry
		occupied []SlotKey
		blocks   []Block
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if template, err = e.templates.ListTemplate(gctx); err != nil {
			return &DataAccessError{Op: "list slot template", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if occupied, err = e.appointments.ListOccupied(gctx, from, to); err != nil {
			return &DataAccessError{Op: "list occupying appointments", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if blocks, err = e.blocks.ListBlocks(gctx, from, to); err != nil {
			return &DataAccessError{Op: "list blocked schedule", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	taken := make(map[SlotKey]struct{}, len(occupied))
	for _, k := range occupied {
		taken[k] = struct{}{}
	}
	dayBlocked := make(map[Date]struct{})
	slotBlocked := make(map[SlotKey]struct{})
	for _, b := range blocks {
		if b.Time == nil {
			dayBlocked[b.Date] = struct{}{}
		} else {
			slotBlocked[SlotKey{Date: b.Date, Time: *b.Time}] = struct{}{}
		}
	}

	result := make(map[Date][]SlotStatus)
	for d := from; !d.After(to); d = d.AddDays(1) {
		if d.Before(today) {
			result[d] = []SlotStatus{}
			continue
		}
		result[d] = resolveDay(template, d, taken, dayBlocked, slotBlocked)
	}
	return result, nil
}

// DayAvailability is Availability for a single date.
func (e *Engine) DayAvailability(ctx context.Context, d Date, today Date) ([]SlotStatus, error) {
	byDate, err := e.Availability(ctx, d, d, today)
	if err != nil {
		return nil, err
	}
	return byDate[d], nil
}

func resolveDay(template []TemplateEntry, d Date, taken map[SlotKey]struct{}, dayBlocked map[Date]struct{}, slotBlocked map[SlotKey]struct{}) []SlotStatus {
	slots := SlotsForWeekday(template, d.Weekday())
	statuses := make([]SlotStatus, 0, len(slots))

	_, wholeDayBlocked := dayBlocked[d]
	for _, s := range slots {
		status := SlotStatus{Time: s.Time, Available: true, Note: s.Note}
		if wholeDayBlocked {
			status.Available = false
		} else {
			key := SlotKey{Date: d, Time: s.Time}
			if _, ok := taken[key]; ok {
				status.Available = false
			}
			if _, ok := slotBlocked[key]; ok {
				status.Available = false
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
