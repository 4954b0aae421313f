package schedule

import (
	"reflect"
	"testing"
)

func TestSlotsForWeekdayOrderedAndStable(t *testing.T) {
	entries := []TemplateEntry{
		{Day: Monday, Time: "13:30:00"},
		{Day: Monday, Time: "09:00:00", Note: "no extensions this slot"},
		{Day: Tuesday, Time: "10:00:00"},
		{Day: Monday, Time: "11:00:00"},
	}

	first := SlotsForWeekday(entries, Monday)
	second := SlotsForWeekday(entries, Monday)

	want := []TemplateSlot{
		{Time: "09:00:00", Note: "no extensions this slot"},
		{Time: "11:00:00"},
		{Time: "13:30:00"},
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("slots mismatch:\n got %+v\nwant %+v", first, want)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated call not identical: %+v vs %+v", first, second)
	}
}

func TestSlotsForWeekdayEmptyDay(t *testing.T) {
	entries := []TemplateEntry{{Day: Monday, Time: "09:00:00"}}
	if got := SlotsForWeekday(entries, Sunday); len(got) != 0 {
		t.Fatalf("expected no slots for closed day, got %+v", got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:00", "09:00:00", false},
		{"09:30:00", "09:30:00", false},
		{"23:59", "23:59:00", false},
		{"24:00", "", true},
		{"9:00", "", true},
		{"09:60", "", true},
		{"garbage", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDateWeekdayAndArithmetic(t *testing.T) {
	d, err := ParseDate("2025-03-03")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Weekday() != Monday {
		t.Fatalf("2025-03-03 should be Monday, got %s", d.Weekday())
	}
	if next := d.AddDays(1); next.String() != "2025-03-04" {
		t.Fatalf("AddDays(1) = %s", next)
	}
	if prev := d.AddDays(-3); prev.String() != "2025-02-28" {
		t.Fatalf("AddDays(-3) = %s, month rollover broken", prev)
	}
	if got := d.DaysUntil(d.AddDays(10)); got != 10 {
		t.Fatalf("DaysUntil = %d, want 10", got)
	}
	if got := d.DaysUntil(d.AddDays(-2)); got != -2 {
		t.Fatalf("DaysUntil backwards = %d, want -2", got)
	}
}
