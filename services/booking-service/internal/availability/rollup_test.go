package availability

import (
	"reflect"
	"testing"
	"time"
)

func TestMonthDays(t *testing.T) {
	if n := len(MonthDays(2024, time.February)); n != 29 {
		t.Fatalf("expected 29 days, got %d", n)
	}
	if n := len(MonthDays(2026, time.February)); n != 28 {
		t.Fatalf("expected 28 days, got %d", n)
	}
}

func TestFullDates(t *testing.T) {
	a := mondayOnly("UTC", TimeRange{Start: "09:00", End: "10:00"})
	g := GroupMeeting{Enabled: true, MaxGuests: 1}
	occ := OccupancyByDate{
		"2026-01-05": {"09:00": {Count: 1}, "09:30": {Count: 1}},
		"2026-01-12": {"09:00": {Count: 1}},
		// Tuesday is not offerable, so occupancy there is ignored.
		"2026-01-06": {"09:00": {Count: 9}, "09:30": {Count: 9}},
	}

	got := FullDates(2026, time.January, a, occ, g, RollupOptions{IntervalMinutes: 30, Guest: time.UTC})
	want := []string{"2026-01-05"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFullDates_RespectsMinDate(t *testing.T) {
	a := mondayOnly("UTC", TimeRange{Start: "09:00", End: "10:00"})
	g := GroupMeeting{Enabled: true, MaxGuests: 1}
	full := map[string]Occupancy{"09:00": {Count: 1}, "09:30": {Count: 1}}
	occ := OccupancyByDate{"2026-01-05": full, "2026-01-19": full}

	opts := RollupOptions{MinDate: mustDate(t, "2026-01-10"), IntervalMinutes: 30, Guest: time.UTC}
	got := FullDates(2026, time.January, a, occ, g, opts)
	want := []string{"2026-01-19"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFullDates_NonGroupNeverFull(t *testing.T) {
	a := mondayOnly("UTC", TimeRange{Start: "09:00", End: "10:00"})
	occ := OccupancyByDate{"2026-01-05": {"09:00": {Count: 1}, "09:30": {Count: 1}}}

	got := FullDates(2026, time.January, a, occ, GroupMeeting{}, RollupOptions{})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", got)
	}
}

func TestUnavailableDates(t *testing.T) {
	a := mondayOnly("UTC", TimeRange{Start: "09:00", End: "10:00"})
	a.DateOverrides = []DateOverride{{Date: "2026-01-12", IsAvailable: false}}

	got := UnavailableDates(2026, time.January, a, mustDate(t, "2026-01-06"))
	for _, d := range []string{"2026-01-01", "2026-01-05", "2026-01-06", "2026-01-12"} {
		if !containsString(got, d) {
			t.Fatalf("expected %s to be unavailable, got %v", d, got)
		}
	}
	for _, d := range []string{"2026-01-19", "2026-01-26"} {
		if containsString(got, d) {
			t.Fatalf("expected %s to be available, got %v", d, got)
		}
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
