package availability

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	raw := []byte(`{
		"note": "office hours",
		"timezone": "Europe/London",
		"weekly_hours": [
			{"day": "Monday", "is_available": true, "time_ranges": [{"start": "09:00", "end": "12:00"}]},
			{"day": "friday", "is_available": false, "time_ranges": []}
		],
		"date_overrides": [
			{"date": "2026-03-02", "is_available": false, "time_ranges": []}
		]
	}`)

	a, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected valid availability, got %v", err)
	}
	if a.WeeklyHours[0].Day != "monday" {
		t.Fatalf("expected day to be normalized, got %q", a.WeeklyHours[0].Day)
	}
	if a.Location().String() != "Europe/London" {
		t.Fatalf("expected Europe/London, got %s", a.Location())
	}
}

func TestParse_DefaultsTimezone(t *testing.T) {
	a, err := Parse([]byte(`{"weekly_hours": []}`))
	if err != nil {
		t.Fatalf("expected valid availability, got %v", err)
	}
	if a.Timezone != "UTC" {
		t.Fatalf("expected UTC, got %q", a.Timezone)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"weekly_hours": [`))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	a := &Availability{
		Timezone: "Mars/Olympus",
		WeeklyHours: []WeeklyHours{
			{Day: "funday", IsAvailable: true},
			{Day: "monday", IsAvailable: true, TimeRanges: []TimeRange{{Start: "9:00", End: "24:00"}}},
			{Day: "MONDAY", IsAvailable: true},
			{Day: "tuesday", IsAvailable: true, TimeRanges: []TimeRange{{Start: "12:00", End: "11:00"}}},
		},
		DateOverrides: []DateOverride{
			{Date: "2026/01/01"},
			{Date: "2026-01-02"},
			{Date: "2026-01-02"},
		},
	}

	err := a.Validate()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	for _, field := range []string{
		"timezone",
		"weekly_hours[0].day",
		"weekly_hours[1].time_ranges[0].start",
		"weekly_hours[1].time_ranges[0].end",
		"weekly_hours[2].day",
		"weekly_hours[3].time_ranges[0]",
		"date_overrides[0].date",
		"date_overrides[2].date",
	} {
		if _, ok := ce.Fields()[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, ce.Fields())
		}
	}
	if !strings.HasPrefix(err.Error(), "invalid availability: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]int{"00:00": 0, "09:30": 570, "23:59": 1439}
	for in, want := range cases {
		got, ok := parseClock(in)
		if !ok || got != want {
			t.Fatalf("parseClock(%q): expected %d, got %d (ok=%v)", in, want, got, ok)
		}
	}
	for _, bad := range []string{"", "9:30", "24:00", "12:60", "12-30", "12:30:00"} {
		if _, ok := parseClock(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestGroupMeetingCapacity(t *testing.T) {
	if got := (GroupMeeting{}).Capacity(); got != 1 {
		t.Fatalf("expected 1 for non-group, got %d", got)
	}
	if got := (GroupMeeting{Enabled: true}).Capacity(); got != 1 {
		t.Fatalf("expected 1 for zero max guests, got %d", got)
	}
	if got := (GroupMeeting{Enabled: true, MaxGuests: 4}).Capacity(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestDate(t *testing.T) {
	d := mustDate(t, "2026-02-28")
	if d.AddDays(1).String() != "2026-03-01" {
		t.Fatalf("expected 2026-03-01, got %s", d.AddDays(1))
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) {
		t.Fatal("unexpected ordering")
	}
	var parsed Date
	if err := parsed.UnmarshalText([]byte("2026-12-31")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if parsed.Weekday().String() != "Thursday" {
		t.Fatalf("expected Thursday, got %s", parsed.Weekday())
	}
}
