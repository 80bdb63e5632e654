package availability

import "testing"

func TestIsDateAvailable(t *testing.T) {
	monday := mustDate(t, "2026-01-26")
	tuesday := mustDate(t, "2026-01-27")
	wednesday := mustDate(t, "2026-01-28")

	base := func() *Availability {
		return &Availability{
			Timezone: "UTC",
			WeeklyHours: []WeeklyHours{
				{Day: "monday", IsAvailable: true, TimeRanges: []TimeRange{{Start: "09:00", End: "10:00"}}},
				{Day: "tuesday", IsAvailable: false, TimeRanges: []TimeRange{{Start: "09:00", End: "10:00"}}},
				{Day: "wednesday", IsAvailable: true},
			},
		}
	}

	tests := []struct {
		name      string
		date      Date
		overrides []DateOverride
		want      bool
	}{
		{name: "weekday open", date: monday, want: true},
		{name: "weekday closed", date: tuesday, want: false},
		{name: "open weekday without ranges", date: wednesday, want: false},
		{name: "unconfigured weekday", date: mustDate(t, "2026-01-29"), want: false},
		{
			name:      "override closes open weekday",
			date:      monday,
			overrides: []DateOverride{{Date: "2026-01-26", IsAvailable: false}},
			want:      false,
		},
		{
			name: "override opens closed weekday",
			date: tuesday,
			overrides: []DateOverride{{
				Date: "2026-01-27", IsAvailable: true,
				TimeRanges: []TimeRange{{Start: "13:00", End: "14:00"}},
			}},
			want: true,
		},
		{
			name:      "override open without ranges",
			date:      monday,
			overrides: []DateOverride{{Date: "2026-01-26", IsAvailable: true}},
			want:      false,
		},
		{
			name:      "override for other date ignored",
			date:      monday,
			overrides: []DateOverride{{Date: "2026-02-02", IsAvailable: false}},
			want:      true,
		},
	}

	for _, tc := range tests {
		a := base()
		a.DateOverrides = tc.overrides
		if got := IsDateAvailable(tc.date, a); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsDateAvailable_NoWeeklyHours(t *testing.T) {
	d := mustDate(t, "2026-01-27")
	if !IsDateAvailable(d, nil) {
		t.Fatal("expected nil availability to be bookable")
	}
	if !IsDateAvailable(d, &Availability{Timezone: "UTC"}) {
		t.Fatal("expected empty weekly hours to be bookable")
	}
}

func TestRangesFor_FirstOverrideWins(t *testing.T) {
	a := &Availability{
		WeeklyHours: []WeeklyHours{{Day: "monday", IsAvailable: true, TimeRanges: []TimeRange{{Start: "09:00", End: "10:00"}}}},
		DateOverrides: []DateOverride{
			{Date: "2026-01-26", IsAvailable: true, TimeRanges: []TimeRange{{Start: "15:00", End: "16:00"}}},
			{Date: "2026-01-26", IsAvailable: false},
		},
	}
	ranges, ok := rangesFor(mustDate(t, "2026-01-26"), a)
	if !ok || len(ranges) != 1 || ranges[0].Start != "15:00" {
		t.Fatalf("expected first override ranges, got %v (ok=%v)", ranges, ok)
	}
}
