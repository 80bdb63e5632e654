package availability

import "strings"

// IsDateAvailable reports whether date can be offered at all.
//
// No availability (or no weekly hours) means always bookable. Once weekly
// hours exist, a weekday without an entry is closed. A date override wins over
// the weekly rule in both directions; an override or weekday marked available
// but without ranges counts as unavailable.
func IsDateAvailable(date Date, a *Availability) bool {
	if a == nil || len(a.WeeklyHours) == 0 {
		return true
	}
	ranges, ok := rangesFor(date, a)
	return ok && len(ranges) > 0
}

// rangesFor resolves the ranges that apply to date. ok is false when the date
// is explicitly or implicitly closed.
func rangesFor(date Date, a *Availability) ([]TimeRange, bool) {
	if o := findOverride(date, a.DateOverrides); o != nil {
		return o.TimeRanges, o.IsAvailable
	}
	day := findWeekday(DayName(date.Weekday()), a.WeeklyHours)
	if day == nil {
		return nil, false
	}
	return day.TimeRanges, day.IsAvailable
}

// findOverride returns the first override for date; later duplicates are ignored.
func findOverride(date Date, overrides []DateOverride) *DateOverride {
	key := date.String()
	for i := range overrides {
		if strings.TrimSpace(overrides[i].Date) == key {
			return &overrides[i]
		}
	}
	return nil
}

func findWeekday(name string, weekly []WeeklyHours) *WeeklyHours {
	for i := range weekly {
		if strings.EqualFold(strings.TrimSpace(weekly[i].Day), name) {
			return &weekly[i]
		}
	}
	return nil
}
