package availability

import (
	"sort"
	"time"
)

// RollupOptions carries the caller's policy for a month query.
type RollupOptions struct {
	// MinDate is the first bookable day; earlier days are never reported.
	MinDate         Date
	IntervalMinutes int
	Guest           *time.Location
}

// OccupancyByDate maps an ISO date to the per-slot occupancy of that day.
type OccupancyByDate map[string]map[string]Occupancy

// MonthDays lists every calendar day of the month.
func MonthDays(year int, month time.Month) []Date {
	first := Date{Year: year, Month: month, Day: 1}
	var out []Date
	for d := first; d.Month == month; d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// FullDates returns the sorted ISO dates of month that are offerable but have
// no capacity left. A date that is not offerable is never "full".
func FullDates(year int, month time.Month, a *Availability, occupancy OccupancyByDate, g GroupMeeting, opts RollupOptions) []string {
	full := []string{}
	for _, d := range MonthDays(year, month) {
		if !opts.MinDate.IsZero() && d.Before(opts.MinDate) {
			continue
		}
		if !IsDateAvailable(d, a) {
			continue
		}
		slots := TimeSlots(d, a, opts.IntervalMinutes, opts.Guest)
		if len(slots) == 0 {
			continue
		}
		if len(FilterFullSlots(slots, occupancy[d.String()], g)) == 0 {
			full = append(full, d.String())
		}
	}
	sort.Strings(full)
	return full
}

// UnavailableDates returns the sorted ISO dates of month that are not offerable,
// including days before minDate.
func UnavailableDates(year int, month time.Month, a *Availability, minDate Date) []string {
	out := []string{}
	for _, d := range MonthDays(year, month) {
		if (!minDate.IsZero() && d.Before(minDate)) || !IsDateAvailable(d, a) {
			out = append(out, d.String())
		}
	}
	return out
}
