package availability

import (
	"strings"
	"time"
)

const (
	DefaultIntervalMinutes = 30

	defaultWindowStart = 10 * 60
	defaultWindowEnd   = 19 * 60

	labelLayout = "3:04 PM"
	keyLayout   = "15:04"
)

// Slot is one offered start time. It is recomputed per request and never stored.
type Slot struct {
	Label     string    `json:"label"`
	Time      string    `json:"time"`
	HostTime  string    `json:"host_time"`
	Start     time.Time `json:"start_time"`
	Remaining *int      `json:"remaining,omitempty"`
}

// TimeSlots enumerates the start times offered on date.
//
// Candidates are generated in the host zone, stepping intervalMinutes from each
// range start while a whole interval still fits before the range end, and then
// rendered in the guest zone. Labels that render identically are collapsed to
// the first occurrence. Without weekly hours the 10:00-19:00 host window is used.
func TimeSlots(date Date, a *Availability, intervalMinutes int, guest *time.Location) []Slot {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	host := a.Location()
	if guest == nil {
		guest = host
	}

	var windows [][2]int
	if a == nil || len(a.WeeklyHours) == 0 {
		windows = [][2]int{{defaultWindowStart, defaultWindowEnd}}
	} else {
		ranges, ok := rangesFor(date, a)
		if !ok || len(ranges) == 0 {
			return nil
		}
		for _, tr := range ranges {
			start, okStart := parseClock(tr.Start)
			end, okEnd := parseClock(tr.End)
			if !okStart || !okEnd {
				continue
			}
			windows = append(windows, [2]int{start, end})
		}
	}

	seen := make(map[string]struct{})
	var slots []Slot
	for _, w := range windows {
		for m := w[0]; m+intervalMinutes <= w[1]; m += intervalMinutes {
			instant := time.Date(date.Year, date.Month, date.Day, m/60, m%60, 0, 0, host)
			local := instant.In(guest)
			label := local.Format(labelLayout)
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			slots = append(slots, Slot{
				Label:    label,
				Time:     local.Format(keyLayout),
				HostTime: instant.Format(keyLayout),
				Start:    instant,
			})
		}
	}
	return slots
}

// FormatLabel renders t as the 12-hour label shown to guests.
func FormatLabel(t time.Time) string {
	return t.Format(labelLayout)
}

// LabelToKey converts "1:30 PM" into the 24-hour key "13:30".
func LabelToKey(label string) (string, bool) {
	t, err := time.Parse(labelLayout, strings.TrimSpace(label))
	if err != nil {
		return "", false
	}
	return t.Format(keyLayout), true
}

// OccupancyKey returns the key a booking starting at start occupies for a
// guest viewing in loc.
func OccupancyKey(start time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).Format(keyLayout)
}

// FilterPast drops slots that start before now.
func FilterPast(slots []Slot, now time.Time) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Start.Before(now) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Contains reports whether start is one of the offered instants.
func Contains(slots []Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}
