package availability

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

var dayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// TimeRange is a host-local wall-clock window, e.g. {"09:00", "12:30"}.
type TimeRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type WeeklyHours struct {
	Day         string      `json:"day" yaml:"day"`
	IsAvailable bool        `json:"is_available" yaml:"is_available"`
	TimeRanges  []TimeRange `json:"time_ranges" yaml:"time_ranges"`
}

// DateOverride replaces the weekly rule for a single calendar date.
type DateOverride struct {
	Date        string      `json:"date" yaml:"date"`
	IsAvailable bool        `json:"is_available" yaml:"is_available"`
	TimeRanges  []TimeRange `json:"time_ranges" yaml:"time_ranges"`
}

// Availability is the host's schedule for one event type. It is read-only for
// the functions in this package.
type Availability struct {
	Note          string         `json:"note,omitempty" yaml:"note,omitempty"`
	WeeklyHours   []WeeklyHours  `json:"weekly_hours" yaml:"weekly_hours"`
	DateOverrides []DateOverride `json:"date_overrides" yaml:"date_overrides"`
	Timezone      string         `json:"timezone" yaml:"timezone"`

	loc *time.Location
}

// Location returns the host zone. Values built by Parse/Validate carry the
// loaded zone; literal values fall back to loading Timezone, then UTC.
func (a *Availability) Location() *time.Location {
	if a == nil {
		return time.UTC
	}
	if a.loc != nil {
		return a.loc
	}
	if tz := strings.TrimSpace(a.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Parse decodes and validates an availability document.
func Parse(raw []byte) (*Availability, error) {
	var a Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, &ConfigError{fields: map[string][]string{"availability": {"invalid json: " + err.Error()}}}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate normalizes day names and the timezone, loads the host location and
// reports every invalid field at once.
func (a *Availability) Validate() error {
	ce := newConfigError()

	a.Timezone = strings.TrimSpace(a.Timezone)
	if a.Timezone == "" {
		a.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		ce.add("timezone", fmt.Sprintf("unknown timezone %q", a.Timezone))
	} else {
		a.loc = loc
	}

	seenDays := map[string]bool{}
	for i := range a.WeeklyHours {
		wh := &a.WeeklyHours[i]
		field := fmt.Sprintf("weekly_hours[%d]", i)
		wh.Day = strings.ToLower(strings.TrimSpace(wh.Day))
		if dayIndex(wh.Day) < 0 {
			ce.add(field+".day", fmt.Sprintf("unknown day %q", wh.Day))
		} else if seenDays[wh.Day] {
			ce.add(field+".day", fmt.Sprintf("duplicate entry for %s", wh.Day))
		}
		seenDays[wh.Day] = true
		validateRanges(ce, field, wh.TimeRanges)
	}

	seenDates := map[string]bool{}
	for i := range a.DateOverrides {
		o := &a.DateOverrides[i]
		field := fmt.Sprintf("date_overrides[%d]", i)
		o.Date = strings.TrimSpace(o.Date)
		if _, err := ParseDate(o.Date); err != nil {
			ce.add(field+".date", fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", o.Date))
		} else if seenDates[o.Date] {
			ce.add(field+".date", fmt.Sprintf("duplicate override for %s", o.Date))
		}
		seenDates[o.Date] = true
		validateRanges(ce, field, o.TimeRanges)
	}

	if ce.Len() > 0 {
		a.loc = nil
		return ce
	}
	return nil
}

func validateRanges(ce *ConfigError, field string, ranges []TimeRange) {
	for j, tr := range ranges {
		f := fmt.Sprintf("%s.time_ranges[%d]", field, j)
		start, okStart := parseClock(tr.Start)
		end, okEnd := parseClock(tr.End)
		if !okStart {
			ce.add(f+".start", fmt.Sprintf("invalid time %q (want HH:MM)", tr.Start))
		}
		if !okEnd {
			ce.add(f+".end", fmt.Sprintf("invalid time %q (want HH:MM)", tr.End))
		}
		if okStart && okEnd && start >= end {
			ce.add(f, fmt.Sprintf("start %s must be before end %s", tr.Start, tr.End))
		}
	}
}

// parseClock returns minutes since midnight for a zero-padded "HH:MM".
func parseClock(s string) (int, bool) {
	if !clockPattern.MatchString(s) {
		return 0, false
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func dayIndex(name string) int {
	for i, d := range dayNames {
		if d == name {
			return i
		}
	}
	return -1
}

// DayName returns the lowercase weekday name used in WeeklyHours.
func DayName(wd time.Weekday) string {
	return dayNames[wd]
}

// GroupMeeting enables several independent guests per slot.
type GroupMeeting struct {
	Enabled            bool `json:"enabled" yaml:"enabled"`
	MaxGuests          int  `json:"max_guests" yaml:"max_guests"`
	ShowRemainingSpots bool `json:"show_remaining_spots" yaml:"show_remaining_spots"`
}

// Capacity is the number of confirmed bookings a single start time accepts.
func (g GroupMeeting) Capacity() int {
	if !g.Enabled {
		return 1
	}
	if g.MaxGuests < 1 {
		return 1
	}
	return g.MaxGuests
}

// Occupancy is what the booking store reports for one slot key on one date.
type Occupancy struct {
	Count  int  `json:"count"`
	IsFull bool `json:"is_full,omitempty"`
}

// Date is a civil calendar day without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.In(time.UTC).Before(o.In(time.UTC))
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ConfigError collects validation failures keyed by field path.
type ConfigError struct {
	fields map[string][]string
}

func newConfigError() *ConfigError {
	return &ConfigError{fields: make(map[string][]string)}
}

func (e *ConfigError) add(field, msg string) {
	e.fields[field] = append(e.fields[field], msg)
}

func (e *ConfigError) Len() int {
	return len(e.fields)
}

func (e *ConfigError) Fields() map[string][]string {
	return e.fields
}

func (e *ConfigError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.fields[k], ", "))
	}
	return "invalid availability: " + strings.Join(parts, "; ")
}
