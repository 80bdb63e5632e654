package model

import (
	"time"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
)

// EventType is a host's bookable template.
type EventType struct {
	ID                  string
	HostID              string
	Slug                string
	Title               string
	Description         string
	Location            string
	DurationMinutes     int
	SlotIntervalMinutes int
	MinNoticeDays       *int
	RequireVerification bool
	Active              bool
	Group               availability.GroupMeeting
	Availability        *availability.Availability
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Interval returns the slot step, falling back to the duration and then to
// fallback.
func (e EventType) Interval(fallback int) int {
	if e.SlotIntervalMinutes > 0 {
		return e.SlotIntervalMinutes
	}
	if e.DurationMinutes > 0 {
		return e.DurationMinutes
	}
	if fallback > 0 {
		return fallback
	}
	return availability.DefaultIntervalMinutes
}

func (e EventType) Duration() time.Duration {
	if e.DurationMinutes <= 0 {
		return time.Duration(availability.DefaultIntervalMinutes) * time.Minute
	}
	return time.Duration(e.DurationMinutes) * time.Minute
}

// Capacity is how many confirmed bookings one start time accepts.
func (e EventType) Capacity() int {
	return e.Group.Capacity()
}

// HostLocation is the host zone of the event's availability.
func (e EventType) HostLocation() *time.Location {
	return e.Availability.Location()
}

// NoticeDays resolves the per-event minimum notice against the service default.
func (e EventType) NoticeDays(fallback int) int {
	if e.MinNoticeDays != nil && *e.MinNoticeDays >= 0 {
		return *e.MinNoticeDays
	}
	return fallback
}

// MinDate is the first bookable host-local day.
func (e EventType) MinDate(now time.Time, fallbackNoticeDays int) availability.Date {
	today := availability.DateOf(now.In(e.HostLocation()))
	return today.AddDays(e.NoticeDays(fallbackNoticeDays))
}
