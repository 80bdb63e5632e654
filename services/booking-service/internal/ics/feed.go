// Package ics renders iCalendar feeds for hosts: confirmed bookings and the
// recurring weekly availability of an event type.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
)

const (
	productID = "-//meetslot//booking-service//EN"
	utcLayout = "20060102T150405Z"
)

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	return cal
}

// BookingsFeed lists bookings of et. Cancelled bookings stay in the feed with
// STATUS:CANCELLED so subscribed calendars drop them.
func BookingsFeed(et model.EventType, bookings []model.Booking, now time.Time) string {
	cal := newCalendar()
	for _, b := range bookings {
		ev := cal.AddEvent(b.ID + "@meetslot")
		ev.SetDtStampTime(now)
		ev.SetCreatedTime(b.CreatedAt)
		ev.SetStartAt(b.StartTime)
		ev.SetEndAt(b.EndTime)
		ev.SetSummary(fmt.Sprintf("%s with %s", et.Title, b.GuestName))
		if b.Notes != "" {
			ev.SetDescription(b.Notes)
		}
		if et.Location != "" {
			ev.SetLocation(et.Location)
		}
		ev.AddAttendee("mailto:" + b.GuestEmail)
		if b.Status == model.BookingCancelled {
			ev.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}

var weekdays = map[string]rrule.Weekday{
	"monday": rrule.MO, "tuesday": rrule.TU, "wednesday": rrule.WE, "thursday": rrule.TH,
	"friday": rrule.FR, "saturday": rrule.SA, "sunday": rrule.SU,
}

// AvailabilityFeed publishes the weekly hours as recurring events starting at
// from. Every date override excludes the weekly occurrences of its day; open
// overrides are added as single events.
func AvailabilityFeed(et model.EventType, from availability.Date, now time.Time) (string, error) {
	cal := newCalendar()
	a := et.Availability
	if a == nil {
		return cal.Serialize(), nil
	}
	host := et.HostLocation()

	for _, wh := range a.WeeklyHours {
		wd, ok := weekdays[strings.ToLower(wh.Day)]
		if !ok || !wh.IsAvailable {
			continue
		}
		for i, tr := range wh.TimeRanges {
			start, end, ok := clockSpan(from, tr, host)
			if !ok {
				continue
			}
			r, err := rrule.NewRRule(rrule.ROption{
				Freq:      rrule.WEEKLY,
				Byweekday: []rrule.Weekday{wd},
				Dtstart:   start,
			})
			if err != nil {
				return "", fmt.Errorf("weekly rule for %s: %w", wh.Day, err)
			}
			first := r.After(start, true)
			if first.IsZero() {
				continue
			}

			ev := cal.AddEvent(fmt.Sprintf("%s-%s-%d@meetslot", et.ID, strings.ToLower(wh.Day), i))
			ev.SetDtStampTime(now)
			ev.SetStartAt(first)
			ev.SetEndAt(first.Add(end.Sub(start)))
			ev.SetSummary(et.Title + " open")
			ev.AddProperty(ical.ComponentPropertyRrule, r.OrigOptions.RRuleString())
			for _, o := range a.DateOverrides {
				d, err := availability.ParseDate(o.Date)
				if err != nil || d.Before(from) || d.Weekday() != first.Weekday() {
					continue
				}
				ex := time.Date(d.Year, d.Month, d.Day, first.Hour(), first.Minute(), 0, 0, host)
				ev.AddProperty(ical.ComponentPropertyExdate, ex.UTC().Format(utcLayout))
			}
		}
	}

	for _, o := range a.DateOverrides {
		d, err := availability.ParseDate(o.Date)
		if err != nil || d.Before(from) || !o.IsAvailable {
			continue
		}
		for i, tr := range o.TimeRanges {
			start, end, ok := clockSpan(d, tr, host)
			if !ok {
				continue
			}
			ev := cal.AddEvent(fmt.Sprintf("%s-%s-%d@meetslot", et.ID, o.Date, i))
			ev.SetDtStampTime(now)
			ev.SetStartAt(start)
			ev.SetEndAt(end)
			ev.SetSummary(et.Title + " open")
		}
	}
	return cal.Serialize(), nil
}

func clockSpan(d availability.Date, tr availability.TimeRange, loc *time.Location) (time.Time, time.Time, bool) {
	s, err1 := time.Parse("15:04", tr.Start)
	e, err2 := time.Parse("15:04", tr.End)
	if err1 != nil || err2 != nil || !s.Before(e) {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(d.Year, d.Month, d.Day, s.Hour(), s.Minute(), 0, 0, loc)
	end := time.Date(d.Year, d.Month, d.Day, e.Hour(), e.Minute(), 0, 0, loc)
	return start, end, true
}
