// Package calendar answers the booking page's slot and month queries by
// combining an event type's availability with its confirmed bookings.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/rollupcache"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/storage"
)

type OccupancySource interface {
	CountConfirmedByStart(ctx context.Context, eventTypeID string, from, to time.Time) ([]storage.StartCount, error)
}

type Options struct {
	DefaultIntervalMinutes int
	MinNoticeDays          int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type Service struct {
	occ    OccupancySource
	cache  rollupcache.Cache
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

func NewService(occ OccupancySource, cache rollupcache.Cache, logger *slog.Logger, opts Options) *Service {
	if cache == nil {
		cache = rollupcache.Noop{}
	}
	if opts.DefaultIntervalMinutes <= 0 {
		opts.DefaultIntervalMinutes = availability.DefaultIntervalMinutes
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{occ: occ, cache: cache, logger: logger, opts: opts, now: now}
}

// MonthRollup is the calendar grid summary for one host month.
type MonthRollup struct {
	Month            string   `json:"month"`
	FullDates        []string `json:"full_dates"`
	UnavailableDates []string `json:"unavailable_dates"`
	MinDate          string   `json:"min_date"`
}

// DisplayGroup is the capacity rule used when hiding slots. Events without a
// group meeting behave like a group of one so taken starts disappear.
func DisplayGroup(et model.EventType) availability.GroupMeeting {
	if et.Group.Enabled {
		return et.Group
	}
	return availability.GroupMeeting{Enabled: true, MaxGuests: 1}
}

func (s *Service) MinDate(et model.EventType) availability.Date {
	return et.MinDate(s.now(), s.opts.MinNoticeDays)
}

// Slots lists the bookable starts of a host-local date, rendered for guest.
// Past starts, days before the minimum notice, and full starts are omitted.
func (s *Service) Slots(ctx context.Context, et model.EventType, date availability.Date, guest *time.Location) ([]availability.Slot, error) {
	if guest == nil {
		guest = et.HostLocation()
	}
	if date.Before(s.MinDate(et)) {
		return []availability.Slot{}, nil
	}
	slots := availability.FilterPast(
		availability.TimeSlots(date, et.Availability, et.Interval(s.opts.DefaultIntervalMinutes), guest),
		s.now(),
	)
	if len(slots) == 0 {
		return []availability.Slot{}, nil
	}

	from, to := slots[0].Start, slots[0].Start
	for _, sl := range slots[1:] {
		if sl.Start.Before(from) {
			from = sl.Start
		}
		if sl.Start.After(to) {
			to = sl.Start
		}
	}
	counts, err := s.occ.CountConfirmedByStart(ctx, et.ID, from, to.Add(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("load occupancy: %w", err)
	}
	return availability.FilterFullSlots(slots, dayOccupancy(counts, guest), DisplayGroup(et)), nil
}

// Offered reports whether start is one of et's future slots, ignoring
// occupancy. Capacity is left to the booking insert, which reports a full slot
// as a conflict rather than an invalid time.
func (s *Service) Offered(et model.EventType, start time.Time) bool {
	host := et.HostLocation()
	date := availability.DateOf(start.In(host))
	if date.Before(s.MinDate(et)) {
		return false
	}
	slots := availability.TimeSlots(date, et.Availability, et.Interval(s.opts.DefaultIntervalMinutes), host)
	return availability.Contains(availability.FilterPast(slots, s.now()), start)
}

// Month returns the rollup for a host month, served from the cache when present.
func (s *Service) Month(ctx context.Context, et model.EventType, year int, month time.Month, guest *time.Location) (MonthRollup, error) {
	if guest == nil {
		guest = et.HostLocation()
	}
	minDate := s.MinDate(et)
	key := fmt.Sprintf("%04d-%02d|%s|%s", year, int(month), guest.String(), minDate)

	if raw, ok, err := s.cache.Get(ctx, et.ID, key); err != nil {
		s.logger.Warn("rollup cache read failed", "event_type_id", et.ID, "err", err)
	} else if ok {
		var cached MonthRollup
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	host := et.HostLocation()
	from := time.Date(year, month, 1, 0, 0, 0, 0, host)
	counts, err := s.occ.CountConfirmedByStart(ctx, et.ID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return MonthRollup{}, fmt.Errorf("load occupancy: %w", err)
	}

	occ := availability.OccupancyByDate{}
	for _, c := range counts {
		day := availability.DateOf(c.Start.In(host)).String()
		if occ[day] == nil {
			occ[day] = map[string]availability.Occupancy{}
		}
		slot := availability.OccupancyKey(c.Start, guest)
		o := occ[day][slot]
		o.Count += c.Count
		occ[day][slot] = o
	}

	out := MonthRollup{
		Month: fmt.Sprintf("%04d-%02d", year, int(month)),
		FullDates: availability.FullDates(year, month, et.Availability, occ, DisplayGroup(et), availability.RollupOptions{
			MinDate:         minDate,
			IntervalMinutes: et.Interval(s.opts.DefaultIntervalMinutes),
			Guest:           guest,
		}),
		UnavailableDates: availability.UnavailableDates(year, month, et.Availability, minDate),
		MinDate:          minDate.String(),
	}

	if raw, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, et.ID, key, raw); err != nil {
			s.logger.Warn("rollup cache write failed", "event_type_id", et.ID, "err", err)
		}
	}
	return out, nil
}

// Invalidate drops every cached month of an event type. Failures are logged
// because entries still expire through their TTL.
func (s *Service) Invalidate(ctx context.Context, eventTypeID string) {
	if err := s.cache.Invalidate(ctx, eventTypeID); err != nil {
		s.logger.Warn("rollup cache invalidate failed", "event_type_id", eventTypeID, "err", err)
	}
}

func dayOccupancy(counts []storage.StartCount, guest *time.Location) map[string]availability.Occupancy {
	occ := make(map[string]availability.Occupancy, len(counts))
	for _, c := range counts {
		key := availability.OccupancyKey(c.Start, guest)
		o := occ[key]
		o.Count += c.Count
		occ[key] = o
	}
	return occ
}
