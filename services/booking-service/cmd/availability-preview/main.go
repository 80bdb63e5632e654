// Command availability-preview prints the slots and month rollup an event type
// definition would produce, without a database.
//
//	availability-preview -file event.yaml -date 2026-01-26 -guest-tz Asia/Tokyo
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/storage"
)

// previewFile is the YAML document read by the tool.
type previewFile struct {
	Title           string                     `yaml:"title"`
	DurationMinutes int                        `yaml:"duration_minutes"`
	IntervalMinutes int                        `yaml:"slot_interval_minutes"`
	MinNoticeDays   *int                       `yaml:"min_notice_days"`
	Group           availability.GroupMeeting  `yaml:"group_meeting"`
	Availability    *availability.Availability `yaml:"availability"`
	Bookings        []previewBooking           `yaml:"bookings"`
}

type previewBooking struct {
	Start time.Time `yaml:"start"`
	Count int       `yaml:"count"`
}

type output struct {
	EventType string                `json:"event_type"`
	Timezone  string                `json:"timezone"`
	Date      string                `json:"date,omitempty"`
	Slots     []availability.Slot   `json:"slots,omitempty"`
	Month     *calendar.MonthRollup `json:"month,omitempty"`
}

// fileOccupancy serves the bookings listed in the file.
type fileOccupancy []previewBooking

func (f fileOccupancy) CountConfirmedByStart(_ context.Context, _ string, from, to time.Time) ([]storage.StartCount, error) {
	var out []storage.StartCount
	for _, b := range f {
		if b.Start.Before(from) || !b.Start.Before(to) {
			continue
		}
		n := b.Count
		if n <= 0 {
			n = 1
		}
		out = append(out, storage.StartCount{Start: b.Start, Count: n})
	}
	return out, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, now func() time.Time) error {
	fs := flag.NewFlagSet("availability-preview", flag.ContinueOnError)
	var (
		file    = fs.String("file", getenv("PREVIEW_FILE", ""), "event type YAML file")
		date    = fs.String("date", "", "host-local date YYYY-MM-DD to list slots for")
		month   = fs.String("month", "", "month YYYY-MM to roll up (defaults to the month of -date)")
		guestTZ = fs.String("guest-tz", "", "guest IANA timezone (defaults to the host zone)")
		noticeD = fs.Int("default-notice-days", 0, "minimum notice when the file sets none")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		return errors.New("-file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	et, occ, err := load(raw)
	if err != nil {
		return err
	}

	guest := et.HostLocation()
	if tz := strings.TrimSpace(*guestTZ); tz != "" {
		if guest, err = time.LoadLocation(tz); err != nil {
			return fmt.Errorf("unknown guest timezone %q", tz)
		}
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := calendar.NewService(occ, nil, logger, calendar.Options{MinNoticeDays: *noticeD, Now: now})
	ctx := context.Background()

	out := output{EventType: et.Title, Timezone: guest.String()}
	if *date != "" {
		d, err := availability.ParseDate(*date)
		if err != nil {
			return fmt.Errorf("invalid -date %q", *date)
		}
		slots, err := svc.Slots(ctx, et, d, guest)
		if err != nil {
			return err
		}
		out.Date = d.String()
		out.Slots = slots
		if *month == "" {
			*month = fmt.Sprintf("%04d-%02d", d.Year, d.Month)
		}
	}
	if *month == "" {
		*month = now().In(et.HostLocation()).Format("2006-01")
	}
	m, err := time.Parse("2006-01", *month)
	if err != nil {
		return fmt.Errorf("invalid -month %q", *month)
	}
	rollup, err := svc.Month(ctx, et, m.Year(), m.Month(), guest)
	if err != nil {
		return err
	}
	out.Month = &rollup

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func load(raw []byte) (model.EventType, fileOccupancy, error) {
	var f previewFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return model.EventType{}, nil, fmt.Errorf("parse yaml: %w", err)
	}
	if f.Availability == nil {
		f.Availability = &availability.Availability{}
	}
	if err := f.Availability.Validate(); err != nil {
		return model.EventType{}, nil, err
	}
	if f.Title == "" {
		f.Title = "preview"
	}
	et := model.EventType{
		ID:                  "preview",
		Title:               f.Title,
		DurationMinutes:     f.DurationMinutes,
		SlotIntervalMinutes: f.IntervalMinutes,
		MinNoticeDays:       f.MinNoticeDays,
		Active:              true,
		Group:               f.Group,
		Availability:        f.Availability,
	}
	return et, fileOccupancy(f.Bookings), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
