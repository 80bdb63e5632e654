package events

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
)

func TestBookingConfirmedPayload(t *testing.T) {
	a := &availability.Availability{Timezone: "America/New_York"}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	et := model.EventType{ID: "et-1", Title: "Intro call", Availability: a}
	b := model.Booking{
		ID:            "b-1",
		EventTypeID:   "et-1",
		HostID:        "host-1",
		GuestName:     "Ada",
		GuestEmail:    "ada@example.com",
		GuestTimezone: "Asia/Tokyo",
		StartTime:     time.Date(2026, 1, 26, 14, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 1, 26, 14, 30, 0, 0, time.UTC),
	}

	evt, err := BookingConfirmed(b, et)
	if err != nil {
		t.Fatalf("BookingConfirmed failed: %v", err)
	}
	if evt.EventType != TopicBookingConfirmed || evt.AggregateID != "b-1" {
		t.Fatalf("unexpected envelope %+v", evt)
	}

	var p BookingPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if p.StartTime != "2026-01-26T14:00:00Z" {
		t.Fatalf("unexpected start %q", p.StartTime)
	}
	if p.GuestStartLocal != "Mon Jan 26, 2026 11:00 PM JST" {
		t.Fatalf("unexpected guest local %q", p.GuestStartLocal)
	}
	if p.HostStartLocal != "Mon Jan 26, 2026 9:00 AM EST" {
		t.Fatalf("unexpected host local %q", p.HostStartLocal)
	}
}

func TestBookingPayloadUnknownGuestZone(t *testing.T) {
	et := model.EventType{ID: "et-1"}
	b := model.Booking{ID: "b-1", GuestTimezone: "Nowhere/Land", StartTime: time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)}
	p := bookingPayload(b, et)
	if p.GuestTimezone != "UTC" {
		t.Fatalf("expected host zone fallback, got %q", p.GuestTimezone)
	}
}
