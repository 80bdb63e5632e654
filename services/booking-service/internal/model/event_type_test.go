package model

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
)

func TestEventTypeInterval(t *testing.T) {
	if got := (EventType{SlotIntervalMinutes: 15, DurationMinutes: 60}).Interval(30); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if got := (EventType{DurationMinutes: 45}).Interval(30); got != 45 {
		t.Fatalf("expected 45, got %d", got)
	}
	if got := (EventType{}).Interval(20); got != 20 {
		t.Fatalf("expected fallback 20, got %d", got)
	}
	if got := (EventType{}).Interval(0); got != availability.DefaultIntervalMinutes {
		t.Fatalf("expected default, got %d", got)
	}
}

func TestEventTypeMinDate(t *testing.T) {
	a := &availability.Availability{Timezone: "Asia/Tokyo"}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	two := 2
	et := EventType{Availability: a, MinNoticeDays: &two}

	// 20:00 UTC on the 10th is already the 11th in Tokyo.
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	if got := et.MinDate(now, 0).String(); got != "2026-03-13" {
		t.Fatalf("expected 2026-03-13, got %s", got)
	}

	et.MinNoticeDays = nil
	if got := et.MinDate(now, 1).String(); got != "2026-03-12" {
		t.Fatalf("expected service default notice, got %s", got)
	}
}

func TestEventTypeCapacity(t *testing.T) {
	if got := (EventType{}).Capacity(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	et := EventType{Group: availability.GroupMeeting{Enabled: true, MaxGuests: 5}}
	if got := et.Capacity(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}
