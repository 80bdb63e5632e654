// Package events defines the messages booking-service publishes through the
// outbox. Payloads are versioned by topic name.
package events

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/outbox"
)

const (
	TopicBookingConfirmed      = "booking.confirmed.v1"
	TopicBookingCancelled      = "booking.cancelled.v1"
	TopicVerificationRequested = "booking.verification.requested.v1"
)

type BookingPayload struct {
	BookingID     string `json:"booking_id"`
	EventTypeID   string `json:"event_type_id"`
	EventTitle    string `json:"event_title"`
	HostID        string `json:"host_id"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestTimezone string `json:"guest_timezone"`
	Location      string `json:"location,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	// Local renderings so consumers need no zone database.
	GuestStartLocal string `json:"guest_start_local"`
	HostStartLocal  string `json:"host_start_local"`
	HostTimezone    string `json:"host_timezone"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

type VerificationPayload struct {
	EventTypeID string `json:"event_type_id"`
	EventTitle  string `json:"event_title"`
	Email       string `json:"email"`
	Code        string `json:"code"`
	ExpiresAt   string `json:"expires_at"`
}

const localLayout = "Mon Jan 2, 2006 3:04 PM MST"

func bookingPayload(b model.Booking, et model.EventType) BookingPayload {
	guestLoc, err := time.LoadLocation(b.GuestTimezone)
	if err != nil {
		guestLoc = et.HostLocation()
	}
	p := BookingPayload{
		BookingID:       b.ID,
		EventTypeID:     b.EventTypeID,
		EventTitle:      et.Title,
		HostID:          b.HostID,
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		GuestTimezone:   guestLoc.String(),
		Location:        et.Location,
		StartTime:       b.StartTime.UTC().Format(time.RFC3339),
		EndTime:         b.EndTime.UTC().Format(time.RFC3339),
		GuestStartLocal: b.StartTime.In(guestLoc).Format(localLayout),
		HostStartLocal:  b.StartTime.In(et.HostLocation()).Format(localLayout),
		HostTimezone:    et.HostLocation().String(),
		Reason:          b.CancelReason,
	}
	if b.CancelledAt != nil {
		p.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	return p
}

func BookingConfirmed(b model.Booking, et model.EventType) (outbox.Event, error) {
	return bookingEvent(TopicBookingConfirmed, b, et)
}

func BookingCancelled(b model.Booking, et model.EventType) (outbox.Event, error) {
	return bookingEvent(TopicBookingCancelled, b, et)
}

func bookingEvent(topic string, b model.Booking, et model.EventType) (outbox.Event, error) {
	raw, err := json.Marshal(bookingPayload(b, et))
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     topic,
		Payload:       raw,
	}, nil
}

func VerificationRequested(et model.EventType, email, code string, expiresAt time.Time) (outbox.Event, error) {
	raw, err := json.Marshal(VerificationPayload{
		EventTypeID: et.ID,
		EventTitle:  et.Title,
		Email:       email,
		Code:        code,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "verification",
		AggregateID:   email,
		EventType:     TopicVerificationRequested,
		Payload:       raw,
	}, nil
}
