package model

import "time"

const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

type Booking struct {
	ID            string
	EventTypeID   string
	HostID        string
	GuestName     string
	GuestEmail    string
	GuestTimezone string
	Notes         string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	CancelledAt   *time.Time
	CancelReason  string
	CreatedAt     time.Time
}
