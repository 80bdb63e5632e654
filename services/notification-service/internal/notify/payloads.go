package notify

// Wire shapes published by booking-service. Only the fields read here are listed.

const (
	TopicBookingConfirmed      = "booking.confirmed.v1"
	TopicBookingCancelled      = "booking.cancelled.v1"
	TopicVerificationRequested = "booking.verification.requested.v1"
)

type bookingPayload struct {
	BookingID       string `json:"booking_id"`
	EventTypeID     string `json:"event_type_id"`
	EventTitle      string `json:"event_title"`
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	GuestTimezone   string `json:"guest_timezone"`
	Location        string `json:"location"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	GuestStartLocal string `json:"guest_start_local"`
	CancelledAt     string `json:"cancelled_at"`
	Reason          string `json:"reason"`
}

type verificationPayload struct {
	EventTypeID string `json:"event_type_id"`
	EventTitle  string `json:"event_title"`
	Email       string `json:"email"`
	Code        string `json:"code"`
	ExpiresAt   string `json:"expires_at"`
}
