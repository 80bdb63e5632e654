package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/meetslot/libs/auth"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/events"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/ics"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/verification"
)

type createBookingRequest struct {
	EventTypeID      string `json:"event_type_id"`
	GuestName        string `json:"guest_name"`
	GuestEmail       string `json:"guest_email"`
	GuestTimezone    string `json:"guest_timezone"`
	Notes            string `json:"notes"`
	StartTime        string `json:"start_time"`
	VerificationCode string `json:"verification_code"`
}

type bookingResponse struct {
	ID            string `json:"id"`
	EventTypeID   string `json:"event_type_id"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestTimezone string `json:"guest_timezone"`
	Notes         string `json:"notes,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toBookingResponse(b model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:            b.ID,
		EventTypeID:   b.EventTypeID,
		GuestName:     b.GuestName,
		GuestEmail:    b.GuestEmail,
		GuestTimezone: b.GuestTimezone,
		Notes:         b.Notes,
		StartTime:     formatTime(b.StartTime),
		EndTime:       formatTime(b.EndTime),
		Status:        b.Status,
		CancelReason:  b.CancelReason,
		CreatedAt:     formatTime(b.CreatedAt),
	}
	if b.CancelledAt != nil {
		resp.CancelledAt = formatTime(*b.CancelledAt)
	}
	return resp
}

const maxNotesLength = 2000

// CreateBooking books one start time for a guest. The start must be an offered
// slot; capacity is enforced by the store inside the booking transaction.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "booking.create")
	defer span.End()

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.GuestName = strings.TrimSpace(req.GuestName)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.GuestName == "" {
		http.Error(w, "guest_name required", http.StatusBadRequest)
		return
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.GuestEmail))
	if err != nil {
		http.Error(w, "invalid guest_email", http.StatusBadRequest)
		return
	}
	if len(req.Notes) > maxNotesLength {
		http.Error(w, "notes too long", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	et, ok := h.publicEventType(w, r, req.EventTypeID)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("event_type.id", et.ID))

	guest, ok := guestLocation(req.GuestTimezone, et)
	if !ok {
		http.Error(w, "unknown guest_timezone", http.StatusBadRequest)
		return
	}
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" {
		stored, found, err := h.bookings.StoredResponse(ctx, et.ID, idemKey)
		if err != nil {
			h.logger.Error("idempotency lookup failed", "err", err)
			http.Error(w, "failed to read idempotency key", http.StatusServiceUnavailable)
			return
		}
		if found {
			writeReplay(w, stored)
			return
		}
	}

	if !h.calendar.Offered(et, start) {
		http.Error(w, "start_time is not an offered slot", http.StatusUnprocessableEntity)
		return
	}

	if h.requiresVerification(et) {
		if err := h.codes.Consume(ctx, et.ID, addr.Address, req.VerificationCode); err != nil {
			switch {
			case errors.Is(err, verification.ErrCodeMismatch), errors.Is(err, verification.ErrCodeExpired), errors.Is(err, verification.ErrTooManyAttempts):
				http.Error(w, err.Error(), http.StatusForbidden)
			default:
				h.logger.Error("verification check failed", "err", err)
				http.Error(w, "verification unavailable", http.StatusServiceUnavailable)
			}
			return
		}
	}

	b := model.Booking{
		EventTypeID:   et.ID,
		HostID:        et.HostID,
		GuestName:     req.GuestName,
		GuestEmail:    strings.ToLower(addr.Address),
		GuestTimezone: guest.String(),
		Notes:         req.Notes,
		StartTime:     start.UTC(),
		EndTime:       start.Add(et.Duration()).UTC(),
		Status:        model.BookingConfirmed,
	}

	res, err := h.bookings.Create(ctx, storage.CreateParams{
		Booking:        b,
		Capacity:       et.Capacity(),
		IdempotencyKey: idemKey,
		Render: func(b model.Booking) ([]byte, error) {
			return json.Marshal(toBookingResponse(b))
		},
		AfterInsert: func(ctx context.Context, tx pgx.Tx, b model.Booking) error {
			evt, err := events.BookingConfirmed(b, et)
			if err != nil {
				return err
			}
			return h.outbox.Insert(ctx, tx, evt)
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSlotFull):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write(storage.SlotFullPayload())
		case errors.Is(err, storage.ErrSlotTaken):
			http.Error(w, "slot already booked", http.StatusConflict)
		default:
			span.RecordError(err)
			h.logger.Error("create booking failed", "err", err, "event_type_id", et.ID)
			http.Error(w, "failed to create booking", http.StatusInternalServerError)
		}
		return
	}

	if res.Replayed {
		writeReplay(w, res)
		return
	}
	h.calendar.Invalidate(ctx, et.ID)
	h.logger.Info("booking confirmed", "booking_id", res.Booking.ID, "event_type_id", et.ID, "start_time", formatTime(res.Booking.StartTime))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Payload)
}

func writeReplay(w http.ResponseWriter, res storage.CreateResult) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Payload)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}
	var req cancelBookingRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	b, err := h.bookings.Cancel(ctx, auth.HostIDFromContext(ctx), id, strings.TrimSpace(req.Reason),
		func(ctx context.Context, tx pgx.Tx, b model.Booking) error {
			et, err := h.eventTypes.Get(ctx, b.EventTypeID)
			if err != nil {
				return err
			}
			evt, err := events.BookingCancelled(b, et)
			if err != nil {
				return err
			}
			return h.outbox.Insert(ctx, tx, evt)
		})
	switch {
	case errors.Is(err, storage.ErrAlreadyCancelled):
		writeJSON(w, http.StatusOK, toBookingResponse(b))
		return
	case storage.IsNotFound(err):
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("cancel booking failed", "err", err, "booking_id", id)
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}

	h.calendar.Invalidate(ctx, b.EventTypeID)
	h.logger.Info("booking cancelled", "booking_id", b.ID, "event_type_id", b.EventTypeID)
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// bookingWindow reads ?from=&to= as RFC3339 or YYYY-MM-DD, defaulting to the
// next 30 days.
func (h *Handler) bookingWindow(r *http.Request) (time.Time, time.Time, bool) {
	parse := func(raw string, fallback time.Time) (time.Time, bool) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return fallback, true
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	now := h.now().UTC()
	q := r.URL.Query()
	from, ok1 := parse(q.Get("from"), now)
	to, ok2 := parse(q.Get("to"), from.AddDate(0, 0, 30))
	if !ok1 || !ok2 || !to.After(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *Handler) hostBookings(w http.ResponseWriter, r *http.Request) (model.EventType, []model.Booking, bool) {
	et, ok := h.ownedEventType(w, r)
	if !ok {
		return model.EventType{}, nil, false
	}
	from, to, ok := h.bookingWindow(r)
	if !ok {
		http.Error(w, "invalid from/to range", http.StatusBadRequest)
		return model.EventType{}, nil, false
	}
	q := r.URL.Query()
	limit := 200
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	withCancelled, _ := strconv.ParseBool(q.Get("include_cancelled"))

	bookings, err := h.bookings.ListByEventType(r.Context(), et.ID, from, to, withCancelled, limit)
	if err != nil {
		h.logger.Error("list bookings failed", "err", err, "event_type_id", et.ID)
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return model.EventType{}, nil, false
	}
	return et, bookings, true
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	_, bookings, ok := h.hostBookings(w, r)
	if !ok {
		return
	}
	items := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) BookingsICS(w http.ResponseWriter, r *http.Request) {
	et, bookings, ok := h.hostBookings(w, r)
	if !ok {
		return
	}
	writeCalendar(w, et.Slug+"-bookings.ics", ics.BookingsFeed(et, bookings, h.now()))
}

func (h *Handler) AvailabilityICS(w http.ResponseWriter, r *http.Request) {
	et, ok := h.ownedEventType(w, r)
	if !ok {
		return
	}
	body, err := ics.AvailabilityFeed(et, h.calendar.MinDate(et), h.now())
	if err != nil {
		h.logger.Error("availability feed failed", "err", err, "event_type_id", et.ID)
		http.Error(w, "failed to build availability feed", http.StatusInternalServerError)
		return
	}
	writeCalendar(w, et.Slug+"-availability.ics", body)
}

func writeCalendar(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
