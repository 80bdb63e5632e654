// Package handlers is the HTTP surface of booking-service: public booking
// page endpoints and the host API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/meetslot/libs/auth"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/verification"
)

type EventTypeStore interface {
	Create(ctx context.Context, et *model.EventType) error
	Get(ctx context.Context, id string) (model.EventType, error)
	ListByHost(ctx context.Context, hostID string) ([]model.EventType, error)
	Update(ctx context.Context, et *model.EventType) error
	UpdateAvailability(ctx context.Context, id, hostID string, a *availability.Availability) error
}

type BookingStore interface {
	Create(ctx context.Context, p storage.CreateParams) (storage.CreateResult, error)
	StoredResponse(ctx context.Context, eventTypeID, key string) (storage.CreateResult, bool, error)
	Cancel(ctx context.Context, hostID, bookingID, reason string, hook storage.TxHook) (model.Booking, error)
	ListByEventType(ctx context.Context, eventTypeID string, from, to time.Time, withCancelled bool, limit int) ([]model.Booking, error)
}

// OutboxWriter appends an event inside an open booking transaction.
type OutboxWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

// EventEmitter records an event in a transaction of its own.
type EventEmitter interface {
	Emit(ctx context.Context, evt outbox.Event) error
}

type Deps struct {
	EventTypes EventTypeStore
	Bookings   BookingStore
	Outbox     OutboxWriter
	Emitter    EventEmitter
	Calendar   *calendar.Service
	Codes      verification.Store
	Logger     *slog.Logger
}

type Config struct {
	JWTSecret string
	// RequireVerification forces a guest code on every event type.
	RequireVerification bool
}

type Handler struct {
	eventTypes EventTypeStore
	bookings   BookingStore
	outbox     OutboxWriter
	emitter    EventEmitter
	calendar   *calendar.Service
	codes      verification.Store
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time
}

func New(d Deps, cfg Config) *Handler {
	return &Handler{
		eventTypes: d.EventTypes,
		bookings:   d.Bookings,
		outbox:     d.Outbox,
		emitter:    d.Emitter,
		calendar:   d.Calendar,
		codes:      d.Codes,
		logger:     d.Logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/event-types/{id}", h.PublicEventType)
		r.Get("/event-types/{id}/slots", h.Slots)
		r.Get("/event-types/{id}/calendar", h.Calendar)
		r.Post("/verification-codes", h.RequestVerificationCode)
		r.Post("/bookings", h.CreateBooking)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireHost(h.cfg.JWTSecret))

		r.Post("/api/v1/event-types", h.CreateEventType)
		r.Get("/api/v1/event-types", h.ListEventTypes)
		r.Get("/api/v1/event-types/{id}", h.GetEventType)
		r.Put("/api/v1/event-types/{id}", h.UpdateEventType)
		r.Put("/api/v1/event-types/{id}/availability", h.UpdateAvailability)
		r.Get("/api/v1/event-types/{id}/bookings", h.ListBookings)
		r.Get("/api/v1/event-types/{id}/bookings.ics", h.BookingsICS)
		r.Get("/api/v1/event-types/{id}/availability.ics", h.AvailabilityICS)
		r.Post("/api/v1/bookings/{id}/cancel", h.CancelBooking)
	})
	return r
}

// idParam returns the {id} path value in canonical form.
func idParam(r *http.Request) (string, bool) {
	return parseID(chi.URLParam(r, "id"))
}

func parseID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// writeConfigError renders availability validation failures as 422 with the
// offending field paths.
func writeConfigError(w http.ResponseWriter, err error) bool {
	var ce *availability.ConfigError
	if !errors.As(err, &ce) {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid availability", Fields: ce.Fields()})
	return true
}

// guestLocation resolves the ?timezone= parameter, defaulting to the host zone.
func guestLocation(raw string, et model.EventType) (*time.Location, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return et.HostLocation(), true
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return nil, false
	}
	return loc, true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
