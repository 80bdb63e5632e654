package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
)

var tracer = otel.Tracer("booking-service/handlers")

type slotsResponse struct {
	EventTypeID string              `json:"event_type_id"`
	Date        string              `json:"date"`
	Timezone    string              `json:"timezone"`
	Slots       []availability.Slot `json:"slots"`
}

// Slots lists the offered start times of one host-local date.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "slots.list")
	defer span.End()

	et, ok := h.publicEventType(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	q := r.URL.Query()
	date, err := availability.ParseDate(q.Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	guest, ok := guestLocation(q.Get("timezone"), et)
	if !ok {
		http.Error(w, "unknown timezone", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("event_type.id", et.ID),
		attribute.String("slots.date", date.String()),
		attribute.String("slots.timezone", guest.String()),
	)

	slots, err := h.calendar.Slots(ctx, et, date, guest)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("list slots failed", "err", err, "event_type_id", et.ID)
		http.Error(w, "failed to load slots", http.StatusServiceUnavailable)
		return
	}
	span.SetAttributes(attribute.Int("slots.count", len(slots)))
	writeJSON(w, http.StatusOK, slotsResponse{
		EventTypeID: et.ID,
		Date:        date.String(),
		Timezone:    guest.String(),
		Slots:       slots,
	})
}

// Calendar returns the month rollup used to grey out days on the date picker.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "calendar.month")
	defer span.End()

	et, ok := h.publicEventType(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	q := r.URL.Query()
	var month time.Time
	if raw := strings.TrimSpace(q.Get("month")); raw != "" {
		var err error
		if month, err = time.Parse("2006-01", raw); err != nil {
			http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
			return
		}
	} else {
		month = h.now().In(et.HostLocation())
	}
	guest, ok := guestLocation(q.Get("timezone"), et)
	if !ok {
		http.Error(w, "unknown timezone", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("event_type.id", et.ID),
		attribute.String("calendar.month", month.Format("2006-01")),
	)

	rollup, err := h.calendar.Month(ctx, et, month.Year(), month.Month(), guest)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("month rollup failed", "err", err, "event_type_id", et.ID)
		http.Error(w, "failed to load calendar", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}
