package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/md-rashed-zaman/meetslot/libs/auth"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/storage"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

const (
	minDurationMinutes = 5
	maxDurationMinutes = 12 * 60
	maxGroupGuests     = 1000
)

type eventTypeRequest struct {
	Slug                string                    `json:"slug"`
	Title               string                    `json:"title"`
	Description         string                    `json:"description"`
	Location            string                    `json:"location"`
	DurationMinutes     int                       `json:"duration_minutes"`
	SlotIntervalMinutes int                       `json:"slot_interval_minutes"`
	MinNoticeDays       *int                      `json:"min_notice_days"`
	RequireVerification bool                      `json:"require_verification"`
	Active              *bool                     `json:"active"`
	GroupMeeting        availability.GroupMeeting `json:"group_meeting"`
	Availability        json.RawMessage           `json:"availability,omitempty"`
}

type eventTypeResponse struct {
	ID                  string                     `json:"id"`
	HostID              string                     `json:"host_id"`
	Slug                string                     `json:"slug"`
	Title               string                     `json:"title"`
	Description         string                     `json:"description"`
	Location            string                     `json:"location"`
	DurationMinutes     int                        `json:"duration_minutes"`
	SlotIntervalMinutes int                        `json:"slot_interval_minutes,omitempty"`
	MinNoticeDays       *int                       `json:"min_notice_days,omitempty"`
	RequireVerification bool                       `json:"require_verification"`
	Active              bool                       `json:"active"`
	GroupMeeting        availability.GroupMeeting  `json:"group_meeting"`
	Availability        *availability.Availability `json:"availability"`
	CreatedAt           string                     `json:"created_at"`
	UpdatedAt           string                     `json:"updated_at"`
}

func toEventTypeResponse(et model.EventType) eventTypeResponse {
	return eventTypeResponse{
		ID:                  et.ID,
		HostID:              et.HostID,
		Slug:                et.Slug,
		Title:               et.Title,
		Description:         et.Description,
		Location:            et.Location,
		DurationMinutes:     et.DurationMinutes,
		SlotIntervalMinutes: et.SlotIntervalMinutes,
		MinNoticeDays:       et.MinNoticeDays,
		RequireVerification: et.RequireVerification,
		Active:              et.Active,
		GroupMeeting:        et.Group,
		Availability:        et.Availability,
		CreatedAt:           formatTime(et.CreatedAt),
		UpdatedAt:           formatTime(et.UpdatedAt),
	}
}

// apply copies the settings of req onto et and reports the first invalid one.
func (req eventTypeRequest) apply(et *model.EventType) string {
	et.Title = strings.TrimSpace(req.Title)
	et.Description = strings.TrimSpace(req.Description)
	et.Location = strings.TrimSpace(req.Location)
	et.DurationMinutes = req.DurationMinutes
	et.SlotIntervalMinutes = req.SlotIntervalMinutes
	et.MinNoticeDays = req.MinNoticeDays
	et.RequireVerification = req.RequireVerification
	et.Group = req.GroupMeeting
	if req.Active != nil {
		et.Active = *req.Active
	}

	switch {
	case et.Title == "":
		return "title required"
	case et.DurationMinutes < minDurationMinutes || et.DurationMinutes > maxDurationMinutes:
		return "duration_minutes must be between 5 and 720"
	case et.SlotIntervalMinutes != 0 && (et.SlotIntervalMinutes < minDurationMinutes || et.SlotIntervalMinutes > maxDurationMinutes):
		return "slot_interval_minutes must be 0 or between 5 and 720"
	case et.MinNoticeDays != nil && *et.MinNoticeDays < 0:
		return "min_notice_days must not be negative"
	case et.Group.Enabled && (et.Group.MaxGuests < 1 || et.Group.MaxGuests > maxGroupGuests):
		return "group_meeting.max_guests must be between 1 and 1000"
	}
	return ""
}

func (h *Handler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	var req eventTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	et := model.EventType{HostID: auth.HostIDFromContext(r.Context()), Active: true}
	et.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(et.Slug) {
		http.Error(w, "slug must be lowercase letters, digits and dashes", http.StatusBadRequest)
		return
	}
	if msg := req.apply(&et); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if len(req.Availability) > 0 && string(req.Availability) != "null" {
		a, err := availability.Parse(req.Availability)
		if err != nil {
			writeConfigError(w, err)
			return
		}
		et.Availability = a
	}

	if err := h.eventTypes.Create(r.Context(), &et); err != nil {
		if errors.Is(err, storage.ErrDuplicateSlug) {
			http.Error(w, "slug already in use", http.StatusConflict)
			return
		}
		h.logger.Error("create event type failed", "err", err)
		http.Error(w, "failed to create event type", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toEventTypeResponse(et))
}

func (h *Handler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	ets, err := h.eventTypes.ListByHost(r.Context(), auth.HostIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list event types failed", "err", err)
		http.Error(w, "failed to list event types", http.StatusInternalServerError)
		return
	}
	items := make([]eventTypeResponse, 0, len(ets))
	for _, et := range ets {
		items = append(items, toEventTypeResponse(et))
	}
	writeJSON(w, http.StatusOK, items)
}

// ownedEventType loads the {id} event type and hides other hosts' rows as 404.
func (h *Handler) ownedEventType(w http.ResponseWriter, r *http.Request) (model.EventType, bool) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid event type id", http.StatusBadRequest)
		return model.EventType{}, false
	}
	et, err := h.eventTypes.Get(r.Context(), id)
	if err != nil || et.HostID != auth.HostIDFromContext(r.Context()) {
		if err == nil || storage.IsNotFound(err) {
			http.Error(w, "event type not found", http.StatusNotFound)
			return model.EventType{}, false
		}
		h.logger.Error("load event type failed", "err", err)
		http.Error(w, "failed to load event type", http.StatusInternalServerError)
		return model.EventType{}, false
	}
	return et, true
}

func (h *Handler) GetEventType(w http.ResponseWriter, r *http.Request) {
	et, ok := h.ownedEventType(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toEventTypeResponse(et))
}

func (h *Handler) UpdateEventType(w http.ResponseWriter, r *http.Request) {
	et, ok := h.ownedEventType(w, r)
	if !ok {
		return
	}
	var req eventTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.Availability) > 0 && string(req.Availability) != "null" {
		http.Error(w, "availability is updated through /availability", http.StatusBadRequest)
		return
	}
	if msg := req.apply(&et); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.eventTypes.Update(r.Context(), &et); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "event type not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update event type failed", "err", err, "event_type_id", et.ID)
		http.Error(w, "failed to update event type", http.StatusInternalServerError)
		return
	}
	h.calendar.Invalidate(r.Context(), et.ID)
	writeJSON(w, http.StatusOK, toEventTypeResponse(et))
}

// UpdateAvailability replaces the availability document. Invalid documents are
// rejected as a whole with per-field messages.
func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	et, ok := h.ownedEventType(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	a, err := availability.Parse(raw)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	if err := h.eventTypes.UpdateAvailability(r.Context(), et.ID, et.HostID, a); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "event type not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update availability failed", "err", err, "event_type_id", et.ID)
		http.Error(w, "failed to update availability", http.StatusInternalServerError)
		return
	}
	h.calendar.Invalidate(r.Context(), et.ID)

	et.Availability = a
	et.UpdatedAt = h.now()
	writeJSON(w, http.StatusOK, toEventTypeResponse(et))
}

type publicEventTypeResponse struct {
	ID                   string `json:"id"`
	Slug                 string `json:"slug"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	Location             string `json:"location"`
	DurationMinutes      int    `json:"duration_minutes"`
	Timezone             string `json:"timezone"`
	MinDate              string `json:"min_date"`
	RequiresVerification bool   `json:"requires_verification"`
	GroupMeeting         bool   `json:"group_meeting"`
	ShowRemainingSpots   bool   `json:"show_remaining_spots"`
}

// publicEventType loads an active event type for the booking page.
func (h *Handler) publicEventType(w http.ResponseWriter, r *http.Request, rawID string) (model.EventType, bool) {
	id, ok := parseID(rawID)
	if !ok {
		http.Error(w, "invalid event type id", http.StatusBadRequest)
		return model.EventType{}, false
	}
	et, err := h.eventTypes.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "event type not found", http.StatusNotFound)
			return model.EventType{}, false
		}
		h.logger.Error("load event type failed", "err", err)
		http.Error(w, "failed to load event type", http.StatusServiceUnavailable)
		return model.EventType{}, false
	}
	if !et.Active {
		http.Error(w, "event type not found", http.StatusNotFound)
		return model.EventType{}, false
	}
	return et, true
}

func (h *Handler) requiresVerification(et model.EventType) bool {
	return h.cfg.RequireVerification || et.RequireVerification
}

func (h *Handler) PublicEventType(w http.ResponseWriter, r *http.Request) {
	et, ok := h.publicEventType(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, publicEventTypeResponse{
		ID:                   et.ID,
		Slug:                 et.Slug,
		Title:                et.Title,
		Description:          et.Description,
		Location:             et.Location,
		DurationMinutes:      et.DurationMinutes,
		Timezone:             et.HostLocation().String(),
		MinDate:              h.calendar.MinDate(et).String(),
		RequiresVerification: h.requiresVerification(et),
		GroupMeeting:         et.Group.Enabled,
		ShowRemainingSpots:   et.Group.Enabled && et.Group.ShowRemainingSpots,
	})
}
