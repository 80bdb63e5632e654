package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/events"
)

type verificationRequest struct {
	EventTypeID string `json:"event_type_id"`
	Email       string `json:"email"`
}

type verificationResponse struct {
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

// RequestVerificationCode issues a code for a guest email and queues the email
// that delivers it. The code itself is never returned.
func (h *Handler) RequestVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	et, ok := h.publicEventType(w, r, req.EventTypeID)
	if !ok {
		return
	}

	ctx := r.Context()
	email := strings.ToLower(addr.Address)
	code, expiresAt, err := h.codes.Issue(ctx, et.ID, email)
	if err != nil {
		h.logger.Error("issue verification code failed", "err", err)
		http.Error(w, "verification unavailable", http.StatusServiceUnavailable)
		return
	}
	evt, err := events.VerificationRequested(et, email, code, expiresAt)
	if err != nil {
		http.Error(w, "failed to build verification event", http.StatusInternalServerError)
		return
	}
	if err := h.emitter.Emit(ctx, evt); err != nil {
		h.logger.Error("queue verification email failed", "err", err, "event_type_id", et.ID)
		http.Error(w, "failed to queue verification email", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, verificationResponse{Email: email, ExpiresAt: formatTime(expiresAt)})
}
