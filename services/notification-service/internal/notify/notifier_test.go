package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/meetslot/libs/kafkax"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/storage"
)

type memLog struct {
	rows []storage.Notification
	err  error
}

func (m *memLog) Insert(_ context.Context, n storage.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, n)
	return nil
}

func newNotifier(failSuffix string) (*Notifier, *email.Outbox, *memLog) {
	out := &email.Outbox{}
	log := &memLog{}
	n := New(out, log, slog.New(slog.NewJSONHandler(io.Discard, nil)), failSuffix)
	n.now = func() time.Time { return time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC) }
	return n, out, log
}

func message(t *testing.T, topic, id string, v any) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{
		Topic:   topic,
		Value:   raw,
		Headers: kafkax.EventMeta{EventID: id, EventType: topic}.Headers(),
	}
}

func confirmed() bookingPayload {
	return bookingPayload{
		BookingID:       "b-1",
		EventTitle:      "Intro call",
		GuestName:       "Ada",
		GuestEmail:      "ada@example.com",
		GuestTimezone:   "Asia/Tokyo",
		Location:        "Zoom",
		StartTime:       "2026-01-26T14:00:00Z",
		EndTime:         "2026-01-26T14:30:00Z",
		GuestStartLocal: "Mon Jan 26, 2026 11:00 PM JST",
	}
}

func TestHandleBookingConfirmed(t *testing.T) {
	n, out, log := newNotifier("")
	if err := n.Handle(context.Background(), message(t, TopicBookingConfirmed, "evt-1", confirmed())); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(out.Sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(out.Sent))
	}
	msg := out.Sent[0]
	if msg.To != "ada@example.com" {
		t.Fatalf("expected recipient ada@example.com, got %s", msg.To)
	}
	if !strings.Contains(msg.Subject, "Intro call") || !strings.Contains(msg.Body, "11:00 PM JST") {
		t.Fatalf("unexpected rendering %q / %q", msg.Subject, msg.Body)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(string(msg.Invite)))
	if err != nil {
		t.Fatalf("invite did not parse: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 || events[0].Id() != "b-1@meetslot" {
		t.Fatalf("expected one invite event for b-1, got %d", len(events))
	}

	if len(log.rows) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(log.rows))
	}
	row := log.rows[0]
	if row.EventID != "evt-1" || row.BookingID != "b-1" || row.Kind != email.KindBookingConfirmed || row.Status != storage.StatusSent {
		t.Fatalf("unexpected log row %+v", row)
	}
}

func TestHandleBookingCancelled(t *testing.T) {
	n, out, log := newNotifier("")
	p := confirmed()
	p.CancelledAt = "2026-01-20T10:00:00Z"
	p.Reason = "conflict"
	if err := n.Handle(context.Background(), message(t, TopicBookingCancelled, "evt-2", p)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(out.Sent) != 1 || !strings.Contains(out.Sent[0].Body, "Reason: conflict") {
		t.Fatalf("expected cancellation email with reason, got %+v", out.Sent)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(string(out.Sent[0].Invite)))
	if err != nil {
		t.Fatalf("invite did not parse: %v", err)
	}
	status := cal.Events()[0].GetProperty(ics.ComponentPropertyStatus)
	if status == nil || status.Value != string(ics.ObjectStatusCancelled) {
		t.Fatalf("expected CANCELLED status, got %+v", status)
	}
	if log.rows[0].Kind != email.KindBookingCancelled {
		t.Fatalf("expected cancelled kind, got %s", log.rows[0].Kind)
	}
}

func TestHandleVerificationCode(t *testing.T) {
	n, out, log := newNotifier("")
	p := verificationPayload{EventTitle: "Intro call", Email: "bob@example.com", Code: "123456", ExpiresAt: "2026-01-19T08:10:00Z"}
	if err := n.Handle(context.Background(), message(t, TopicVerificationRequested, "evt-3", p)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(out.Sent) != 1 || !strings.Contains(out.Sent[0].Body, "123456") {
		t.Fatalf("expected code email, got %+v", out.Sent)
	}
	if out.Sent[0].Invite != nil {
		t.Fatal("expected no invite on verification email")
	}
	if log.rows[0].BookingID != "" || log.rows[0].Kind != email.KindVerificationCode {
		t.Fatalf("unexpected log row %+v", log.rows[0])
	}
}

func TestHandleSendFailureIsRecorded(t *testing.T) {
	n, out, log := newNotifier("")
	out.Fail = func(email.Message) error { return errors.New("smtp down") }
	if err := n.Handle(context.Background(), message(t, TopicBookingConfirmed, "evt-4", confirmed())); err != nil {
		t.Fatalf("expected send failure to be recorded, got %v", err)
	}
	if log.rows[0].Status != storage.StatusFailed || log.rows[0].Error != "smtp down" {
		t.Fatalf("unexpected log row %+v", log.rows[0])
	}
}

func TestHandleFailSuffix(t *testing.T) {
	n, out, log := newNotifier("@fail.test")
	p := confirmed()
	p.GuestEmail = "x@fail.test"
	if err := n.Handle(context.Background(), message(t, TopicBookingConfirmed, "evt-5", p)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(out.Sent) != 0 {
		t.Fatalf("expected no email sent, got %d", len(out.Sent))
	}
	if log.rows[0].Status != storage.StatusFailed {
		t.Fatalf("expected failed status, got %s", log.rows[0].Status)
	}
}

func TestHandleDropsMalformed(t *testing.T) {
	n, out, log := newNotifier("")
	msg := kafka.Message{Topic: TopicBookingConfirmed, Value: []byte("{nope")}
	if err := n.Handle(context.Background(), msg); err != nil {
		t.Fatalf("expected malformed payload to be dropped, got %v", err)
	}
	if err := n.Handle(context.Background(), message(t, "something.else.v1", "evt-6", map[string]string{})); err != nil {
		t.Fatalf("expected unknown topic to be dropped, got %v", err)
	}
	if len(out.Sent) != 0 || len(log.rows) != 0 {
		t.Fatalf("expected nothing processed, got %d sent and %d rows", len(out.Sent), len(log.rows))
	}
}

func TestHandleReturnsLogError(t *testing.T) {
	n, _, log := newNotifier("")
	log.err = errors.New("db down")
	if err := n.Handle(context.Background(), message(t, TopicBookingConfirmed, "evt-7", confirmed())); err == nil {
		t.Fatal("expected log error to be returned")
	}
}
