// Package notify turns booking events into guest emails and records the outcome.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/meetslot/libs/kafkax"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/storage"
)

type Log interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Notifier struct {
	sender email.Sender
	log    Log
	logger *slog.Logger
	// Recipients ending in failSuffix are marked failed without sending.
	failSuffix string
	now        func() time.Time
}

func New(sender email.Sender, log Log, logger *slog.Logger, failSuffix string) *Notifier {
	return &Notifier{
		sender:     sender,
		log:        log,
		logger:     logger,
		failSuffix: strings.TrimSpace(failSuffix),
		now:        time.Now,
	}
}

// Handle is a consumer.Handler. Malformed payloads are logged and dropped;
// only failures to record the outcome are returned.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	topic := meta.EventType
	if topic == "" {
		topic = msg.Topic
	}

	var (
		rec    storage.Notification
		outMsg email.Message
	)
	rec.EventID = meta.EventID

	switch topic {
	case TopicBookingConfirmed, TopicBookingCancelled:
		var p bookingPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil || p.BookingID == "" || p.GuestEmail == "" {
			n.logger.Error("invalid booking payload", "err", err, "topic", topic)
			return nil
		}
		cancelled := topic == TopicBookingCancelled
		rec.BookingID = p.BookingID
		rec.Kind = email.KindBookingConfirmed
		if cancelled {
			rec.Kind = email.KindBookingCancelled
		}
		outMsg.To = p.GuestEmail
		subject, body, err := email.Render(rec.Kind, p)
		if err != nil {
			n.logger.Error("render failed", "err", err, "kind", rec.Kind)
			return nil
		}
		outMsg.Subject, outMsg.Body = subject, body
		if inv, err := invite(p, cancelled, n.now()); err != nil {
			n.logger.Warn("invite skipped", "err", err, "booking_id", p.BookingID)
		} else {
			outMsg.Invite = inv
		}
	case TopicVerificationRequested:
		var p verificationPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil || p.Email == "" || p.Code == "" {
			n.logger.Error("invalid verification payload", "err", err)
			return nil
		}
		rec.Kind = email.KindVerificationCode
		outMsg.To = p.Email
		subject, body, err := email.Render(rec.Kind, p)
		if err != nil {
			n.logger.Error("render failed", "err", err, "kind", rec.Kind)
			return nil
		}
		outMsg.Subject, outMsg.Body = subject, body
	default:
		n.logger.Warn("unhandled topic", "topic", topic)
		return nil
	}

	rec.Channel = "email"
	rec.Recipient = outMsg.To
	rec.Subject = outMsg.Subject
	rec.Status = storage.StatusSent

	switch {
	case n.failSuffix != "" && strings.HasSuffix(outMsg.To, n.failSuffix):
		rec.Status = storage.StatusFailed
		rec.Error = "simulated failure"
	default:
		if err := n.sender.Send(ctx, outMsg); err != nil {
			rec.Status = storage.StatusFailed
			rec.Error = err.Error()
			n.logger.Error("email send failed", "err", err, "recipient", outMsg.To)
		}
	}

	if err := n.log.Insert(ctx, rec); err != nil {
		n.logger.Error("failed to persist notification", "err", err)
		return err
	}
	n.logger.Info("notification processed", "kind", rec.Kind, "booking_id", rec.BookingID, "status", rec.Status)
	return nil
}
