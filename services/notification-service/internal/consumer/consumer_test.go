package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/meetslot/libs/kafkax"
)

type memInbox struct {
	seen map[string]bool
	err  error
}

func (m *memInbox) Record(_ context.Context, id, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func newTestConsumer(in Inbox, calls *int) *Consumer {
	return &Consumer{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		inbox:  in,
		handler: func(context.Context, kafka.Message) error {
			*calls++
			return nil
		},
	}
}

func TestProcessSkipsDuplicates(t *testing.T) {
	calls := 0
	c := newTestConsumer(&memInbox{seen: map[string]bool{}}, &calls)
	msg := kafka.Message{Topic: "booking.confirmed.v1", Headers: kafkax.EventMeta{EventID: "e1", EventType: "booking.confirmed.v1"}.Headers()}

	for i := 0; i < 3; i++ {
		if err := c.Process(context.Background(), msg); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
}

func TestProcessIgnoresMissingID(t *testing.T) {
	calls := 0
	c := newTestConsumer(&memInbox{seen: map[string]bool{}}, &calls)
	if err := c.Process(context.Background(), kafka.Message{Topic: "booking.confirmed.v1"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no handler call, got %d", calls)
	}
}

func TestProcessInboxError(t *testing.T) {
	calls := 0
	c := newTestConsumer(&memInbox{err: errors.New("db down")}, &calls)
	msg := kafka.Message{Key: []byte("e1"), Topic: "booking.confirmed.v1"}
	if err := c.Process(context.Background(), msg); err == nil {
		t.Fatal("expected inbox error")
	}
	if calls != 0 {
		t.Fatalf("expected no handler call, got %d", calls)
	}
}

func TestNewRequiresTopics(t *testing.T) {
	if _, err := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), &memInbox{}, Config{Brokers: "localhost:9092"}, nil); err == nil {
		t.Fatal("expected error without topics")
	}
}
