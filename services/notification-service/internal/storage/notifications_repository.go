package storage

import (
	"context"

	"github.com/md-rashed-zaman/meetslot/libs/db"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type Notification struct {
	EventID   string
	BookingID string
	Kind      string
	Channel   string
	Recipient string
	Subject   string
	Status    string
	Error     string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	channel := n.Channel
	if channel == "" {
		channel = "email"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (event_id, booking_id, kind, channel, recipient, subject, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.EventID, n.BookingID, n.Kind, channel, n.Recipient, n.Subject, n.Status, n.Error)
	return err
}
