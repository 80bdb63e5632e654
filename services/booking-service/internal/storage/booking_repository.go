package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/meetslot/libs/db"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	EventTypeID     string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// TxHook runs inside the booking transaction after the row is written. It is
// how callers append outbox events atomically with the booking.
type TxHook func(ctx context.Context, tx pgx.Tx, b model.Booking) error

type CreateParams struct {
	Booking        model.Booking
	Capacity       int
	IdempotencyKey string
	// Render produces the response body stored for idempotent replays.
	Render      func(model.Booking) ([]byte, error)
	AfterInsert TxHook
}

type CreateResult struct {
	Booking    model.Booking
	StatusCode int
	Payload    []byte
	Replayed   bool
}

// Create books a slot in one transaction: idempotency lock, capacity check and
// insert, the AfterInsert hook, and idempotency finalize.
//
// A replayed key returns the stored status and payload with Replayed set. A
// full slot is finalized as 409 so retries with the same key stay consistent.
func (r *BookingRepository) Create(ctx context.Context, p CreateParams) (CreateResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	key := p.IdempotencyKey
	if key != "" {
		rec, exists, err := r.LockIdempotencyKey(ctx, tx, p.Booking.EventTypeID, key)
		if err != nil {
			return CreateResult{}, fmt.Errorf("lock idempotency key: %w", err)
		}
		if exists && rec.StatusCode > 0 {
			return CreateResult{StatusCode: rec.StatusCode, Payload: rec.ResponsePayload, Replayed: true}, nil
		}
	}

	b, err := r.CreateWithCapacity(ctx, tx, p.Booking, p.Capacity)
	if err != nil {
		if errors.Is(err, ErrSlotFull) && key != "" {
			if ferr := r.FinalizeIdempotency(ctx, tx, p.Booking.EventTypeID, key, "", http.StatusConflict, SlotFullPayload()); ferr == nil {
				_ = tx.Commit(ctx)
			}
		}
		return CreateResult{}, err
	}

	if p.AfterInsert != nil {
		if err := p.AfterInsert(ctx, tx, b); err != nil {
			return CreateResult{}, err
		}
	}

	var payload []byte
	if p.Render != nil {
		if payload, err = p.Render(b); err != nil {
			return CreateResult{}, fmt.Errorf("render booking: %w", err)
		}
	}
	if key != "" {
		if err := r.FinalizeIdempotency(ctx, tx, b.EventTypeID, key, b.ID, http.StatusCreated, payload); err != nil {
			return CreateResult{}, fmt.Errorf("finalize idempotency key: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return CreateResult{}, fmt.Errorf("commit booking: %w", err)
	}
	return CreateResult{Booking: b, StatusCode: http.StatusCreated, Payload: payload}, nil
}

// CreateWithCapacity serializes bookings per event type by locking its row,
// then inserts only while fewer than capacity confirmed bookings share the
// start instant. The partial unique index on single-guest slots backs this up.
func (r *BookingRepository) CreateWithCapacity(ctx context.Context, tx pgx.Tx, b model.Booking, capacity int) (model.Booking, error) {
	if capacity < 1 {
		capacity = 1
	}

	var hostID string
	err := tx.QueryRow(ctx, `
		SELECT host_id FROM event_types WHERE id = $1 FOR UPDATE
	`, b.EventTypeID).Scan(&hostID)
	if err != nil {
		if db.IsNotFound(err) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("lock event type: %w", err)
	}

	var taken int
	err = tx.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings
		WHERE event_type_id = $1 AND start_time = $2 AND status = 'confirmed'
	`, b.EventTypeID, b.StartTime).Scan(&taken)
	if err != nil {
		return model.Booking{}, fmt.Errorf("count bookings: %w", err)
	}
	if taken >= capacity {
		return model.Booking{}, ErrSlotFull
	}

	b.HostID = hostID
	b.Status = model.BookingConfirmed
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings
			(event_type_id, host_id, guest_name, guest_email, guest_timezone, notes,
			 start_time, end_time, single_guest, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at
	`, b.EventTypeID, b.HostID, b.GuestName, b.GuestEmail, b.GuestTimezone, b.Notes,
		b.StartTime, b.EndTime, capacity == 1, b.Status).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return model.Booking{}, ErrSlotTaken
		}
		return model.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

// StoredResponse returns the finalized response of an idempotency key without
// locking it, so retries can be answered before any other check runs.
func (r *BookingRepository) StoredResponse(ctx context.Context, eventTypeID, key string) (CreateResult, bool, error) {
	var status int
	var payload string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(status_code, 0), COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE event_type_id = $1 AND idempotency_key = $2
	`, eventTypeID, key).Scan(&status, &payload)
	if err != nil {
		if db.IsNotFound(err) {
			return CreateResult{}, false, nil
		}
		return CreateResult{}, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if status == 0 {
		return CreateResult{}, false, nil
	}
	return CreateResult{StatusCode: status, Payload: []byte(payload), Replayed: true}, true, nil
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, eventTypeID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, eventTypeID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (event_type_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (event_type_id, idempotency_key) DO NOTHING
	`, eventTypeID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, eventTypeID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, eventTypeID, key, bookingID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = NULLIF($3, '')::uuid,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE event_type_id = $1 AND idempotency_key = $2
	`, eventTypeID, key, bookingID, statusCode, response)
	return err
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, eventTypeID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT event_type_id::text,
			idempotency_key,
			COALESCE(booking_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE event_type_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, eventTypeID, key).Scan(
		&rec.EventTypeID,
		&rec.IdempotencyKey,
		&rec.BookingID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}

// StartCount is the number of confirmed bookings sharing one start instant.
type StartCount struct {
	Start time.Time
	Count int
}

// CountConfirmedByStart groups confirmed bookings of an event type in
// [from, to) by start instant. It is the occupancy source for slot filtering.
func (r *BookingRepository) CountConfirmedByStart(ctx context.Context, eventTypeID string, from, to time.Time) ([]StartCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, count(*)
		FROM bookings
		WHERE event_type_id = $1
			AND status = 'confirmed'
			AND start_time >= $2
			AND start_time < $3
		GROUP BY start_time
		ORDER BY start_time
	`, eventTypeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count confirmed bookings: %w", err)
	}
	defer rows.Close()

	var out []StartCount
	for rows.Next() {
		var sc StartCount
		if err := rows.Scan(&sc.Start, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

const bookingColumns = `
	id::text, event_type_id::text, host_id, guest_name, guest_email, guest_timezone, notes,
	start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.EventTypeID,
		&b.HostID,
		&b.GuestName,
		&b.GuestEmail,
		&b.GuestTimezone,
		&b.Notes,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CancelledAt,
		&b.CancelReason,
		&b.CreatedAt,
	)
	return b, err
}

// ListByEventType returns bookings of an event type starting in [from, to),
// oldest first. Cancelled bookings are included only when withCancelled is set.
func (r *BookingRepository) ListByEventType(ctx context.Context, eventTypeID string, from, to time.Time, withCancelled bool, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE event_type_id = $1
			AND start_time >= $2
			AND start_time < $3
			AND ($4 OR status = 'confirmed')
		ORDER BY start_time ASC
		LIMIT $5
	`, eventTypeID, from, to, withCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, hostID, bookingID string) (model.Booking, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1 AND host_id = $2
		FOR UPDATE
	`, bookingID, hostID)
	b, err := scanBooking(row)
	if err != nil {
		if db.IsNotFound(err) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// Cancel marks a host's booking cancelled and runs hook in the same
// transaction. Cancelling twice returns the stored booking and
// ErrAlreadyCancelled.
func (r *BookingRepository) Cancel(ctx context.Context, hostID, bookingID, reason string, hook TxHook) (model.Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Booking{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := r.GetForUpdate(ctx, tx, hostID, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status == model.BookingCancelled {
		return b, ErrAlreadyCancelled
	}

	var cancelledAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND host_id = $2
		RETURNING cancelled_at
	`, bookingID, hostID, reason).Scan(&cancelledAt)
	if err != nil {
		return model.Booking{}, fmt.Errorf("cancel booking: %w", err)
	}
	b.Status = model.BookingCancelled
	b.CancelledAt = &cancelledAt
	b.CancelReason = reason

	if hook != nil {
		if err := hook(ctx, tx, b); err != nil {
			return model.Booking{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Booking{}, fmt.Errorf("commit cancel: %w", err)
	}
	return b, nil
}

// SlotFullPayload is the JSON body of a 409 for a full slot, both when first
// rejected and when replayed from an idempotency key.
func SlotFullPayload() []byte {
	body, _ := json.Marshal(map[string]string{"error": ErrSlotFull.Error()})
	return body
}
