package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/meetslot/libs/db"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
)

type EventTypeRepository struct {
	pool *db.Pool
}

func NewEventTypeRepository(pool *db.Pool) *EventTypeRepository {
	return &EventTypeRepository{pool: pool}
}

const eventTypeColumns = `
	id::text, host_id, slug, title, description, location, duration_minutes,
	slot_interval_minutes, min_notice_days, require_verification, active,
	group_enabled, group_max_guests, group_show_remaining, availability,
	created_at, updated_at`

func (r *EventTypeRepository) Create(ctx context.Context, et *model.EventType) error {
	raw, err := encodeAvailability(et.Availability)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO event_types
			(host_id, slug, title, description, location, duration_minutes, slot_interval_minutes,
			 min_notice_days, require_verification, active, group_enabled, group_max_guests,
			 group_show_remaining, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id::text, created_at, updated_at
	`, et.HostID, et.Slug, et.Title, et.Description, et.Location, et.DurationMinutes, nullableInt(et.SlotIntervalMinutes),
		et.MinNoticeDays, et.RequireVerification, et.Active, et.Group.Enabled, et.Group.Capacity(),
		et.Group.ShowRemainingSpots, raw).Scan(&et.ID, &et.CreatedAt, &et.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", et.Slug, ErrDuplicateSlug)
		}
		return fmt.Errorf("insert event type: %w", err)
	}
	return nil
}

func (r *EventTypeRepository) Get(ctx context.Context, id string) (model.EventType, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventTypeColumns+` FROM event_types WHERE id = $1`, id)
	et, err := scanEventType(row)
	if err != nil {
		if db.IsNotFound(err) {
			return model.EventType{}, ErrNotFound
		}
		return model.EventType{}, fmt.Errorf("get event type: %w", err)
	}
	return et, nil
}

func (r *EventTypeRepository) ListByHost(ctx context.Context, hostID string) ([]model.EventType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE host_id = $1
		ORDER BY created_at ASC
	`, hostID)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	return collectEventTypes(rows)
}

// ListGroupEnabled returns active group events; the rollup warmer precomputes
// their month views since those are the ones that fill up.
func (r *EventTypeRepository) ListGroupEnabled(ctx context.Context) ([]model.EventType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE active AND group_enabled
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list group event types: %w", err)
	}
	return collectEventTypes(rows)
}

// Update writes the settings of an event type owned by et.HostID. The
// availability document is left alone; see UpdateAvailability.
func (r *EventTypeRepository) Update(ctx context.Context, et *model.EventType) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE event_types
		SET title = $3,
			description = $4,
			location = $5,
			duration_minutes = $6,
			slot_interval_minutes = $7,
			min_notice_days = $8,
			require_verification = $9,
			active = $10,
			group_enabled = $11,
			group_max_guests = $12,
			group_show_remaining = $13,
			updated_at = now()
		WHERE id = $1 AND host_id = $2
		RETURNING updated_at
	`, et.ID, et.HostID, et.Title, et.Description, et.Location, et.DurationMinutes, nullableInt(et.SlotIntervalMinutes),
		et.MinNoticeDays, et.RequireVerification, et.Active, et.Group.Enabled, et.Group.Capacity(),
		et.Group.ShowRemainingSpots).Scan(&et.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update event type: %w", err)
	}
	return nil
}

func (r *EventTypeRepository) UpdateAvailability(ctx context.Context, id, hostID string, a *availability.Availability) error {
	raw, err := encodeAvailability(a)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE event_types
		SET availability = $3, updated_at = now()
		WHERE id = $1 AND host_id = $2
	`, id, hostID, raw)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectEventTypes(rows pgx.Rows) ([]model.EventType, error) {
	defer rows.Close()
	var out []model.EventType
	for rows.Next() {
		et, err := scanEventType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanEventType(row pgx.Row) (model.EventType, error) {
	var (
		et       model.EventType
		interval *int
		raw      []byte
	)
	err := row.Scan(
		&et.ID,
		&et.HostID,
		&et.Slug,
		&et.Title,
		&et.Description,
		&et.Location,
		&et.DurationMinutes,
		&interval,
		&et.MinNoticeDays,
		&et.RequireVerification,
		&et.Active,
		&et.Group.Enabled,
		&et.Group.MaxGuests,
		&et.Group.ShowRemainingSpots,
		&raw,
		&et.CreatedAt,
		&et.UpdatedAt,
	)
	if err != nil {
		return model.EventType{}, err
	}
	if interval != nil {
		et.SlotIntervalMinutes = *interval
	}
	if len(raw) > 0 {
		a, err := availability.Parse(raw)
		if err != nil {
			return model.EventType{}, fmt.Errorf("event type %s: stored availability: %w", et.ID, err)
		}
		et.Availability = a
	}
	return et, nil
}

func encodeAvailability(a *availability.Availability) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode availability: %w", err)
	}
	return raw, nil
}

func nullableInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
