package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/storage"
)

type fakeEventTypes struct {
	mu  sync.Mutex
	ets map[string]model.EventType
}

func newFakeEventTypes() *fakeEventTypes {
	return &fakeEventTypes{ets: map[string]model.EventType{}}
}

func (f *fakeEventTypes) put(et model.EventType) model.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	if et.ID == "" {
		et.ID = uuid.NewString()
	}
	f.ets[et.ID] = et
	return et
}

func (f *fakeEventTypes) Create(_ context.Context, et *model.EventType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.ets {
		if existing.HostID == et.HostID && existing.Slug == et.Slug {
			return storage.ErrDuplicateSlug
		}
	}
	et.ID = uuid.NewString()
	et.CreatedAt = time.Now()
	et.UpdatedAt = et.CreatedAt
	f.ets[et.ID] = *et
	return nil
}

func (f *fakeEventTypes) Get(_ context.Context, id string) (model.EventType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	et, ok := f.ets[id]
	if !ok {
		return model.EventType{}, storage.ErrNotFound
	}
	return et, nil
}

func (f *fakeEventTypes) ListByHost(_ context.Context, hostID string) ([]model.EventType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.EventType
	for _, et := range f.ets {
		if et.HostID == hostID {
			out = append(out, et)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeEventTypes) Update(_ context.Context, et *model.EventType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.ets[et.ID]
	if !ok || cur.HostID != et.HostID {
		return storage.ErrNotFound
	}
	et.Availability = cur.Availability
	f.ets[et.ID] = *et
	return nil
}

func (f *fakeEventTypes) UpdateAvailability(_ context.Context, id, hostID string, a *availability.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.ets[id]
	if !ok || cur.HostID != hostID {
		return storage.ErrNotFound
	}
	cur.Availability = a
	f.ets[id] = cur
	return nil
}

// fakeBookings mimics BookingRepository, including capacity and idempotency.
type fakeBookings struct {
	mu       sync.Mutex
	bookings []model.Booking
	keys     map[string]storage.CreateResult
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{keys: map[string]storage.CreateResult{}}
}

func (f *fakeBookings) Create(ctx context.Context, p storage.CreateParams) (storage.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idem := p.Booking.EventTypeID + "|" + p.IdempotencyKey
	if p.IdempotencyKey != "" {
		if res, ok := f.keys[idem]; ok {
			res.Replayed = true
			return res, nil
		}
	}

	taken := 0
	for _, b := range f.bookings {
		if b.EventTypeID != p.Booking.EventTypeID || b.Status != model.BookingConfirmed || !b.StartTime.Equal(p.Booking.StartTime) {
			continue
		}
		if strings.EqualFold(b.GuestEmail, p.Booking.GuestEmail) {
			return storage.CreateResult{}, storage.ErrSlotTaken
		}
		taken++
	}
	if taken >= p.Capacity {
		if p.IdempotencyKey != "" {
			f.keys[idem] = storage.CreateResult{StatusCode: http.StatusConflict, Payload: storage.SlotFullPayload()}
		}
		return storage.CreateResult{}, storage.ErrSlotFull
	}

	b := p.Booking
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	if p.AfterInsert != nil {
		var tx pgx.Tx
		if err := p.AfterInsert(ctx, tx, b); err != nil {
			return storage.CreateResult{}, err
		}
	}
	var payload []byte
	if p.Render != nil {
		var err error
		if payload, err = p.Render(b); err != nil {
			return storage.CreateResult{}, err
		}
	}
	f.bookings = append(f.bookings, b)
	res := storage.CreateResult{Booking: b, StatusCode: 201, Payload: payload}
	if p.IdempotencyKey != "" {
		f.keys[idem] = res
	}
	return res, nil
}

func (f *fakeBookings) StoredResponse(_ context.Context, eventTypeID, key string) (storage.CreateResult, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.keys[eventTypeID+"|"+key]
	if !ok {
		return storage.CreateResult{}, false, nil
	}
	res.Replayed = true
	return res, true, nil
}

func (f *fakeBookings) Cancel(ctx context.Context, hostID, bookingID, reason string, hook storage.TxHook) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.bookings {
		if b.ID != bookingID || b.HostID != hostID {
			continue
		}
		if b.Status == model.BookingCancelled {
			return b, storage.ErrAlreadyCancelled
		}
		now := time.Now()
		b.Status = model.BookingCancelled
		b.CancelledAt = &now
		b.CancelReason = reason
		if hook != nil {
			if err := hook(ctx, nil, b); err != nil {
				return model.Booking{}, err
			}
		}
		f.bookings[i] = b
		return b, nil
	}
	return model.Booking{}, storage.ErrNotFound
}

func (f *fakeBookings) ListByEventType(_ context.Context, eventTypeID string, from, to time.Time, withCancelled bool, limit int) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if b.EventTypeID != eventTypeID || b.StartTime.Before(from) || !b.StartTime.Before(to) {
			continue
		}
		if !withCancelled && b.Status != model.BookingConfirmed {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBookings) CountConfirmedByStart(_ context.Context, eventTypeID string, from, to time.Time) ([]storage.StartCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[time.Time]int{}
	for _, b := range f.bookings {
		if b.EventTypeID == eventTypeID && b.Status == model.BookingConfirmed && !b.StartTime.Before(from) && b.StartTime.Before(to) {
			counts[b.StartTime.UTC()]++
		}
	}
	out := make([]storage.StartCount, 0, len(counts))
	for start, n := range counts {
		out = append(out, storage.StartCount{Start: start, Count: n})
	}
	return out, nil
}

// fakeOutbox serves as both the in-transaction writer and the emitter.
type fakeOutbox struct {
	mu     sync.Mutex
	events []outbox.Event
}

func (f *fakeOutbox) Insert(_ context.Context, _ pgx.Tx, evt outbox.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeOutbox) Emit(ctx context.Context, evt outbox.Event) error {
	return f.Insert(ctx, nil, evt)
}

func (f *fakeOutbox) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}
