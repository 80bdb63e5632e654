// Package rollupcache stores computed month rollups per event type.
//
// Entries are namespaced by a per-event-type version. Invalidate bumps the
// version so every cached month of that event type becomes unreachable at
// once; stale entries age out through their TTL.
package rollupcache

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Minute

type Cache interface {
	Get(ctx context.Context, eventTypeID, key string) ([]byte, bool, error)
	Set(ctx context.Context, eventTypeID, key string, value []byte) error
	Invalidate(ctx context.Context, eventTypeID string) error
}

type entry struct {
	eventTypeID string
	version     int64
	value       []byte
	expiresAt   time.Time
}

// Memory is an in-process Cache for single replica deployments and tests.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	versions map[string]int64
	entries  map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:      ttl,
		now:      time.Now,
		versions: map[string]int64{},
		entries:  map[string]entry{},
	}
}

func (m *Memory) Get(_ context.Context, eventTypeID, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[eventTypeID+"|"+key]
	if !ok || e.version != m.versions[eventTypeID] || !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, eventTypeID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)
	m.entries[eventTypeID+"|"+key] = entry{
		eventTypeID: eventTypeID,
		version:     m.versions[eventTypeID],
		value:       append([]byte(nil), value...),
		expiresAt:   now.Add(m.ttl),
	}
	return nil
}

// sweepLocked drops expired entries and entries from a superseded version.
func (m *Memory) sweepLocked(now time.Time) {
	for k, e := range m.entries {
		if e.version != m.versions[e.eventTypeID] || !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// Len reports how many entries are held, live or not yet swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Invalidate(_ context.Context, eventTypeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[eventTypeID]++
	return nil
}

// Noop disables caching.
type Noop struct{}

func (Noop) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, string, []byte) error         { return nil }
func (Noop) Invalidate(context.Context, string) error                  { return nil }
