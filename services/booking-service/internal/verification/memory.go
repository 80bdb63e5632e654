package verification

import (
	"context"
	"strings"
	"sync"
	"time"
)

type pending struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// MemoryStore is the single-process Store used when Redis is not configured.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	codes map[string]pending
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, codes: map[string]pending{}}
}

func (s *MemoryStore) Issue(_ context.Context, scope, email string) (string, time.Time, error) {
	code, err := NewCode()
	if err != nil {
		return "", time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	expiresAt := now.Add(s.ttl)
	s.codes[storeKey(scope, email)] = pending{code: code, expiresAt: expiresAt}
	return code, expiresAt, nil
}

func (s *MemoryStore) Consume(_ context.Context, scope, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(scope, email)
	p, ok := s.codes[key]
	if !ok || !s.now().Before(p.expiresAt) {
		delete(s.codes, key)
		return ErrCodeExpired
	}
	if p.code != strings.TrimSpace(code) {
		p.attempts++
		if p.attempts >= MaxAttempts {
			delete(s.codes, key)
			return ErrTooManyAttempts
		}
		s.codes[key] = p
		return ErrCodeMismatch
	}
	delete(s.codes, key)
	return nil
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for k, p := range s.codes {
		if !now.Before(p.expiresAt) {
			delete(s.codes, k)
		}
	}
}

// Len reports pending codes, expired ones included until the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}
