// Package memory provides an in-memory store.Store. It backs tests and
// deployments where checkout progress does not need to survive the process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/solistore/checkout/internal/store"
)

// SessionStore implements store.Store with an in-process map.
type SessionStore struct {
	mu     sync.RWMutex
	data   map[store.Field][]byte
	ttl    time.Duration
	nowFn  func() time.Time
	nowMu  sync.RWMutex
}

// NewSessionStore creates an in-memory checkout store with the given TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		data:  make(map[store.Field][]byte),
		ttl:   ttl,
		nowFn: time.Now,
	}
}

// SetClock overrides the store's notion of now. Intended for tests.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.nowMu.Lock()
	defer s.nowMu.Unlock()
	s.nowFn = now
}

func (s *SessionStore) now() time.Time {
	s.nowMu.RLock()
	defer s.nowMu.RUnlock()
	return s.nowFn()
}

// Read returns the stored value for the field, or ok=false if absent.
func (s *SessionStore) Read(_ context.Context, field store.Field) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[field]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true
}

// Write stores the value and refreshes the shared last-modified timestamp.
func (s *SessionStore) Write(_ context.Context, field store.Field, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[field] = cp
	if field != store.FieldLastModified {
		ts := s.now().UTC().Format(time.RFC3339Nano)
		s.data[store.FieldLastModified] = []byte(ts)
	}
}

// Clear removes every known checkout field.
func (s *SessionStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range store.Fields() {
		delete(s.data, f)
	}
}

// IsExpired reports whether the last-modified timestamp is older than the TTL.
func (s *SessionStore) IsExpired(ctx context.Context) bool {
	raw, ok := s.Read(ctx, store.FieldLastModified)
	if !ok {
		return false
	}
	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return false
	}
	return s.now().UTC().Sub(ts) > s.ttl
}
