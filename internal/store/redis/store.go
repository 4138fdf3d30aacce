package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solistore/checkout/internal/store"
)

const keyPrefix = "checkout:"

// SessionStore implements store.Store on Redis, scoped to one browsing
// session. Keys carry a physical Redis TTL of twice the logical TTL as a
// safety net, but expiry decisions are made from the stored last-modified
// timestamp so that hydration and storage agree on the cutoff.
type SessionStore struct {
	client    *redis.Client
	sessionID string
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewSessionStore creates a Redis-backed checkout store for the given session.
func NewSessionStore(client *redis.Client, sessionID string, ttl time.Duration, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		client:    client,
		sessionID: sessionID,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *SessionStore) key(field store.Field) string {
	return keyPrefix + s.sessionID + ":" + string(field)
}

// Read returns the stored value for the field, or ok=false if absent or the
// backend call fails.
func (s *SessionStore) Read(ctx context.Context, field store.Field) ([]byte, bool) {
	data, err := s.client.Get(ctx, s.key(field)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WarnContext(ctx, "checkout store read failed",
				slog.String("field", string(field)),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}
	return data, true
}

// Write stores the value and refreshes the shared last-modified timestamp.
// Failures are logged and swallowed.
func (s *SessionStore) Write(ctx context.Context, field store.Field, value []byte) {
	physicalTTL := 2 * s.ttl

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(field), value, physicalTTL)
	if field != store.FieldLastModified {
		ts := s.now().UTC().Format(time.RFC3339Nano)
		pipe.Set(ctx, s.key(store.FieldLastModified), ts, physicalTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WarnContext(ctx, "checkout store write failed",
			slog.String("field", string(field)),
			slog.String("error", err.Error()),
		)
	}
}

// Clear removes every known checkout field for the session.
func (s *SessionStore) Clear(ctx context.Context) {
	keys := make([]string, 0, len(store.Fields()))
	for _, f := range store.Fields() {
		keys = append(keys, s.key(f))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.WarnContext(ctx, "checkout store clear failed",
			slog.String("error", err.Error()),
		)
	}
}

// IsExpired reports whether the stored last-modified timestamp is older than
// the TTL. A missing or unparseable timestamp means nothing to expire.
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
