package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/solistore/checkout/internal/store"
)

// StoreFactory builds a session-scoped store for the given session ID.
type StoreFactory func(sessionID string) store.Store

// Cache keeps one live Manager per browsing session so that in-memory state
// (the payment intent latch, the client secret) survives across requests of
// the same session. Two sessions never share a manager; two tabs of the same
// session do, which matches the last-write-wins model of the storage layer.
type Cache struct {
	mu       sync.Mutex
	managers map[string]*Manager
	factory  StoreFactory
	logger   *slog.Logger
}

// NewCache creates a manager cache backed by the given store factory.
func NewCache(factory StoreFactory, logger *slog.Logger) *Cache {
	return &Cache{
		managers: make(map[string]*Manager),
		factory:  factory,
		logger:   logger,
	}
}

// Get returns the live manager for the session, hydrating a new one from the
// session's store on first access. A cached manager whose persisted checkout
// has outlived its TTL is discarded here: a tab left idle past the deadline
// must resume with an empty checkout, not with state kept alive in memory.
func (c *Cache) Get(ctx context.Context, sessionID string) *Manager {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.managers[sessionID]; ok {
		if !m.Expired(ctx) {
			return m
		}
		delete(c.managers, sessionID)
		c.logger.InfoContext(ctx, "discarding idle checkout manager",
			slog.String("session_id", sessionID),
		)
	}

	m := NewManager(ctx, sessionID, c.factory(sessionID), c.logger)
	c.managers[sessionID] = m
	return m
}

// Evict drops the live manager for the session. The next Get re-hydrates
// from storage.
func (c *Cache) Evict(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.managers, sessionID)
}
