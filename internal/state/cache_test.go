package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solistore/checkout/internal/domain"
	"github.com/solistore/checkout/internal/store"
	"github.com/solistore/checkout/internal/store/memory"
)

func newTestCache() *Cache {
	stores := make(map[string]store.Store)
	return NewCache(func(sessionID string) store.Store {
		if st, ok := stores[sessionID]; ok {
			return st
		}
		st := memory.NewSessionStore(time.Hour)
		stores[sessionID] = st
		return st
	}, testLogger())
}

func TestCache_Get_SameSessionSameManager(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	m1 := c.Get(ctx, "session-001")
	m2 := c.Get(ctx, "session-001")

	assert.Same(t, m1, m2)
}

func TestCache_Get_DifferentSessionsDifferentManagers(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	m1 := c.Get(ctx, "session-001")
	m2 := c.Get(ctx, "session-002")

	assert.NotSame(t, m1, m2)
}

func TestCache_Get_ExpiredWhileLiveIsDiscarded(t *testing.T) {
	st := memory.NewSessionStore(time.Hour)
	c := NewCache(func(string) store.Store { return st }, testLogger())
	ctx := context.Background()

	m1 := c.Get(ctx, "session-001")
	m1.SetOrderID(ctx, "order-123")
	m1.SetCurrentStep(ctx, domain.StepPayment)

	// The tab sits idle for two hours; the manager stays cached the whole time.
	st.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

	m2 := c.Get(ctx, "session-001")

	assert.NotSame(t, m1, m2)
	snap := m2.Snapshot()
	assert.Empty(t, snap.OrderID)
	assert.Equal(t, domain.StepNone, snap.CurrentStep)

	_, ok := st.Read(ctx, store.FieldOrderID)
	assert.False(t, ok, "expired fields are cleared from storage")
}

func TestCache_Get_FreshCheckoutSurvivesRepeatedGets(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	m1 := c.Get(ctx, "session-001")
	m1.SetOrderID(ctx, "order-123")

	m2 := c.Get(ctx, "session-001")

	assert.Same(t, m1, m2, "a checkout inside its TTL keeps its live manager")
	assert.Equal(t, "order-123", m2.Snapshot().OrderID)
}

func TestCache_Evict_NextGetRehydrates(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	m1 := c.Get(ctx, "session-001")
	m1.SetOrderID(ctx, "order-123")
	m1.StoreClientSecret("pi_secret_xyz")

	c.Evict("session-001")
	m2 := c.Get(ctx, "session-001")

	assert.NotSame(t, m1, m2)
	assert.Equal(t, "order-123", m2.Snapshot().OrderID, "persisted state survives eviction")
	assert.Empty(t, m2.ClientSecret(), "in-memory secret does not")
}
