package state

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solistore/checkout/internal/domain"
	"github.com/solistore/checkout/internal/store"
	"github.com/solistore/checkout/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, *memory.SessionStore) {
	t.Helper()
	st := memory.NewSessionStore(time.Hour)
	return NewManager(context.Background(), "session-001", st, testLogger()), st
}

func sampleAddress() *domain.ShippingAddress {
	return &domain.ShippingAddress{
		Email:        "maria@example.com",
		FullName:     "Maria Silva",
		Street:       "Rua das Flores",
		Number:       "100",
		Neighborhood: "Centro",
		City:         "Fortaleza",
		State:        "CE",
		PostalCode:   "60000-000",
	}
}

// ---------------------------------------------------------------------------
// Hydration
// ---------------------------------------------------------------------------

func TestNewManager_EmptyStoreStartsEmpty(t *testing.T) {
	mgr, _ := newTestManager(t)

	snap := mgr.Snapshot()
	assert.True(t, snap.IsEmpty())
	assert.Equal(t, domain.StepNone, snap.CurrentStep)
}

func TestNewManager_HydratesPersistedState(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSessionStore(time.Hour)

	addr, err := json.Marshal(sampleAddress())
	require.NoError(t, err)
	st.Write(ctx, store.FieldShippingAddress, addr)
	st.Write(ctx, store.FieldSelectedAddressID, []byte("addr-7"))
	st.Write(ctx, store.FieldOrderID, []byte("order-123"))
	st.Write(ctx, store.FieldCurrentStep, []byte("review"))

	mgr := NewManager(ctx, "session-001", st, testLogger())

	snap := mgr.Snapshot()
	require.NotNil(t, snap.ShippingAddress)
	assert.Equal(t, "Fortaleza", snap.ShippingAddress.City)
	assert.Equal(t, "addr-7", snap.SelectedAddressID)
	assert.Equal(t, "order-123", snap.OrderID)
	assert.Equal(t, domain.StepReview, snap.CurrentStep)
}

func TestNewManager_ExpiredStoreIsCleared(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSessionStore(time.Hour)

	st.Write(ctx, store.FieldOrderID, []byte("order-123"))
	st.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

	mgr := NewManager(ctx, "session-001", st, testLogger())

	snap := mgr.Snapshot()
	assert.True(t, snap.IsEmpty())
	_, ok := st.Read(ctx, store.FieldOrderID)
	assert.False(t, ok, "expired data should be removed from the store")
}

func TestNewManager_CorruptFieldIsDiscarded(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSessionStore(time.Hour)

	st.Write(ctx, store.FieldShippingAddress, []byte("{not json"))
	st.Write(ctx, store.FieldOrderID, []byte("order-123"))

	mgr := NewManager(ctx, "session-001", st, testLogger())

	snap := mgr.Snapshot()
	assert.Nil(t, snap.ShippingAddress, "corrupt address treated as absent")
	assert.Equal(t, "order-123", snap.OrderID, "valid fields still hydrate")
}

func TestNewManager_UnknownStepHydratesAsNone(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSessionStore(time.Hour)
	st.Write(ctx, store.FieldCurrentStep, []byte("confirm"))

	mgr := NewManager(ctx, "session-001", st, testLogger())

	assert.Equal(t, domain.StepNone, mgr.Snapshot().CurrentStep)
}

// ---------------------------------------------------------------------------
// Mutators
// ---------------------------------------------------------------------------

func TestManager_SetShippingAddress_Persists(t *testing.T) {
	mgr, st := newTestManager(t)
	ctx := context.Background()

	mgr.SetShippingAddress(ctx, sampleAddress(), "addr-7")

	snap := mgr.Snapshot()
	require.NotNil(t, snap.ShippingAddress)
	assert.Equal(t, "addr-7", snap.SelectedAddressID)
	assert.False(t, snap.LastModifiedAt.IsZero())

	raw, ok := st.Read(ctx, store.FieldShippingAddress)
	require.True(t, ok)
	var stored domain.ShippingAddress
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "Maria Silva", stored.FullName)
}

func TestManager_SetOrderID_Persists(t *testing.T) {
	mgr, st := newTestManager(t)
	ctx := context.Background()

	mgr.SetOrderID(ctx, "order-123")

	assert.Equal(t, "order-123", mgr.Snapshot().OrderID)
	raw, ok := st.Read(ctx, store.FieldOrderID)
	require.True(t, ok)
	assert.Equal(t, "order-123", string(raw))
}

func TestManager_SetCurrentStep_Persists(t *testing.T) {
	mgr, st := newTestManager(t)
	ctx := context.Background()

	mgr.SetCurrentStep(ctx, domain.StepPayment)

	assert.Equal(t, domain.StepPayment, mgr.Snapshot().CurrentStep)
	raw, ok := st.Read(ctx, store.FieldCurrentStep)
	require.True(t, ok)
	assert.Equal(t, "payment", string(raw))
}

func TestManager_Snapshot_IsACopy(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.SetShippingAddress(ctx, sampleAddress(), "")

	snap := mgr.Snapshot()
	snap.ShippingAddress.City = "Recife"

	assert.Equal(t, "Fortaleza", mgr.Snapshot().ShippingAddress.City)
}

// ---------------------------------------------------------------------------
// ClearCheckout / ResetCheckout
// ---------------------------------------------------------------------------

func TestManager_ClearCheckout_WipesEverything(t *testing.T) {
	mgr, st := newTestManager(t)
	ctx := context.Background()

	mgr.SetShippingAddress(ctx, sampleAddress(), "addr-7")
	mgr.SetOrderID(ctx, "order-123")
	mgr.SetCurrentStep(ctx, domain.StepPayment)
	mgr.StoreClientSecret("pi_secret_xyz")
	require.True(t, mgr.TryBeginPaymentIntent())

	mgr.ClearCheckout(ctx)

	snap := mgr.Snapshot()
	assert.True(t, snap.IsEmpty())
	assert.Empty(t, mgr.ClientSecret())
	assert.True(t, mgr.TryBeginPaymentIntent(), "latch released by full clear")

	for _, f := range store.Fields() {
		_, ok := st.Read(ctx, f)
		assert.False(t, ok, "field %s should be gone", f)
	}
}

func TestManager_ResetCheckout_KeepsEnteredData(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.SetShippingAddress(ctx, sampleAddress(), "")
	mgr.SetOrderID(ctx, "order-123")
	mgr.SetCurrentStep(ctx, domain.StepReview)

	mgr.ResetCheckout(ctx)

	snap := mgr.Snapshot()
	assert.Equal(t, domain.StepNone, snap.CurrentStep)
	assert.NotNil(t, snap.ShippingAddress, "entered data survives a reset")
	assert.Equal(t, "order-123", snap.OrderID, "order reference survives a reset")
}

func TestManager_ResetCheckout_ReleasesIntentLatch(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	require.True(t, mgr.TryBeginPaymentIntent())
	mgr.StoreClientSecret("pi_secret_xyz")

	mgr.ResetCheckout(ctx)

	assert.True(t, mgr.TryBeginPaymentIntent(),
		"a buyer returning after a reset can request a fresh intent")
	assert.Empty(t, mgr.ClientSecret(), "the stale secret is dropped with the latch")
}

// ---------------------------------------------------------------------------
// Payment intent latch and client secret
// ---------------------------------------------------------------------------

func TestManager_PaymentIntentLatch(t *testing.T) {
	mgr, _ := newTestManager(t)

	assert.True(t, mgr.TryBeginPaymentIntent())
	assert.False(t, mgr.TryBeginPaymentIntent(), "second acquisition rejected")

	mgr.AbortPaymentIntent()
	assert.True(t, mgr.TryBeginPaymentIntent(), "released after abort")
}

func TestManager_ClientSecretNeverPersisted(t *testing.T) {
	mgr, st := newTestManager(t)
	ctx := context.Background()

	mgr.StoreClientSecret("pi_secret_xyz")
	assert.Equal(t, "pi_secret_xyz", mgr.ClientSecret())

	for _, f := range store.Fields() {
		raw, ok := st.Read(ctx, f)
		if ok {
			assert.NotContains(t, string(raw), "pi_secret_xyz")
		}
	}

	// A re-hydrated manager has no secret.
	fresh := NewManager(ctx, "session-001", st, testLogger())
	assert.Empty(t, fresh.ClientSecret())
}
