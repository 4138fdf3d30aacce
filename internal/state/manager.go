// Package state owns the in-memory checkout state for a browsing session,
// keeping it synchronized with the persisted checkout store so that a page
// reload resumes mid-flow.
package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/solistore/checkout/internal/domain"
	"github.com/solistore/checkout/internal/store"
)

// Manager hydrates checkout state from the store on construction and keeps
// the two in sync through its mutators. There is no transactional grouping:
// a crash between the in-memory update and the persist is tolerated because
// the state is rebuilt from whatever subset was persisted on next hydration.
type Manager struct {
	sessionID string
	store     store.Store
	logger    *slog.Logger

	mu    sync.Mutex
	state domain.CheckoutState

	// intentInFlight is the one-shot latch preventing duplicate payment
	// intent creation. Set before the call starts, released only on failure.
	intentInFlight atomic.Bool

	// clientSecret is processor-specific and short-lived, so it stays in
	// memory and is never written to the persisted store.
	clientSecret string
}

// NewManager builds a manager for the session, hydrating from the store.
// An expired store is cleared and the state starts empty.
func NewManager(ctx context.Context, sessionID string, st store.Store, logger *slog.Logger) *Manager {
	m := &Manager{
		sessionID: sessionID,
		store:     st,
		logger:    logger,
	}
	m.hydrate(ctx)
	return m
}

// SessionID returns the browsing session this manager belongs to.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Expired reports whether the persisted checkout has outlived its TTL. The
// timestamp is refreshed on every write, so only an idle checkout expires.
func (m *Manager) Expired(ctx context.Context) bool {
	return m.store.IsExpired(ctx)
}

func (m *Manager) hydrate(ctx context.Context) {
	if m.store.IsExpired(ctx) {
		m.store.Clear(ctx)
		m.state = domain.NewCheckoutState()
		m.logger.InfoContext(ctx, "expired checkout discarded",
			slog.String("session_id", m.sessionID),
		)
		return
	}

	s := domain.NewCheckoutState()

	if raw, ok := m.store.Read(ctx, store.FieldShippingAddress); ok {
		var addr domain.ShippingAddress
		if err := json.Unmarshal(raw, &addr); err == nil {
			s.ShippingAddress = &addr
		} else {
			m.logger.WarnContext(ctx, "discarding corrupt shipping address",
				slog.String("session_id", m.sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	if raw, ok := m.store.Read(ctx, store.FieldSelectedAddressID); ok {
		s.SelectedAddressID = string(raw)
	}

	if raw, ok := m.store.Read(ctx, store.FieldPaymentInfo); ok {
		var pi domain.PaymentInfo
		if err := json.Unmarshal(raw, &pi); err == nil {
			s.PaymentInfo = &pi
		} else {
			m.logger.WarnContext(ctx, "discarding corrupt payment info",
				slog.String("session_id", m.sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	if raw, ok := m.store.Read(ctx, store.FieldOrderID); ok {
		s.OrderID = string(raw)
	}

	if raw, ok := m.store.Read(ctx, store.FieldCurrentStep); ok {
		s.CurrentStep = domain.ParseStep(string(raw))
	}

	if raw, ok := m.store.Read(ctx, store.FieldLastModified); ok {
		if ts, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			s.LastModifiedAt = ts
		}
	}

	m.state = s
}

// Snapshot returns a copy of the current state. Pointer fields are copied so
// the caller cannot mutate manager-owned data.
func (m *Manager) Snapshot() domain.CheckoutState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	if m.state.ShippingAddress != nil {
		addr := *m.state.ShippingAddress
		s.ShippingAddress = &addr
	}
	if m.state.PaymentInfo != nil {
		pi := *m.state.PaymentInfo
		s.PaymentInfo = &pi
	}
	return s
}

// SetShippingAddress commits the shipping address, and the saved-address
// reference when the buyer picked one instead of filling the form.
func (m *Manager) SetShippingAddress(ctx context.Context, addr *domain.ShippingAddress, selectedAddressID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.ShippingAddress = addr
	m.state.SelectedAddressID = selectedAddressID
	m.touch()

	if data, err := json.Marshal(addr); err == nil {
		m.store.Write(ctx, store.FieldShippingAddress, data)
	}
	m.store.Write(ctx, store.FieldSelectedAddressID, []byte(selectedAddressID))
}

// SetPaymentInfo commits payment info after a successful confirmation.
func (m *Manager) SetPaymentInfo(ctx context.Context, pi *domain.PaymentInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.PaymentInfo = pi
	m.touch()

	if data, err := json.Marshal(pi); err == nil {
		m.store.Write(ctx, store.FieldPaymentInfo, data)
	}
}

// SetOrderID records the server-created order. This is the irreversible
// commitment point: the ID is only cleared by a full checkout reset.
func (m *Manager) SetOrderID(ctx context.Context, orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.OrderID = orderID
	m.touch()

	m.store.Write(ctx, store.FieldOrderID, []byte(orderID))
}

// SetCurrentStep advances (or rewinds) the flow position.
func (m *Manager) SetCurrentStep(ctx context.Context, step domain.Step) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.CurrentStep = step
	m.touch()

	m.store.Write(ctx, store.FieldCurrentStep, []byte(step))
}

// ClearCheckout wipes every field and the persisted store. Used exactly once,
// after a successful payment confirmation.
func (m *Manager) ClearCheckout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = domain.NewCheckoutState()
	m.clientSecret = ""
	m.intentInFlight.Store(false)
	m.store.Clear(ctx)
}

// ResetCheckout clears only the current step, for "leave and come back later"
// navigation. Entered data is preserved. The payment intent latch and the
// client secret are released: a buyer who left mid-payment and returns gets a
// fresh intent instead of being stuck behind a spent latch and an expired
// secret.
func (m *Manager) ResetCheckout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.CurrentStep = domain.StepNone
	m.clientSecret = ""
	m.intentInFlight.Store(false)
	m.touch()

	m.store.Write(ctx, store.FieldCurrentStep, []byte(domain.StepNone))
}

// touch must be called with m.mu held.
func (m *Manager) touch() {
	m.state.LastModifiedAt = time.Now().UTC()
}

// TryBeginPaymentIntent acquires the one-shot payment intent latch. It
// returns false if an intent creation already started for this manager's
// lifetime. The latch is taken before the asynchronous call starts so that a
// concurrent retry cannot issue a second intent while the first is in flight.
func (m *Manager) TryBeginPaymentIntent() bool {
	return m.intentInFlight.CompareAndSwap(false, true)
}

// AbortPaymentIntent releases the latch after a failed creation, allowing a
// deliberate retry.
func (m *Manager) AbortPaymentIntent() {
	m.intentInFlight.Store(false)
}

// StoreClientSecret keeps the processor's client secret in memory only.
func (m *Manager) StoreClientSecret(secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientSecret = secret
}

// ClientSecret returns the in-memory client secret, if any.
func (m *Manager) ClientSecret() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clientSecret
}
