package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// ParseStep Tests
// ============================================================================

func TestParseStep_KnownSteps(t *testing.T) {
	assert.Equal(t, StepAddress, ParseStep("address"))
	assert.Equal(t, StepReview, ParseStep("review"))
	assert.Equal(t, StepPayment, ParseStep("payment"))
}

func TestParseStep_UnknownDefaultsToNone(t *testing.T) {
	assert.Equal(t, StepNone, ParseStep("shipping"))
	assert.Equal(t, StepNone, ParseStep(""))
	assert.Equal(t, StepNone, ParseStep("PAYMENT"))
}

// ============================================================================
// IsValidPaymentMethod Tests
// ============================================================================

func TestIsValidPaymentMethod(t *testing.T) {
	assert.True(t, IsValidPaymentMethod(PaymentMethodCard))
	assert.True(t, IsValidPaymentMethod(PaymentMethodInstantTransfer))
	assert.True(t, IsValidPaymentMethod(PaymentMethodVoucher))

	assert.False(t, IsValidPaymentMethod("bitcoin"))
	assert.False(t, IsValidPaymentMethod(""))
}

// ============================================================================
// CheckoutState Tests
// ============================================================================

func TestNewCheckoutState_StartsOutsideFlow(t *testing.T) {
	s := NewCheckoutState()

	assert.Equal(t, StepNone, s.CurrentStep)
	assert.True(t, s.IsEmpty())
	assert.False(t, s.HasShippingAddress())
	assert.False(t, s.HasPaymentInfo())
	assert.False(t, s.HasOrder())
}

func TestCheckoutState_HasShippingAddress(t *testing.T) {
	s := NewCheckoutState()
	s.ShippingAddress = &ShippingAddress{City: "Fortaleza"}

	assert.True(t, s.HasShippingAddress())
	assert.False(t, s.IsEmpty())
}

func TestCheckoutState_HasOrder(t *testing.T) {
	s := NewCheckoutState()
	assert.False(t, s.HasOrder())

	s.OrderID = "order-123"
	assert.True(t, s.HasOrder())
	assert.False(t, s.IsEmpty())
}

func TestCheckoutState_IsEmpty_SelectedAddressOnly(t *testing.T) {
	s := NewCheckoutState()
	s.SelectedAddressID = "addr-9"

	assert.False(t, s.IsEmpty())
}

func TestCheckoutState_IsEmpty_WithStepSet(t *testing.T) {
	s := NewCheckoutState()
	s.CurrentStep = StepAddress

	assert.False(t, s.IsEmpty())
}
