package domain

import (
	"time"
)

// Step identifies a stage of the checkout flow.
type Step string

// Checkout steps. StepNone means the buyer is not currently inside the flow;
// entered data is kept so the checkout can be resumed later.
const (
	StepAddress Step = "address"
	StepReview  Step = "review"
	StepPayment Step = "payment"
	StepNone    Step = "none"
)

// ParseStep maps a raw string onto a known step, defaulting to StepNone.
func ParseStep(s string) Step {
	switch Step(s) {
	case StepAddress, StepReview, StepPayment:
		return Step(s)
	default:
		return StepNone
	}
}

// Payment method constants. The set is closed.
const (
	PaymentMethodCard            = "card"
	PaymentMethodInstantTransfer = "instant_transfer"
	PaymentMethodVoucher         = "voucher"
)

// IsValidPaymentMethod checks whether the given method is part of the closed set.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCard, PaymentMethodInstantTransfer, PaymentMethodVoucher:
		return true
	default:
		return false
	}
}

// ShippingAddress is the buyer-entered delivery address. Fields are plain
// strings; authoritative validation is delegated to the address validation
// service. Immutable once set except by explicit replacement.
type ShippingAddress struct {
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
}

// PaymentInfo records the outcome of a confirmed payment. It is only
// constructed after a successful payment confirmation round-trip and never
// holds raw card data, only the processor-issued intent identifier.
type PaymentInfo struct {
	Method          string `json:"method"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	Installments    int    `json:"installments,omitempty"`
	SaveCard        bool   `json:"save_card,omitempty"`
}

// CheckoutState is the aggregate tracking a buyer's progress through the
// checkout flow. One instance exists per browsing session.
type CheckoutState struct {
	ShippingAddress   *ShippingAddress `json:"shipping_address,omitempty"`
	SelectedAddressID string           `json:"selected_address_id,omitempty"`
	PaymentInfo       *PaymentInfo     `json:"payment_info,omitempty"`
	OrderID           string           `json:"order_id,omitempty"`
	CurrentStep       Step             `json:"current_step"`
	LastModifiedAt    time.Time        `json:"last_modified_at"`
}

// NewCheckoutState returns an empty state positioned outside the flow.
func NewCheckoutState() CheckoutState {
	return CheckoutState{CurrentStep: StepNone}
}

// HasShippingAddress reports whether a shipping address has been committed.
func (s *CheckoutState) HasShippingAddress() bool {
	return s.ShippingAddress != nil
}

// HasPaymentInfo reports whether payment info has been committed.
func (s *CheckoutState) HasPaymentInfo() bool {
	return s.PaymentInfo != nil
}

// HasOrder reports whether an order has been created server-side. Once set,
// the order ID is never cleared except by a full checkout reset: a real order
// row exists, possibly unpaid.
func (s *CheckoutState) HasOrder() bool {
	return s.OrderID != ""
}

// IsEmpty reports whether no checkout data has been entered at all.
func (s *CheckoutState) IsEmpty() bool {
	return s.ShippingAddress == nil &&
		s.SelectedAddressID == "" &&
		s.PaymentInfo == nil &&
		s.OrderID == "" &&
		(s.CurrentStep == StepNone || s.CurrentStep == "")
}
