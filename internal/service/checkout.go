package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/solistore/checkout/internal/client"
	"github.com/solistore/checkout/internal/domain"
	"github.com/solistore/checkout/internal/event"
	"github.com/solistore/checkout/internal/state"
	apperrors "github.com/solistore/checkout/pkg/errors"
)

// CircuitOpenFallback is a fallback function for the coordination-service
// circuit breaker. When the circuit is open, it returns a structured error
// with a retry hint instead of letting the raw ErrCircuitOpen propagate.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("downstream service is temporarily unavailable, please retry after 30 seconds")
}

// AddressValidator validates buyer-entered addresses.
type AddressValidator interface {
	Validate(ctx context.Context, addr *domain.ShippingAddress) (*client.ValidationResult, error)
}

// ShippingCalculator quotes shipping for a destination.
type ShippingCalculator interface {
	Calculate(ctx context.Context, postalCode, state, city string) (*client.ShippingQuote, error)
}

// OrderCreator creates orders server-side.
type OrderCreator interface {
	Create(ctx context.Context, input client.CreateOrderInput) (string, error)
}

// PaymentProcessor creates payment intents and reconciles confirmed payments.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, orderID string) (*client.PaymentIntent, error)
	Process(ctx context.Context, orderID, paymentIntentID string) (*client.ProcessResult, error)
}

// CartReader fetches the server-owned cart, used as a precondition only.
type CartReader interface {
	Get(ctx context.Context, userID string) (*client.Cart, error)
}

// StepTimeouts holds per-call timeout configuration for the coordination
// services. A zero value means no per-call timeout (inherits the parent
// context timeout).
type StepTimeouts struct {
	ValidationTimeout time.Duration
	ShippingTimeout   time.Duration
	OrderTimeout      time.Duration
	PaymentTimeout    time.Duration
}

// CheckoutService sequences the coordination-service calls for each checkout
// step, updating the session's checkout state as steps complete. No call is
// issued before its predecessor resolves, and no failure is retried
// automatically; every error is surfaced and the flow halts where it was.
type CheckoutService struct {
	validator AddressValidator
	shipping  ShippingCalculator
	orders    OrderCreator
	payments  PaymentProcessor
	carts     CartReader
	producer  *event.Producer
	logger    *slog.Logger
	timeouts  StepTimeouts
}

// NewCheckoutService creates a new checkout orchestration service.
func NewCheckoutService(
	validator AddressValidator,
	shipping ShippingCalculator,
	orders OrderCreator,
	payments PaymentProcessor,
	carts CartReader,
	producer *event.Producer,
	logger *slog.Logger,
	timeouts StepTimeouts,
) *CheckoutService {
	return &CheckoutService{
		validator: validator,
		shipping:  shipping,
		orders:    orders,
		payments:  payments,
		carts:     carts,
		producer:  producer,
		logger:    logger,
		timeouts:  timeouts,
	}
}

// AddressInput carries either a freshly filled address form or a selection
// of a pre-existing saved address (SelectedAddressID set, address fields
// populated for display).
type AddressInput struct {
	Address           domain.ShippingAddress
	SelectedAddressID string
}

// AddressStepResult is the outcome of the address step. When FieldErrors is
// non-empty the step did not advance and no state was mutated.
type AddressStepResult struct {
	State       domain.CheckoutState
	Quote       *client.ShippingQuote
	FieldErrors []client.FieldError
}

// SubmitAddress runs the address step: validate remotely, quote shipping,
// then commit the address and advance to review. The address is deliberately
// not committed on the shipping-failure path so a retry starts clean.
func (s *CheckoutService) SubmitAddress(ctx context.Context, mgr *state.Manager, input AddressInput) (*AddressStepResult, error) {
	addr := input.Address

	if addr.Email == "" || addr.FullName == "" || addr.Street == "" || addr.City == "" || addr.State == "" || addr.PostalCode == "" {
		return nil, apperrors.InvalidInput("address fields must not be empty")
	}

	result, err := s.validateAddress(ctx, &addr)
	if err != nil {
		externalCallFailuresTotal.WithLabelValues("address-validation").Inc()
		return nil, fmt.Errorf("validate address: %w", err)
	}

	if !result.IsValid {
		s.logger.InfoContext(ctx, "address rejected by validation service",
			slog.String("session_id", mgr.SessionID()),
			slog.Int("field_errors", len(result.Errors)),
		)
		return &AddressStepResult{FieldErrors: result.Errors}, nil
	}

	quote, err := s.calculateShipping(ctx, &addr)
	if err != nil {
		externalCallFailuresTotal.WithLabelValues("shipping").Inc()
		return nil, fmt.Errorf("calculate shipping: %w", err)
	}

	from := mgr.Snapshot().CurrentStep
	mgr.SetShippingAddress(ctx, &addr, input.SelectedAddressID)
	mgr.SetCurrentStep(ctx, domain.StepReview)
	stepTransitionsTotal.WithLabelValues(string(from), string(domain.StepReview)).Inc()

	if err := s.producer.PublishStepCompleted(ctx, event.StepCompletedData{
		SessionID: mgr.SessionID(),
		Step:      domain.StepAddress,
		NextStep:  domain.StepReview,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish step_completed event",
			slog.String("session_id", mgr.SessionID()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "address step completed",
		slog.String("session_id", mgr.SessionID()),
		slog.Bool("saved_address", input.SelectedAddressID != ""),
		slog.Int64("shipping_cost", quote.ShippingCost),
	)

	return &AddressStepResult{State: mgr.Snapshot(), Quote: quote}, nil
}

// ReviewStepResult is the outcome of a confirmed review step.
type ReviewStepResult struct {
	State   domain.CheckoutState `json:"state"`
	OrderID string               `json:"order_id"`
}

// ConfirmReview creates the order from the committed address and advances to
// payment. The cart is re-read live since time has passed since it was last
// checked. No partial order is assumed to exist on failure.
func (s *CheckoutService) ConfirmReview(ctx context.Context, mgr *state.Manager, userID, notes string) (*ReviewStepResult, error) {
	snap := mgr.Snapshot()

	if !snap.HasShippingAddress() {
		return nil, apperrors.InvalidInput("shipping address must be set before the order can be created")
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		externalCallFailuresTotal.WithLabelValues("cart").Inc()
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.Conflict("cart is empty")
	}

	orderID, err := s.createOrder(ctx, client.CreateOrderInput{
		UserID:         userID,
		SavedAddressID: snap.SelectedAddressID,
		InlineAddress:  snap.ShippingAddress,
		Notes:          notes,
	})
	if err != nil {
		externalCallFailuresTotal.WithLabelValues("order").Inc()
		return nil, fmt.Errorf("create order: %w", err)
	}

	from := snap.CurrentStep
	mgr.SetOrderID(ctx, orderID)
	mgr.SetCurrentStep(ctx, domain.StepPayment)
	stepTransitionsTotal.WithLabelValues(string(from), string(domain.StepPayment)).Inc()

	if err := s.producer.PublishOrderCreated(ctx, event.OrderCreatedData{
		SessionID:    mgr.SessionID(),
		UserID:       userID,
		OrderID:      orderID,
		SavedAddress: snap.SelectedAddressID != "",
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order_created event",
			slog.String("session_id", mgr.SessionID()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review step completed",
		slog.String("session_id", mgr.SessionID()),
		slog.String("order_id", orderID),
	)

	return &ReviewStepResult{State: mgr.Snapshot(), OrderID: orderID}, nil
}

// CreatePaymentIntent obtains a payment intent from the processor at most
// once per session lifetime. The latch is taken before the call starts; a
// failed creation releases it so the buyer can deliberately retry.
//
// externalOrderID carries a continuing-payment order reference for buyers
// returning to pay for an already-created, unpaid order.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, mgr *state.Manager, externalOrderID string) (*client.PaymentIntent, error) {
	orderID := externalOrderID
	if orderID == "" {
		orderID = mgr.Snapshot().OrderID
	}
	if orderID == "" {
		return nil, apperrors.InvalidInput("no order to pay for")
	}

	if !mgr.TryBeginPaymentIntent() {
		intentLatchRejectionsTotal.Inc()
		s.logger.WarnContext(ctx, "duplicate payment intent creation rejected",
			slog.String("session_id", mgr.SessionID()),
			slog.String("order_id", orderID),
		)
		return nil, apperrors.Conflict("a payment intent is already being created for this checkout")
	}

	intent, err := s.createIntent(ctx, orderID)
	if err != nil {
		mgr.AbortPaymentIntent()
		externalCallFailuresTotal.WithLabelValues("payment").Inc()
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	mgr.StoreClientSecret(intent.ClientSecret)

	return intent, nil
}

// ConfirmPaymentInput carries the processor-confirmed payment reference and
// the buyer's chosen payment terms.
type ConfirmPaymentInput struct {
	ExternalOrderID string
	PaymentIntentID string
	Method          string
	Installments    int
	SaveCard        bool
}

// PaymentResult is the outcome of a reconciled payment.
type PaymentResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// ConfirmPayment reconciles a processor-confirmed payment with the order,
// commits payment info, and destroys the checkout state. On reconciliation
// failure the state is kept intact: the order exists and is simply unpaid.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, mgr *state.Manager, input ConfirmPaymentInput) (*PaymentResult, error) {
	if !domain.IsValidPaymentMethod(input.Method) {
		return nil, apperrors.InvalidInput("unknown payment method: " + input.Method)
	}
	if input.PaymentIntentID == "" {
		return nil, apperrors.InvalidInput("payment intent id is required")
	}

	orderID := input.ExternalOrderID
	if orderID == "" {
		orderID = mgr.Snapshot().OrderID
	}
	if orderID == "" {
		return nil, apperrors.InvalidInput("no order to pay for")
	}

	result, err := s.processPayment(ctx, orderID, input.PaymentIntentID)
	if err != nil {
		externalCallFailuresTotal.WithLabelValues("payment").Inc()
		return nil, fmt.Errorf("process payment: %w", err)
	}

	from := mgr.Snapshot().CurrentStep
	mgr.SetPaymentInfo(ctx, &domain.PaymentInfo{
		Method:          input.Method,
		PaymentIntentID: input.PaymentIntentID,
		Installments:    input.Installments,
		SaveCard:        input.SaveCard,
	})
	mgr.SetCurrentStep(ctx, domain.StepPayment)
	stepTransitionsTotal.WithLabelValues(string(from), string(domain.StepPayment)).Inc()

	if err := s.producer.PublishCompleted(ctx, event.CompletedData{
		SessionID:     mgr.SessionID(),
		OrderID:       orderID,
		PaymentMethod: input.Method,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish completed event",
			slog.String("session_id", mgr.SessionID()),
			slog.String("error", err.Error()),
		)
	}

	// The checkout is done; destroy the session state exactly once.
	mgr.ClearCheckout(ctx)

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("session_id", mgr.SessionID()),
		slog.String("order_id", orderID),
		slog.String("payment_method", input.Method),
	)

	return &PaymentResult{OrderID: orderID, Status: result.Status}, nil
}

// Reset clears only the current step so the buyer can leave the flow and
// resume later without losing entered data.
func (s *CheckoutService) Reset(ctx context.Context, mgr *state.Manager) {
	mgr.ResetCheckout(ctx)

	if err := s.producer.PublishReset(ctx, event.ResetData{SessionID: mgr.SessionID()}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish reset event",
			slog.String("session_id", mgr.SessionID()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CheckoutService) validateAddress(ctx context.Context, addr *domain.ShippingAddress) (*client.ValidationResult, error) {
	if s.timeouts.ValidationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.ValidationTimeout)
		defer cancel()
	}
	return s.validator.Validate(ctx, addr)
}

func (s *CheckoutService) calculateShipping(ctx context.Context, addr *domain.ShippingAddress) (*client.ShippingQuote, error) {
	if s.timeouts.ShippingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.ShippingTimeout)
		defer cancel()
	}
	return s.shipping.Calculate(ctx, addr.PostalCode, addr.State, addr.City)
}

func (s *CheckoutService) createOrder(ctx context.Context, input client.CreateOrderInput) (string, error) {
	if s.timeouts.OrderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.OrderTimeout)
		defer cancel()
	}
	return s.orders.Create(ctx, input)
}

func (s *CheckoutService) createIntent(ctx context.Context, orderID string) (*client.PaymentIntent, error) {
	if s.timeouts.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.PaymentTimeout)
		defer cancel()
	}
	return s.payments.CreateIntent(ctx, orderID)
}

func (s *CheckoutService) processPayment(ctx context.Context, orderID, paymentIntentID string) (*client.ProcessResult, error) {
	if s.timeouts.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.PaymentTimeout)
		defer cancel()
	}
	return s.payments.Process(ctx, orderID, paymentIntentID)
}
