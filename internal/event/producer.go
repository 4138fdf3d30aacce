package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solistore/checkout/internal/domain"
	pkgkafka "github.com/solistore/checkout/pkg/kafka"
)

// Kafka topic constants for checkout domain events.
const (
	TopicStepCompleted = "storefront.checkout.step_completed"
	TopicOrderCreated  = "storefront.checkout.order_created"
	TopicCompleted     = "storefront.checkout.completed"
	TopicReset         = "storefront.checkout.reset"
)

// Aggregate type constant.
const AggregateTypeCheckout = "checkout"

// Source identifier for events originating from this service.
const SourceCheckoutService = "checkout-service"

// StepCompletedData is the payload for a checkout.step_completed event.
type StepCompletedData struct {
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id,omitempty"`
	Step      domain.Step `json:"step"`
	NextStep  domain.Step `json:"next_step"`
}

// OrderCreatedData is the payload for a checkout.order_created event.
type OrderCreatedData struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id,omitempty"`
	OrderID      string `json:"order_id"`
	SavedAddress bool   `json:"saved_address"`
}

// CompletedData is the payload for a checkout.completed event.
type CompletedData struct {
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id,omitempty"`
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
}

// ResetData is the payload for a checkout.reset event.
type ResetData struct {
	SessionID string `json:"session_id"`
}

// Producer publishes checkout domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the checkout service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishStepCompleted publishes a checkout.step_completed event.
func (p *Producer) PublishStepCompleted(ctx context.Context, data StepCompletedData) error {
	event, err := pkgkafka.NewEvent(TopicStepCompleted, data.SessionID, AggregateTypeCheckout, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create step_completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStepCompleted, event); err != nil {
		return fmt.Errorf("publish step_completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.step_completed event",
		slog.String("session_id", data.SessionID),
		slog.String("step", string(data.Step)),
	)

	return nil
}

// PublishOrderCreated publishes a checkout.order_created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, data OrderCreatedData) error {
	event, err := pkgkafka.NewEvent(TopicOrderCreated, data.SessionID, AggregateTypeCheckout, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create order_created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order_created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.order_created event",
		slog.String("session_id", data.SessionID),
		slog.String("order_id", data.OrderID),
	)

	return nil
}

// PublishCompleted publishes a checkout.completed event.
func (p *Producer) PublishCompleted(ctx context.Context, data CompletedData) error {
	event, err := pkgkafka.NewEvent(TopicCompleted, data.SessionID, AggregateTypeCheckout, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCompleted, event); err != nil {
		return fmt.Errorf("publish completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.completed event",
		slog.String("session_id", data.SessionID),
		slog.String("order_id", data.OrderID),
	)

	return nil
}

// PublishReset publishes a checkout.reset event for "come back later"
// navigation away from the flow.
func (p *Producer) PublishReset(ctx context.Context, data ResetData) error {
	event, err := pkgkafka.NewEvent(TopicReset, data.SessionID, AggregateTypeCheckout, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create reset event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReset, event); err != nil {
		return fmt.Errorf("publish reset event: %w", err)
	}

	return nil
}
