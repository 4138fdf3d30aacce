package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/solistore/checkout/pkg/errors"
	"github.com/solistore/checkout/pkg/httpclient"
)

// PaymentIntent is the processor's handle for an authorized-but-unconfirmed
// payment attempt. The client secret is short-lived and must not be persisted.
type PaymentIntent struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// ProcessResult is the outcome of reconciling a confirmed payment with the
// order management side.
type ProcessResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// PaymentClient calls the remote payment processing service.
type PaymentClient struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// NewPaymentClient creates a payment service client.
func NewPaymentClient(baseURL string, httpClient HTTPDoer, logger *slog.Logger) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CreateIntent obtains a payment intent for the order. Callers are
// responsible for issuing at most one creation per order at a time.
func (c *PaymentClient) CreateIntent(ctx context.Context, orderID string) (*PaymentIntent, error) {
	type createIntentRequest struct {
		OrderID string `json:"order_id"`
	}

	body, err := json.Marshal(createIntentRequest{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/payments/intent", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}

	c.logger.InfoContext(ctx, "payment intent created",
		slog.String("order_id", orderID),
		slog.String("payment_intent_id", intent.PaymentIntentID),
		slog.Int64("amount", intent.Amount),
	)

	return &intent, nil
}

// Process reconciles a processor-confirmed payment with the order. A
// reconciliation the service itself rejects (success=false) surfaces as a
// PaymentFailed AppError carrying the service's message.
func (c *PaymentClient) Process(ctx context.Context, orderID, paymentIntentID string) (*ProcessResult, error) {
	type processRequest struct {
		OrderID         string `json:"order_id"`
		PaymentIntentID string `json:"payment_intent_id"`
	}

	body, err := json.Marshal(processRequest{
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal process request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/payments/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create process request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var result ProcessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode process response: %w", err)
	}

	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = "payment could not be confirmed"
		}
		return nil, apperrors.PaymentFailed(msg)
	}

	c.logger.InfoContext(ctx, "payment processed",
		slog.String("order_id", orderID),
		slog.String("payment_intent_id", paymentIntentID),
		slog.String("status", result.Status),
	)

	return &result, nil
}
