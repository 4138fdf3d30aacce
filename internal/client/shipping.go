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

// ShippingQuote is a successful shipping cost calculation.
type ShippingQuote struct {
	ShippingCost  int64 `json:"shipping_cost"`
	EstimatedDays int   `json:"estimated_days"`
}

// ShippingCalculator calls the remote shipping cost calculation service.
type ShippingCalculator struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// NewShippingCalculator creates a shipping calculation client.
func NewShippingCalculator(baseURL string, httpClient HTTPDoer, logger *slog.Logger) *ShippingCalculator {
	return &ShippingCalculator{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Calculate quotes shipping for the destination. A calculation the service
// itself rejects (success=false) surfaces as a ServiceUnavailable-style
// AppError carrying the service's message.
func (c *ShippingCalculator) Calculate(ctx context.Context, postalCode, state, city string) (*ShippingQuote, error) {
	type calculateRequest struct {
		PostalCode string `json:"postal_code"`
		State      string `json:"state"`
		City       string `json:"city"`
	}

	type calculateResponse struct {
		Success       bool   `json:"success"`
		ShippingCost  int64  `json:"shipping_cost,omitempty"`
		EstimatedDays int    `json:"estimated_days,omitempty"`
		Error         string `json:"error,omitempty"`
	}

	body, err := json.Marshal(calculateRequest{
		PostalCode: postalCode,
		State:      state,
		City:       city,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal calculate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/shipping/calculate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create calculate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call shipping service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "shipping")
	}

	var calcResp calculateResponse
	if err := json.NewDecoder(resp.Body).Decode(&calcResp); err != nil {
		return nil, fmt.Errorf("decode calculate response: %w", err)
	}

	if !calcResp.Success {
		msg := calcResp.Error
		if msg == "" {
			msg = "shipping could not be calculated for this destination"
		}
		return nil, apperrors.ServiceUnavailable(msg)
	}

	c.logger.DebugContext(ctx, "shipping calculated",
		slog.String("postal_code", postalCode),
		slog.Int64("shipping_cost", calcResp.ShippingCost),
		slog.Int("estimated_days", calcResp.EstimatedDays),
	)

	return &ShippingQuote{
		ShippingCost:  calcResp.ShippingCost,
		EstimatedDays: calcResp.EstimatedDays,
	}, nil
}
