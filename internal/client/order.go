package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/solistore/checkout/internal/domain"
	"github.com/solistore/checkout/pkg/httpclient"
)

// CreateOrderInput selects one of two order creation request shapes: when
// SavedAddressID is set the order reuses a saved address, otherwise the
// inline address is created and attached server-side.
type CreateOrderInput struct {
	UserID         string
	SavedAddressID string
	InlineAddress  *domain.ShippingAddress
	Notes          string
}

// OrderClient calls the remote order management service.
type OrderClient struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// NewOrderClient creates an order service client.
func NewOrderClient(baseURL string, httpClient HTTPDoer, logger *slog.Logger) *OrderClient {
	return &OrderClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Create creates an order and returns its ID. The ID is only trusted once
// this call has returned successfully; no partial order is assumed to exist
// on failure.
func (c *OrderClient) Create(ctx context.Context, input CreateOrderInput) (string, error) {
	type inlineAddress struct {
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

	type createOrderRequest struct {
		ShippingAddressID string         `json:"shipping_address_id,omitempty"`
		ShippingAddress   *inlineAddress `json:"shipping_address,omitempty"`
		Notes             string         `json:"notes,omitempty"`
	}

	type createOrderResponse struct {
		ID string `json:"id"`
	}

	req := createOrderRequest{Notes: input.Notes}

	if input.SavedAddressID != "" {
		req.ShippingAddressID = input.SavedAddressID
	} else {
		if input.InlineAddress == nil {
			return "", fmt.Errorf("order creation requires a saved address id or an inline address")
		}
		req.ShippingAddress = &inlineAddress{
			Email:        input.InlineAddress.Email,
			FullName:     input.InlineAddress.FullName,
			Street:       input.InlineAddress.Street,
			Number:       input.InlineAddress.Number,
			Complement:   input.InlineAddress.Complement,
			Neighborhood: input.InlineAddress.Neighborhood,
			City:         input.InlineAddress.City,
			State:        input.InlineAddress.State,
			PostalCode:   input.InlineAddress.PostalCode,
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal create order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if input.UserID != "" {
		httpReq.Header.Set("X-User-ID", input.UserID)
	}

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return "", fmt.Errorf("call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", httpclient.ParseResponseError(resp, "order")
	}

	var orderResp createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}

	c.logger.InfoContext(ctx, "order created",
		slog.String("order_id", orderResp.ID),
		slog.Bool("saved_address", input.SavedAddressID != ""),
	)

	return orderResp.ID, nil
}
