package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/solistore/checkout/pkg/httpclient"
)

// CartItem is a single line in the buyer's cart.
type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Cart is the server-owned cart read used as a guard precondition. The
// checkout core never mutates it.
type Cart struct {
	Items []CartItem `json:"items"`
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartClient reads the buyer's cart from the cart service.
type CartClient struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// NewCartClient creates a cart service client.
func NewCartClient(baseURL string, httpClient HTTPDoer, logger *slog.Logger) *CartClient {
	return &CartClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Get fetches the user's cart live from the server. A missing cart is
// returned as an empty cart rather than an error, since for guard purposes
// the two are equivalent.
func (c *CartClient) Get(ctx context.Context, userID string) (*Cart, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/cart", nil)
	if err != nil {
		return nil, fmt.Errorf("create cart request: %w", err)
	}
	httpReq.Header.Set("X-User-ID", userID)

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call cart service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &Cart{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "cart")
	}

	var cart Cart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("decode cart response: %w", err)
	}

	c.logger.DebugContext(ctx, "cart fetched",
		slog.String("user_id", userID),
		slog.Int("items", len(cart.Items)),
	)

	return &cart, nil
}
