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

// FieldError is a per-field message from the address validation service.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of an address validation call.
type ValidationResult struct {
	IsValid bool         `json:"is_valid"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// AddressValidator calls the remote address validation service, the
// authoritative validator for buyer-entered addresses.
type AddressValidator struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// NewAddressValidator creates an address validation client.
func NewAddressValidator(baseURL string, httpClient HTTPDoer, logger *slog.Logger) *AddressValidator {
	return &AddressValidator{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Validate submits the address for validation and returns the field-level
// verdict. A transport or service failure is an error; an invalid address is
// a successful call with IsValid=false.
func (c *AddressValidator) Validate(ctx context.Context, addr *domain.ShippingAddress) (*ValidationResult, error) {
	type validateRequest struct {
		Street       string `json:"street"`
		Number       string `json:"number"`
		Complement   string `json:"complement,omitempty"`
		Neighborhood string `json:"neighborhood"`
		City         string `json:"city"`
		State        string `json:"state"`
		PostalCode   string `json:"postal_code"`
	}

	req := validateRequest{
		Street:       addr.Street,
		Number:       addr.Number,
		Complement:   addr.Complement,
		Neighborhood: addr.Neighborhood,
		City:         addr.City,
		State:        addr.State,
		PostalCode:   addr.PostalCode,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal validate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/addresses/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create validate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call address validation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "address-validation")
	}

	var result ValidationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode validate response: %w", err)
	}

	c.logger.DebugContext(ctx, "address validated",
		slog.Bool("is_valid", result.IsValid),
		slog.Int("field_errors", len(result.Errors)),
	)

	return &result, nil
}
