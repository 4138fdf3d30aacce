package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solistore/checkout/internal/domain"
	"github.com/solistore/checkout/internal/service"
	"github.com/solistore/checkout/pkg/httputil"
	"github.com/solistore/checkout/pkg/middleware"
	"github.com/solistore/checkout/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitAddressRequest is the JSON request body for the address step. Only
// non-emptiness is checked here; field formats are the address validation
// service's call, so its verdicts come back as 422 field errors rather than
// being second-guessed locally.
type SubmitAddressRequest struct {
	Email             string `json:"email" validate:"required"`
	FullName          string `json:"full_name" validate:"required"`
	Street            string `json:"street" validate:"required"`
	Number            string `json:"number" validate:"required"`
	Complement        string `json:"complement"`
	Neighborhood      string `json:"neighborhood" validate:"required"`
	City              string `json:"city" validate:"required"`
	State             string `json:"state" validate:"required"`
	PostalCode        string `json:"postal_code" validate:"required"`
	SelectedAddressID string `json:"selected_address_id"`
}

// ConfirmReviewRequest is the JSON request body for confirming the review step.
type ConfirmReviewRequest struct {
	Notes string `json:"notes"`
}

// CreateIntentRequest is the JSON request body for creating a payment intent.
type CreateIntentRequest struct {
	OrderID string `json:"order_id"`
}

// ConfirmPaymentRequest is the JSON request body for confirming a payment.
type ConfirmPaymentRequest struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	Method          string `json:"method" validate:"required"`
	Installments    int    `json:"installments" validate:"gte=0,lte=12"`
	SaveCard        bool   `json:"save_card"`
}

// RedirectDecision is the payload accompanying a denied step entry. The
// caller performs the navigation; the service only reports the decision.
type RedirectDecision struct {
	RedirectTo     string `json:"redirect_to,omitempty"`
	RedirectToCart bool   `json:"redirect_to_cart,omitempty"`
}

// --- Handlers ---

// GetState handles GET /api/v1/checkout/state and returns the session's
// current checkout state snapshot.
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	mgr := managerFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: mgr.Snapshot()})
}

// EnterStep handles POST /api/v1/checkout/steps/{step}/enter. It applies the
// step access policy: entry is either recorded as the current step, or denied
// with a redirect decision the caller navigates by. The order_id query
// parameter carries a continuing-payment order reference.
func (h *CheckoutHandler) EnterStep(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "step")
	step := domain.ParseStep(raw)
	if step == domain.StepNone {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unknown checkout step: " + raw},
		})
		return
	}

	mgr := managerFromContext(r.Context())
	snap := mgr.Snapshot()
	decision := domain.DecideStepEntry(&snap, step, r.URL.Query().Get("order_id"))

	if !decision.Allowed {
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "STEP_NOT_ACCESSIBLE", Message: "step cannot be entered yet"},
			Data: RedirectDecision{
				RedirectTo:     string(decision.RedirectTo),
				RedirectToCart: decision.RedirectToCart,
			},
		})
		return
	}

	mgr.SetCurrentStep(r.Context(), step)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: mgr.Snapshot()})
}

// SubmitAddress handles POST /api/v1/checkout/address. Field-level rejections
// from the validation service come back as a 422 with a fields list; the
// state is untouched in that case.
func (h *CheckoutHandler) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SubmitAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	mgr := managerFromContext(r.Context())
	result, err := h.service.SubmitAddress(r.Context(), mgr, service.AddressInput{
		Address: domain.ShippingAddress{
			Email:        req.Email,
			FullName:     req.FullName,
			Street:       req.Street,
			Number:       req.Number,
			Complement:   req.Complement,
			Neighborhood: req.Neighborhood,
			City:         req.City,
			State:        req.State,
			PostalCode:   req.PostalCode,
		},
		SelectedAddressID: req.SelectedAddressID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if len(result.FieldErrors) > 0 {
		fields := make(map[string]string, len(result.FieldErrors))
		for _, fe := range result.FieldErrors {
			fields[fe.Field] = fe.Message
		}
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "ADDRESS_REJECTED",
				Message: "address failed validation",
				Fields:  fields,
			},
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"state":          result.State,
		"shipping_quote": result.Quote,
	}})
}

// ConfirmReview handles POST /api/v1/checkout/review/confirm: creates the
// order and advances to payment.
func (h *CheckoutHandler) ConfirmReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ConfirmReviewRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	mgr := managerFromContext(r.Context())
	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.service.ConfirmReview(r.Context(), mgr, userID, req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// CreatePaymentIntent handles POST /api/v1/checkout/payment/intent. At most
// one intent is created per session lifetime; duplicates get a 409.
func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateIntentRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	mgr := managerFromContext(r.Context())
	intent, err := h.service.CreatePaymentIntent(r.Context(), mgr, req.OrderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: intent})
}

// ConfirmPayment handles POST /api/v1/checkout/payment/confirm: reconciles
// the processor-confirmed payment and destroys the checkout state.
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	mgr := managerFromContext(r.Context())
	result, err := h.service.ConfirmPayment(r.Context(), mgr, service.ConfirmPaymentInput{
		ExternalOrderID: req.OrderID,
		PaymentIntentID: req.PaymentIntentID,
		Method:          req.Method,
		Installments:    req.Installments,
		SaveCard:        req.SaveCard,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Reset handles POST /api/v1/checkout/reset: the buyer leaves the flow but
// keeps entered data for a later resume.
func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	mgr := managerFromContext(r.Context())
	h.service.Reset(r.Context(), mgr)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: mgr.Snapshot()})
}
