package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/solistore/checkout/internal/client"
	"github.com/solistore/checkout/internal/state"
	"github.com/solistore/checkout/pkg/httputil"
	"github.com/solistore/checkout/pkg/middleware"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// managerKey is the context key for the session's checkout state manager.
const managerKey contextKey = "checkout_manager"

// SessionManager is middleware that resolves the browsing session from the
// X-Session-ID header and injects the session's live state manager into the
// request context. Requests without a session ID are rejected, since every
// checkout operation is scoped to exactly one session.
func SessionManager(cache *state.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get("X-Session-ID")
			if sessionID == "" {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Session-ID header is required"},
				})
				return
			}

			mgr := cache.Get(r.Context(), sessionID)
			ctx := context.WithValue(r.Context(), managerKey, mgr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// managerFromContext extracts the session's state manager from the request
// context. Returns nil if the SessionManager middleware did not run.
func managerFromContext(ctx context.Context) *state.Manager {
	mgr, _ := ctx.Value(managerKey).(*state.Manager)
	return mgr
}

// CartReader fetches the buyer's live cart for the area guard precondition.
type CartReader interface {
	Get(ctx context.Context, userID string) (*client.Cart, error)
}

// CartGuard is middleware that rejects entry into the checkout area when the
// buyer's live cart is empty. Denials carry a redirect decision payload; the
// caller performs the navigation.
//
// The continuing-payment case is exempt: a buyer returning to pay for an
// existing order legitimately arrives with an empty cart.
func CartGuard(carts CartReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("order_id") != "" {
				next.ServeHTTP(w, r)
				return
			}

			userID := middleware.UserIDFromContext(r.Context())
			cart, err := carts.Get(r.Context(), userID)
			if err != nil {
				// The cart service being down must not brick the whole
				// checkout area; let the step itself fail if it has to.
				logger.ErrorContext(r.Context(), "cart guard check failed",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if cart.IsEmpty() {
				httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "CART_EMPTY", Message: "cart is empty"},
					Data:  RedirectDecision{RedirectToCart: true},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORS adds permissive Cross-Origin Resource Sharing headers for development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID, X-Session-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
