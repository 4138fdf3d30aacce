package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solistore/checkout/internal/service"
	"github.com/solistore/checkout/internal/state"
	"github.com/solistore/checkout/pkg/health"
	"github.com/solistore/checkout/pkg/middleware"
)

// NewRouter creates a chi router with all checkout service routes registered.
// The checkout area sits behind the auth guard and the cart guard; individual
// step entries are additionally policed by the step access policy in the
// EnterStep handler.
func NewRouter(
	checkoutService *service.CheckoutService,
	managers *state.Cache,
	carts CartReader,
	validateToken middleware.TokenValidator,
	loginPath string,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("checkout"))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Checkout API endpoints
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(validateToken, loginPath))
		r.Use(SessionManager(managers))
		r.Use(CartGuard(carts, logger))

		r.Get("/state", checkoutHandler.GetState)
		r.Post("/steps/{step}/enter", checkoutHandler.EnterStep)
		r.Post("/address", checkoutHandler.SubmitAddress)
		r.Post("/review/confirm", checkoutHandler.ConfirmReview)
		r.Post("/payment/intent", checkoutHandler.CreatePaymentIntent)
		r.Post("/payment/confirm", checkoutHandler.ConfirmPayment)
		r.Post("/reset", checkoutHandler.Reset)
	})

	return r
}
