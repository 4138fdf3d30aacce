package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solistore/checkout/internal/client"
	"github.com/solistore/checkout/internal/config"
	"github.com/solistore/checkout/internal/event"
	handler "github.com/solistore/checkout/internal/handler/http"
	"github.com/solistore/checkout/internal/service"
	"github.com/solistore/checkout/internal/state"
	"github.com/solistore/checkout/internal/store"
	redisstore "github.com/solistore/checkout/internal/store/redis"
	"github.com/solistore/checkout/pkg/health"
	"github.com/solistore/checkout/pkg/httpclient"
	pkgkafka "github.com/solistore/checkout/pkg/kafka"
	"github.com/solistore/checkout/pkg/middleware"
)

// App wires together all dependencies and runs the checkout service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize Redis for the persisted checkout store.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	eventProducer := event.NewProducer(producer, logger)

	// Create HTTP client with circuit breaker for the coordination services.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})

	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "checkout-downstream",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(service.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	// Typed clients over the shared circuit-breaker transport.
	addressValidator := client.NewAddressValidator(cfg.AddressServiceURL, cbClient, logger)
	shippingCalc := client.NewShippingCalculator(cfg.ShippingServiceURL, cbClient, logger)
	orderClient := client.NewOrderClient(cfg.OrderServiceURL, cbClient, logger)
	paymentClient := client.NewPaymentClient(cfg.PaymentServiceURL, cbClient, logger)
	cartClient := client.NewCartClient(cfg.CartServiceURL, cbClient, logger)

	// One live manager per browsing session, hydrated from Redis.
	managers := state.NewCache(func(sessionID string) store.Store {
		return redisstore.NewSessionStore(redisClient, sessionID, cfg.CheckoutTTL(), logger)
	}, logger)

	checkoutService := service.NewCheckoutService(
		addressValidator,
		shippingCalc,
		orderClient,
		paymentClient,
		cartClient,
		eventProducer,
		logger,
		service.StepTimeouts{
			ValidationTimeout: time.Duration(cfg.ValidationTimeout) * time.Second,
			ShippingTimeout:   time.Duration(cfg.ShippingTimeout) * time.Second,
			OrderTimeout:      time.Duration(cfg.OrderTimeout) * time.Second,
			PaymentTimeout:    time.Duration(cfg.PaymentTimeout) * time.Second,
		},
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(
		checkoutService,
		managers,
		cartClient,
		middleware.HMACValidator(cfg.JWTSecret),
		cfg.LoginPath,
		healthHandler,
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		redis:      redisClient,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka producer (flush pending events from drained requests)
// 3. Redis client
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 3. Close Redis client.
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
