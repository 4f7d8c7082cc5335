package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/afrosatoshi1/STOR1/internal/config"
	"github.com/afrosatoshi1/STOR1/internal/event"
	"github.com/afrosatoshi1/STOR1/internal/gateway"
	gwmock "github.com/afrosatoshi1/STOR1/internal/gateway/mock"
	"github.com/afrosatoshi1/STOR1/internal/gateway/paystack"
	handler "github.com/afrosatoshi1/STOR1/internal/handler/http"
	"github.com/afrosatoshi1/STOR1/internal/repository/postgres"
	redisrepo "github.com/afrosatoshi1/STOR1/internal/repository/redis"
	"github.com/afrosatoshi1/STOR1/internal/service"
	"github.com/afrosatoshi1/STOR1/migrations"
	"github.com/afrosatoshi1/STOR1/pkg/database"
	"github.com/afrosatoshi1/STOR1/pkg/health"
	"github.com/afrosatoshi1/STOR1/pkg/httpclient"
	pkgkafka "github.com/afrosatoshi1/STOR1/pkg/kafka"
	"github.com/afrosatoshi1/STOR1/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool for the order ledger and catalog.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)
	database.RegisterPoolMetrics(pool, "storefront")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryMs)*time.Millisecond, logger)
	}

	// Initialize Redis for cart and checkout snapshot state.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Payment verifier.
	verifier, err := newVerifier(cfg, logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}
	logger.Info("payment verifier initialized", slog.String("provider", verifier.Name()))

	// Build the dependency graph.
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTL)
	checkoutRepo := redisrepo.NewCheckoutRepository(redisClient, cfg.CheckoutTTL)
	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)

	eventProducer := event.NewProducer(producer, logger)

	cartService := service.NewCartService(cartRepo, productRepo, eventProducer, logger, cfg.CartTTL, cfg.Currency)
	checkoutService := service.NewCheckoutService(cartRepo, checkoutRepo, orderRepo, verifier, eventProducer, logger, cfg.CheckoutTTL)
	orderService := service.NewOrderService(orderRepo, eventProducer, logger)
	productService := service.NewProductService(productRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(cfg, cartService, checkoutService, orderService, productService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newVerifier selects the payment verifier from configuration. Paystack rides
// behind a retrying HTTP client and a circuit breaker; the mock verifier is
// for local development only.
func newVerifier(cfg *config.Config, logger *slog.Logger) (gateway.Verifier, error) {
	switch cfg.PaymentProvider {
	case config.ProviderMock:
		return gwmock.NewVerifier(cfg.Currency), nil
	case config.ProviderPaystack:
		baseClient := httpclient.New(httpclient.Config{
			Timeout:         cfg.VerifyTimeout,
			MaxRetries:      3,
			RetryWaitMin:    500 * time.Millisecond,
			RetryWaitMax:    5 * time.Second,
			MaxConnsPerHost: 100,
		})
		cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("paystack"), logger)

		var opts []paystack.Option
		if cfg.PaystackBaseURL != "" {
			opts = append(opts, paystack.WithBaseURL(cfg.PaystackBaseURL))
		}
		return paystack.NewVerifier(cfg.PaystackSecretKey, cbClient, logger, opts...), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
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
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis client close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
