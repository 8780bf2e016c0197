package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/auth"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/config"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/event"
	handler "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/handler/http"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/payment"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository/postgres"
	redisrepo "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository/redis"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/migrations"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/health"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httpclient"
	pkgkafka "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/kafka"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	statusConsumer *pkgkafka.Consumer
	limiter        *middleware.RateLimiter
	tracerShutdown tracing.ShutdownFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   cfg.OTELSampleRate,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Repositories.
	products := postgres.NewProductRepository(pool)
	carts := postgres.NewCartRepository(pool)
	wishlists := postgres.NewWishlistRepository(pool)
	orders := postgres.NewOrderRepository(pool)

	rateCache := redisrepo.NewRateCache(rdb, cfg.RateCacheTTL)
	mergeLock := redisrepo.NewMergeLock(rdb)
	broker := redisrepo.NewStatusBroker(rdb)

	// Build the dependency graph.
	eventProducer := event.NewProducer(producer, logger)
	coupons := service.NewCouponService(postgres.NewCouponRepository(pool), logger)
	currency := service.NewCurrencyService(postgres.NewCurrencyRepository(pool), rateCache, cfg.BaseCurrency, logger)
	orderService := service.NewOrderService(orders, broker, logger)

	services := handler.Services{
		Catalog: service.NewCatalogService(products,
			postgres.NewCategoryRepository(pool),
			postgres.NewReviewRepository(pool),
			logger,
		),
		Cart:     service.NewCartService(carts, products, cfg.BaseCurrency, logger),
		Wishlist: service.NewWishlistService(wishlists, logger),
		Merge:    service.NewMergeService(carts, wishlists, mergeLock, eventProducer, cfg.BaseCurrency, cfg.MergeLockTTL, logger),
		Coupons:  coupons,
		Currency: currency,
		Checkout: service.NewCheckoutService(carts, orders, coupons,
			newPaymentRegistry(cfg, logger), broker, eventProducer, cfg.BaseCurrency, logger),
		Orders: orderService,
		Content: service.NewContentService(
			postgres.NewBlogRepository(pool),
			postgres.NewSupportRepository(pool),
			postgres.NewCustomOrderRepository(pool),
			eventProducer,
			logger,
		),
	}

	// Order status updates from fulfilment.
	var dlq *pkgkafka.DLQProducer
	var statusConsumer *pkgkafka.Consumer
	if cfg.ConsumeStatusEvents {
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		statusConsumer = event.NewStatusConsumer(cfg.KafkaBrokers,
			event.NewConsumerHandler(orderService, logger),
			redisrepo.NewIdempotencyStore(rdb, cfg.EventDedupTTL),
			dlq, logger)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", producer.Ping)

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty; every bearer token will be rejected")
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTLeeway)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	// HTTP router.
	router := handler.NewRouter(services, handler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		SSEHeartbeat:   cfg.SSEHeartbeat,
		Session: middleware.SessionConfig{
			CookieDomain: cfg.SessionCookieDomain,
			SecureCookie: cfg.SessionSecureCookie,
			MaxAge:       cfg.SessionMaxAge,
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: true,
		},
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		VerifyToken: verifier.Verify,
		Limiter:     limiter,
	}, healthHandler, logger)

	// No WriteTimeout: order event streams stay open. Handlers are bounded
	// by the router's request timeout instead.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		dlq:            dlq,
		statusConsumer: statusConsumer,
		limiter:        limiter,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// newPaymentRegistry builds the enabled gateways, each behind its own
// retrying client and circuit breaker.
func newPaymentRegistry(cfg *config.Config, logger *slog.Logger) *payment.Registry {
	gateway := func(name string) httpclient.Doer {
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = cfg.PaymentTimeout
		return httpclient.NewCircuitBreakerClient(httpclient.New(clientCfg),
			httpclient.DefaultCircuitBreakerConfig("payment-"+name), logger)
	}

	var providers []payment.Provider
	if cfg.HasProvider(string(domain.ProviderHosted)) {
		providers = append(providers, payment.NewHosted(payment.HostedConfig{
			BaseURL:       cfg.HostedBaseURL,
			SecretKey:     cfg.HostedSecretKey,
			WebhookSecret: cfg.HostedWebhookSecret,
			SuccessURL:    cfg.HostedSuccessURL,
			CancelURL:     cfg.HostedCancelURL,
			Tolerance:     cfg.HostedWebhookTolerance,
		}, gateway(string(domain.ProviderHosted))))
	}
	if cfg.HasProvider(string(domain.ProviderWidget)) {
		providers = append(providers, payment.NewWidget(payment.WidgetConfig{
			BaseURL:   cfg.WidgetBaseURL,
			KeyID:     cfg.WidgetKeyID,
			KeySecret: cfg.WidgetKeySecret,
		}, gateway(string(domain.ProviderWidget))))
	}

	registry := payment.NewRegistry(providers...)
	logger.Info("payment providers configured", slog.Any("providers", registry.Names()))
	return registry
}

// Run starts the HTTP server and the status consumer, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.statusConsumer != nil {
		go func() {
			if err := a.statusConsumer.Start(ctx); err != nil {
				a.logger.Error("status consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.limiter.Stop()

	if a.statusConsumer != nil {
		if err := a.statusConsumer.Close(); err != nil {
			a.logger.Error("status consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
		}
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	// Close Redis client.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	// Close PostgreSQL pool.
	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
