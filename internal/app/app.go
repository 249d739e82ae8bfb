package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/brickstemple/storefront/internal/auth"
	"github.com/brickstemple/storefront/internal/config"
	"github.com/brickstemple/storefront/internal/event"
	handler "github.com/brickstemple/storefront/internal/handler/http"
	"github.com/brickstemple/storefront/internal/ratelimit"
	pgrepo "github.com/brickstemple/storefront/internal/repository/postgres"
	"github.com/brickstemple/storefront/internal/service"
	"github.com/brickstemple/storefront/migrations"
	"github.com/brickstemple/storefront/pkg/database"
	"github.com/brickstemple/storefront/pkg/health"
	pkgkafka "github.com/brickstemple/storefront/pkg/kafka"
	"github.com/brickstemple/storefront/pkg/middleware"
	"github.com/brickstemple/storefront/pkg/tracing"
)

const (
	serviceName      = "storefront-api"
	statsKeyPrefix   = "storefront:ratelimit"
	startupTimeout   = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
	serviceVersion   = "1.0.0"
	httpReadTimeout  = 15 * time.Second
	httpWriteTimeout = 35 * time.Second
	httpIdleTimeout  = 60 * time.Second
)

// App wires together all dependencies and runs the storefront API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	limiter        *ratelimit.Limiter
	stats          *ratelimit.RedisStats
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
	background     sync.WaitGroup
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL and bring the schema up to date.
	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		URL:      cfg.PostgresDSN(),
		MaxConns: cfg.PostgresMaxConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL", slog.String("host", cfg.PostgresHost), slog.String("db", cfg.PostgresDB))

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Redis only carries rate limit statistics, so the API starts without it.
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, rate limit statistics disabled", slog.String("error", err.Error()))
		rdb = nil
	}

	// Initialize Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Admission control.
	limiter := ratelimit.New(ratelimit.Config{Limit: cfg.RateLimit, Window: cfg.RateLimitWindow})
	limiterMetrics, err := ratelimit.NewMetrics(prometheus.DefaultRegisterer, limiter)
	if err != nil {
		logger.Warn("rate limit metrics not registered", slog.String("error", err.Error()))
	}
	var stats *ratelimit.RedisStats
	if rdb != nil {
		stats = ratelimit.NewRedisStats(rdb, statsKeyPrefix, logger)
	}

	// Build the dependency graph.
	wishlistRepo := pgrepo.NewWishlistRepository(pool)
	orderRepo := pgrepo.NewOrderRepository(pool)
	uow := pgrepo.NewUnitOfWork(pool)
	publisher := pkgkafka.NewBreakingPublisher(producer, pkgkafka.DefaultBreakerConfig("kafka-producer"), logger)
	eventProducer := event.NewProducer(publisher, logger)

	checkoutMetrics, err := service.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Warn("checkout metrics not registered", slog.String("error", err.Error()))
	}

	wishlistService := service.NewWishlistService(wishlistRepo, logger)
	orderService := service.NewOrderService(orderRepo, eventProducer, logger)
	checkoutService := service.NewCheckoutService(uow, eventProducer, checkoutMetrics, logger)

	verifier := auth.NewTokenVerifier(cfg.JWTSecret, cfg.JWTExpiry)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", pool.Ping)
	healthHandler.RegisterNonCritical("kafka", producer.Ping)
	if rdb != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Wishlists: wishlistService,
		Orders:    orderService,
		Checkout:  checkoutService,
		Health:    healthHandler,
		Limiter:   limiter,
		LimitOptions: ratelimit.Options{
			TrustProxyHeaders: cfg.TrustProxyHeaders,
			Logger:            logger,
			Metrics:           limiterMetrics,
			Stats:             stats,
		},
		VerifyToken: verifier.Verify,
		CORS:        middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		limiter:        limiter,
		stats:          stats,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// Run starts the HTTP server and the background workers and blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		a.limiter.RunJanitor(workerCtx, a.cfg.RateLimitSweepInterval, time.Now)
	}()

	if a.stats != nil {
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			a.stats.Run(workerCtx, a.cfg.StatsFlushInterval)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.Int("rate_limit", a.limiter.Limit()),
			slog.Duration("rate_limit_window", a.limiter.Window()),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopWorkers()
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Workers stop with the run context; wait so the final stats flush
	// happens before Redis closes.
	a.background.Wait()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
