package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	_ "github.com/storefront/backend/docs"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	eventapp "github.com/storefront/backend/internal/application/event"
	identityapp "github.com/storefront/backend/internal/application/identity"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"github.com/storefront/backend/migrations"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

//	@title			Storefront API
//	@version		1.0
//	@description	Storefront backend: catalog, cart, checkout and order management

//	@contact.name	API Support

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// second logger tees into the OTLP log exporter when it is enabled
	log, err := logger.New(logCfg, providers.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	runErr := run(ctx, cfg, log, providers)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}

	if runErr != nil {
		log.Error("Server stopped with error", zap.Error(runErr))
		_ = logger.Sync(log)
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
	_ = logger.Sync(log)
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, providers *telemetry.Providers) error {
	meter := providers.Meter.Meter(cfg.Telemetry.ServiceName)

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database, log); err != nil {
			return err
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, meter, log); err != nil {
		return err
	}
	log.Info("Database connected successfully")

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = idempotencyStore.Close() }()

	health := handler.NewHealthHandler(2 * time.Second).
		Register("database", func(context.Context) error { return db.Ping() })

	var blacklist auth.TokenBlacklist
	if rs, ok := idempotencyStore.(*cache.RedisIdempotencyStore); ok {
		blacklist = auth.NewRedisTokenBlacklist(rs.Client())
		health.Register("redis", rs.Ping)
	} else {
		log.Warn("Token revocation is local to this instance")
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("register business metrics: %w", err)
	}

	// Events are written to the outbox inside the order transaction and
	// delivered to the bus by the processor
	serializer := event.NewOrderEventSerializer()
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	outboxPublisher := event.NewOutboxPublisher(serializer, cfg.Event.MaxRetries)

	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB, outboxPublisher)

	numbers, err := order.NewSnowflakeNumberGenerator(cfg.Order.SnowflakeNode)
	if err != nil {
		return err
	}
	pricing := order.PricingPolicy{
		TaxRate:               cfg.Pricing.TaxRate,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		ShippingFee:           cfg.Pricing.ShippingFee,
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	productService := catalogapp.NewProductService(productRepo, log)
	cartService := cartapp.NewCartService(cartRepo, productRepo, log)
	orderService := orderapp.NewOrderService(orderRepo, productRepo, cartRepo, numbers, pricing, log).
		WithMetrics(businessMetrics)
	deadLetterService := eventapp.NewDeadLetterService(outboxRepo, log)

	bus := event.NewInMemoryEventBus(log)
	sinks, err := subscribeConsumers(cfg.Event, bus, serializer, idempotencyStore, businessMetrics, log)
	if err != nil {
		return err
	}
	defer closeSinks(sinks, log)
	processor := event.NewOutboxProcessor(outboxRepo, bus, serializer, event.OutboxProcessorConfigFrom(cfg.Event), log)

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	httpMetrics := middleware.NewHTTPMetrics("storefront")
	engine.Use(httpMetrics.Middleware())
	engine.GET("/health", health.Check)
	engine.GET("/metrics", gin.WrapH(httpMetrics.Handler()))

	guards := router.Guards{
		Authenticate: middleware.JWTAuth(middleware.JWTConfig{
			Validator: jwtService,
			Blacklist: blacklist,
			Logger:    log,
		}),
		Idempotency: middleware.Idempotency(idempotencyStore, cfg.HTTP.IdempotencyTTL),
	}
	var apiLimit gin.HandlerFunc
	if rl := cfg.HTTP.RateLimit; rl.Enabled {
		apiLimit = middleware.RateLimit(middleware.NewKeyedLimiter(rl.APIRequests, rl.APIWindow), middleware.RateLimitOptions{})
		guards.AuthLimit = middleware.RateLimit(middleware.NewKeyedLimiter(rl.AuthRequests, rl.AuthWindow), middleware.RateLimitOptions{FailuresOnly: true})
		log.Info("Rate limiting enabled",
			zap.Int("api_requests", rl.APIRequests),
			zap.Duration("api_window", rl.APIWindow),
			zap.Int("auth_requests", rl.AuthRequests),
			zap.Duration("auth_window", rl.AuthWindow),
		)
	}

	swaggerGuard := middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	}
	if cfg.Swagger.RequireAuth {
		swaggerGuard.Authenticate = []gin.HandlerFunc{guards.Authenticate, middleware.RequireAdmin()}
	}
	engine.GET("/swagger/*any", middleware.SwaggerProtection(swaggerGuard), ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Products: handler.NewProductHandler(productService),
		Cart:     handler.NewCartHandler(cartService),
		Orders:   handler.NewOrderHandler(orderService),
		Outbox:   handler.NewOutboxHandler(deadLetterService),
	}
	router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithAPIMiddleware(apiLimit)).
		Register(router.APIGroups(handlers, guards)...).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	if cfg.Event.ProcessorEnabled {
		if err := bus.Start(ctx); err != nil {
			return err
		}
		if err := processor.Start(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		errs := []error{srv.Shutdown(shutdownCtx)}
		if cfg.Event.ProcessorEnabled {
			errs = append(errs, processor.Stop(shutdownCtx), bus.Stop(shutdownCtx))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

// newEngine builds the gin engine with the cross-cutting middleware chain.
// Order matters: the request ID must exist before tracing and logging read it.
func newEngine(cfg *config.Config, log *zap.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName),
		middleware.TracingAttributes(),
		logger.GinMiddleware(log),
		middleware.Profiling(),
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	return engine, nil
}

// subscribeConsumers attaches the outbox consumers to the bus. Each consumer
// deduplicates deliveries under its own scope so a redelivered event is
// skipped by consumers that already handled it but still reaches the others.
func subscribeConsumers(
	cfg config.EventConfig,
	bus *event.InMemoryEventBus,
	serializer *event.EventSerializer,
	store shared.IdempotencyStore,
	recorder event.StatusRecorder,
	log *zap.Logger,
) ([]event.Sink, error) {
	dedup := event.WithIdempotencyConfig(event.IdempotencyConfig{Enabled: true, TTL: cfg.ConsumerDedupTTL})

	bus.Subscribe(event.NewIdempotentHandler(
		event.NewOrderMetricsHandler(recorder), store, log, dedup, event.WithScope("order-metrics"),
	))

	var sinks []event.Sink
	if cfg.Kafka.Enabled {
		sinks = append(sinks, event.NewKafkaSink(cfg.Kafka))
	}
	if cfg.RabbitMQ.Enabled {
		rabbit, err := event.DialRabbitSink(cfg.RabbitMQ)
		if err != nil {
			closeSinks(sinks, log)
			return nil, err
		}
		sinks = append(sinks, rabbit)
	}

	for _, sink := range sinks {
		bus.Subscribe(event.NewIdempotentHandler(
			event.NewSinkHandler(sink, serializer), store, log, dedup, event.WithScope("sink:"+sink.Name()),
		))
		log.Info("Event sink enabled", zap.String("sink", sink.Name()))
	}
	return sinks, nil
}

func closeSinks(sinks []event.Sink, log *zap.Logger) {
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			log.Warn("Error closing event sink", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}

// migrateUp applies the embedded migrations on a dedicated connection, since
// closing the migrator also closes the database handle it was given
func migrateUp(cfg config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = m.Close() }()

	return m.Up()
}
