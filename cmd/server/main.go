package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	identityapp "github.com/propshare/backend/internal/application/identity"
	"github.com/propshare/backend/internal/application/notification"
	paymentapp "github.com/propshare/backend/internal/application/payment"
	portfolioapp "github.com/propshare/backend/internal/application/portfolio"
	settlementapp "github.com/propshare/backend/internal/application/settlement"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/infrastructure/auth"
	"github.com/propshare/backend/internal/infrastructure/cache"
	"github.com/propshare/backend/internal/infrastructure/config"
	"github.com/propshare/backend/internal/infrastructure/event"
	"github.com/propshare/backend/internal/infrastructure/gateway"
	"github.com/propshare/backend/internal/infrastructure/logger"
	"github.com/propshare/backend/internal/infrastructure/persistence"
	"github.com/propshare/backend/internal/infrastructure/storage"
	"github.com/propshare/backend/internal/infrastructure/telemetry"
	"github.com/propshare/backend/internal/interfaces/http/handler"
	"github.com/propshare/backend/internal/interfaces/http/middleware"
	"github.com/propshare/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PropShare Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize telemetry providers (no-op when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Database query tracing and pool metrics
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log); err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}

	// Continuous profiling (Pyroscope)
	if cfg.Telemetry.ProfilingEnabled {
		profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:           true,
			ServerAddress:     cfg.Telemetry.ProfilingServer,
			ApplicationName:   cfg.Telemetry.ServiceName,
			ProfileCPU:        true,
			ProfileInuseSpace: true,
			ProfileGoroutines: true,
		}, log)
		if err != nil {
			log.Warn("Failed to start profiler", zap.Error(err))
		} else {
			defer func() {
				if err := profiler.Stop(); err != nil {
					log.Error("Error stopping profiler", zap.Error(err))
				}
			}()
		}
	}

	// Initialize repositories
	investorRepo := persistence.NewGormInvestorRepository(db.DB)
	propertyRepo := persistence.NewGormPropertyRepository(db.DB)
	shareRepo := persistence.NewGormShareRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	webhookEventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	refundRequestRepo := persistence.NewGormRefundRequestRepository(db.DB)
	disputeRepo := persistence.NewGormDisputeRepository(db.DB)
	auditLogRepo := persistence.NewGormAuditLogRepository(db.DB)

	// Settlement scope: one serializable transaction around inventory,
	// position and ledger writes
	transactionScope := persistence.NewGormTransactionScope(db.DB)

	// Idempotency store: Redis when reachable, in-memory fallback otherwise
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Payment gateway
	stripeGateway, err := gateway.NewStripeAdapter(&gateway.StripeConfig{
		APIKey:        cfg.Stripe.APIKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Timeout:       cfg.Stripe.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Raw webhook payload archive
	var payloadArchive paymentapp.PayloadArchive
	if cfg.Archive.Enabled {
		s3Archive, err := storage.NewS3PayloadArchive(&cfg.Archive, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize payload archive", zap.Error(err))
		}
		payloadArchive = s3Archive
		log.Info("Webhook payload archive enabled",
			zap.String("bucket", cfg.Archive.Bucket),
			zap.String("region", cfg.Archive.Region),
		)
	} else {
		payloadArchive = storage.NewNoOpPayloadArchive()
	}

	// Fee schedule
	feeSchedule, err := payment.NewFeeSchedule(cfg.Fees.PlatformRate, cfg.Fees.ProcessingRate, cfg.Fees.FixedFee)
	if err != nil {
		log.Fatal("Invalid fee schedule configuration", zap.Error(err))
	}

	// Token blacklist for logout: Redis when reachable, in-memory otherwise
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory token blacklist", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
	}

	// Initialize event bus and subscribe the audit sink. The sink is wrapped
	// with idempotency checking so a redelivered event writes one audit row.
	eventBus := event.NewInMemoryEventBus(log)
	auditSink := notification.NewAuditSink(auditLogRepo, log)
	auditHandler := event.NewIdempotentHandler(auditSink, idempotencyStore, log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	log.Info("Audit sink registered", zap.Strings("event_types", auditHandler.EventTypes()))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(investorRepo, jwtService, tokenBlacklist, log)

	settlementService := settlementapp.NewSettlementService(settlementapp.SettlementServiceConfig{
		TransactionScope: transactionScope,
		EventPublisher:   eventBus,
		Logger:           log,
	})

	intentService := paymentapp.NewIntentService(paymentapp.IntentServiceConfig{
		TransactionRepo:     transactionRepo,
		PropertyRepo:        propertyRepo,
		Gateway:             stripeGateway,
		FeeSchedule:         feeSchedule,
		SupportedCurrencies: cfg.Fees.SupportedCurrencies,
		IdempotencyStore:    idempotencyStore,
		EventPublisher:      eventBus,
		Logger:              log,
	})

	webhookService := paymentapp.NewWebhookService(paymentapp.WebhookServiceConfig{
		Gateway:          stripeGateway,
		WebhookEventRepo: webhookEventRepo,
		TransactionRepo:  transactionRepo,
		DisputeRepo:      disputeRepo,
		Settler:          settlementService,
		Archive:          payloadArchive,
		EventPublisher:   eventBus,
		Logger:           log,
	})

	refundService := paymentapp.NewRefundService(paymentapp.RefundServiceConfig{
		TransactionRepo:  transactionRepo,
		RefundRepo:       refundRequestRepo,
		Gateway:          stripeGateway,
		TransactionScope: transactionScope,
		IdempotencyStore: idempotencyStore,
		EventPublisher:   eventBus,
		Logger:           log,
	})

	portfolioService := portfolioapp.NewPortfolioService(propertyRepo, shareRepo, transactionRepo, log)

	// Business metrics: counters recorded inline by the services, gauges
	// collected periodically from persisted state
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:             meterProvider.Meter("business"),
			Logger:            log,
			PortfolioProvider: telemetry.NewGormPortfolioMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			intentService.SetBusinessMetrics(businessMetrics)
			webhookService.SetBusinessMetrics(businessMetrics)
			refundService.SetBusinessMetrics(businessMetrics)
			settlementService.SetBusinessMetrics(businessMetrics)
			businessMetrics.StartPeriodicCollection(context.Background(), 5*time.Minute)
			defer businessMetrics.Stop()
		}
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	paymentIntentHandler := handler.NewPaymentIntentHandler(intentService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	refundHandler := handler.NewRefundHandler(refundService)
	propertyHandler := handler.NewPropertyHandler(portfolioService)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. Tracing/Metrics/Profiling - Telemetry (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Telemetry middleware
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}

	// Liveness and readiness endpoints (outside API versioning)
	engine.GET("/health", healthHandler())
	engine.GET("/ready", readyHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// Registration, login and gateway webhooks are the only public paths.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/webhooks",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Identity domain
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentInvestor)

	// Payment domain: intents and refunds
	paymentRoutes := router.NewDomainGroup("payments", "")
	paymentRoutes.POST("/payment-intents", paymentIntentHandler.CreateIntent)
	paymentRoutes.POST("/refunds", refundHandler.CreateRefund)

	// Gateway webhooks (unauthenticated, signature-verified)
	webhookRoutes := router.NewDomainGroup("webhooks", "/webhooks")
	webhookRoutes.POST("/payment", webhookHandler.HandlePaymentWebhook)

	// Property catalog
	propertyRoutes := router.NewDomainGroup("properties", "/properties")
	propertyRoutes.GET("", propertyHandler.List)
	propertyRoutes.GET("/:id", propertyHandler.Get)

	// Investor portfolio and transaction history
	portfolioRoutes := router.NewDomainGroup("portfolio", "/portfolio")
	portfolioRoutes.GET("", portfolioHandler.GetPortfolio)

	transactionRoutes := router.NewDomainGroup("transactions", "/transactions")
	transactionRoutes.GET("", portfolioHandler.ListTransactions)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(authRoutes).
		Register(paymentRoutes).
		Register(webhookRoutes).
		Register(propertyRoutes).
		Register(portfolioRoutes).
		Register(transactionRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process liveness
func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// readyHandler reports readiness: the database must answer a ping
func readyHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
