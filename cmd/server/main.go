package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	billingapp "github.com/siatbridge/backend/internal/application/billing"
	catalogapp "github.com/siatbridge/backend/internal/application/catalog"
	integrationapp "github.com/siatbridge/backend/internal/application/integration"
	partnerapp "github.com/siatbridge/backend/internal/application/partner"
	syncapp "github.com/siatbridge/backend/internal/application/sync"
	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/infrastructure/config"
	"github.com/siatbridge/backend/internal/infrastructure/lock"
	"github.com/siatbridge/backend/internal/infrastructure/logger"
	"github.com/siatbridge/backend/internal/infrastructure/persistence"
	"github.com/siatbridge/backend/internal/infrastructure/scheduler"
	"github.com/siatbridge/backend/internal/infrastructure/siat"
	"github.com/siatbridge/backend/internal/infrastructure/storage"
	"github.com/siatbridge/backend/internal/infrastructure/telemetry"
	"github.com/siatbridge/backend/internal/interfaces/http/handler"
	"github.com/siatbridge/backend/internal/interfaces/http/middleware"
	"github.com/siatbridge/backend/internal/interfaces/http/router"
)

// version is stamped at build time with -ldflags
var version = "dev"

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

	// Bridge zap output to the OTLP collector when log export is enabled
	ctx := context.Background()
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
	}

	log.Info("Starting SIAT bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	fiscalZone, err := time.LoadLocation(cfg.Bridge.FiscalTimeZone)
	if err != nil {
		log.Fatal("Invalid fiscal time zone", zap.Error(err))
	}

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

	// Initialize telemetry providers (no-ops when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.DB.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Database.DBName))); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	endpointRepo := persistence.NewGormEndpointRepository(db.DB)
	referenceRepo := persistence.NewGormReferenceRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	posRepo := persistence.NewGormPointOfSaleRepository(db.DB)
	dailyCodeRepo := persistence.NewGormDailyCodeRepository(db.DB)
	systemCodeRepo := persistence.NewGormSystemCodeRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	eventRepo := persistence.NewGormContingencyEventRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	// Bridge metrics feed off the meter provider and the invoice queue
	bridgeMetrics, err := telemetry.NewBridgeMetrics(telemetry.BridgeMetricsConfig{
		Meter:         meterProvider.Meter("siat-bridge"),
		Logger:        log,
		QueueProvider: invoiceRepo,
	})
	if err != nil {
		log.Fatal("Failed to initialize bridge metrics", zap.Error(err))
	}
	bridgeMetrics.StartPeriodicCollection(ctx, time.Minute)
	defer bridgeMetrics.Stop()

	// Tax authority bridge client
	taxService := siat.NewService(cfg.Bridge)

	// Issuance lock
	locker, err := lock.NewLocker(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize issuance lock", zap.Error(err))
	}
	log.Info("Issuance lock ready", zap.String("backend", cfg.Lock.Backend))

	// Document archive; issuance falls back to the tax service when disabled
	var archive billing.DocumentArchive
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3Archive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize document archive", zap.Error(err))
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare archive bucket", zap.Error(err))
		}
		archive = s3Archive
		log.Info("Document archive ready", zap.String("bucket", s3Archive.GetBucket()))
	}

	// Initialize application services
	endpointService := integrationapp.NewEndpointService(endpointRepo, taxService)

	issuanceService := billingapp.NewIssuanceService(
		invoiceRepo, customerRepo, productRepo, posRepo,
		endpointService, taxService, locker, cfg.Lock.TTL, fiscalZone,
		billingapp.WithIssuanceLogger(log),
		billingapp.WithIssuanceMetrics(bridgeMetrics),
	)
	cancellationService := billingapp.NewCancellationService(
		invoiceRepo, endpointService, taxService,
		billingapp.WithCancellationLogger(log),
		billingapp.WithCancellationMetrics(bridgeMetrics),
	)
	contingencyService := billingapp.NewContingencyService(
		posRepo, branchRepo, eventRepo, invoiceRepo,
		endpointService, taxService, txManager,
		billingapp.WithContingencyLogger(log),
		billingapp.WithContingencyMetrics(bridgeMetrics),
	)
	documentService := billingapp.NewDocumentService(
		invoiceRepo, dailyCodeRepo, endpointService, taxService, archive,
		billingapp.WithDocumentLogger(log),
	)
	posService := billingapp.NewPointOfSaleService(
		posRepo, branchRepo, dailyCodeRepo, endpointService, taxService,
		billingapp.WithPointOfSaleLogger(log),
	)
	customerService := partnerapp.NewCustomerService(
		customerRepo, referenceRepo, endpointService, taxService,
		partnerapp.WithCustomerLogger(log),
	)
	productService := catalogapp.NewProductService(
		productRepo, referenceRepo, endpointService, taxService,
		catalogapp.WithProductLogger(log),
	)

	// Synchronization pipeline
	referenceSync := syncapp.NewReferenceSync(referenceRepo, endpointService, taxService, log)
	customerSync := syncapp.NewCustomerSync(customerRepo, endpointService, taxService, txManager, log)
	productSync := syncapp.NewProductSync(productRepo, endpointService, taxService, txManager, log)
	fiscalCodeSync := syncapp.NewFiscalCodeSync(posRepo, branchRepo, dailyCodeRepo, systemCodeRepo, endpointService, taxService, log)
	syncRunner := syncapp.NewRunner(referenceSync, customerSync, productSync, fiscalCodeSync, log,
		syncapp.WithRunnerMetrics(bridgeMetrics))

	// Background loops
	syncHour, syncMinute, err := cfg.Scheduler.SyncTime()
	if err != nil {
		log.Fatal("Invalid daily sync time", zap.Error(err))
	}
	syncTrigger := scheduler.NewSyncTrigger(scheduler.SyncTriggerConfig{
		DailySyncHour:   syncHour,
		DailySyncMinute: syncMinute,
		CheckInterval:   cfg.Scheduler.CheckInterval,
		RunTimeout:      cfg.Scheduler.RunTimeout,
	}, syncRunner, log)
	if cfg.Scheduler.Enabled {
		if err := syncTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer func() {
			if err := syncTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync trigger", zap.Error(err))
			}
		}()
		log.Info("Sync trigger started",
			zap.Int("hour", syncHour),
			zap.Int("minute", syncMinute),
		)
	}

	recoveryLoop := scheduler.NewRecoveryLoop(scheduler.RecoveryLoopConfig{
		CheckInterval:  cfg.Bridge.RecoveryInterval,
		RecoveryDelay:  cfg.Bridge.RecoveryDelay,
		AttemptTimeout: cfg.Bridge.RequestTimeout,
	}, posRepo, eventRepo, contingencyService, log)
	if err := recoveryLoop.Start(ctx); err != nil {
		log.Fatal("Failed to start recovery loop", zap.Error(err))
	}
	defer func() {
		if err := recoveryLoop.Stop(context.Background()); err != nil {
			log.Error("Error stopping recovery loop", zap.Error(err))
		}
	}()
	log.Info("Contingency recovery loop started",
		zap.Duration("delay", cfg.Bridge.RecoveryDelay),
		zap.Duration("interval", cfg.Bridge.RecoveryInterval),
	)

	// Initialize HTTP handlers
	endpointHandler := handler.NewEndpointHandler(endpointService)
	invoiceHandler := handler.NewInvoiceHandler(issuanceService, cancellationService, documentService)
	posHandler := handler.NewPointOfSaleHandler(posService, contingencyService)
	customerHandler := handler.NewCustomerHandler(customerService)
	productHandler := handler.NewProductHandler(productService)
	referenceHandler := handler.NewReferenceHandler(referenceSync)
	syncHandler := handler.NewSyncHandler(syncTrigger)
	systemHandler := handler.NewSystemHandler(db, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

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
	// 5. Tracing - OpenTelemetry spans
	// 6. Metrics - Request counters and latency
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("siat-bridge/http")))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning, for load balancers)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(endpointHandler).
		Register(invoiceHandler).
		Register(posHandler).
		Register(customerHandler).
		Register(productHandler).
		Register(referenceHandler).
		Register(syncHandler).
		Register(systemHandler)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
