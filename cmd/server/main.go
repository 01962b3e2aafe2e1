package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/auth"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/cache"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/config"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/logger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/presence"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/scheduler"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/telemetry"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/handler"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/middleware"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	telemetry.ServiceVersion = version

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog := logger.New(logCfg)

	// Telemetry first so the zap bridge can be teed into the final logger
	tel, err := telemetry.Setup(context.Background(), telemetryConfig(cfg), bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	var extraCores []zapcore.Core
	if tel.Logs.IsEnabled() {
		extraCores = append(extraCores, tel.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	}
	log := logger.New(logCfg, extraCores...)
	defer func() { _ = log.Sync() }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting sales ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:  logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond),
		Tracing: cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	raffleRepo := persistence.NewGormRaffleRepository(db.DB)
	ledgerReader := persistence.NewGormLedgerReader(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	sweepRepo := persistence.NewGormSweepRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	saleService := appledger.NewSaleService(txScope, saleRepo, paymentRepo, auditRepo, appledger.RetryPolicy{
		MaxRetries: cfg.Ledger.MaxRetries,
		Backoff:    cfg.Ledger.RetryBackoff,
	}, log)
	clientService := appledger.NewClientService(clientRepo, auditRepo, log)
	raffleService := appledger.NewRaffleService(raffleRepo, clientRepo, auditRepo, log)
	reportService := appledger.NewReportService(ledgerReader, clientRepo, cfg.Ledger.ReportYears, log)
	notifier := appledger.NewStaleDebtNotifier(
		saleRepo,
		clientRepo,
		sweepRepo,
		notificationRepo,
		appledger.StaticRecipients(cfg.Notifier.RecipientIDs),
		ledger.StalePolicy{AfterMonths: cfg.Ledger.StaleAfterMonths, DedupWindow: cfg.Ledger.DedupWindow},
		log,
	)

	meter := tel.Meter.Meter("ledger")
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	saleService.SetMetrics(ledgerMetrics)
	notifier.SetMetrics(ledgerMetrics)

	// The scheduler also serves on-demand sweeps, so it exists even when the
	// periodic loop is off
	sweepScheduler, err := scheduler.NewStaleDebtScheduler(scheduler.StaleDebtSchedulerConfig{
		Interval:     cfg.Notifier.Interval,
		RunOnStart:   true,
		SweepTimeout: 2 * time.Minute,
	}, notifier, log)
	if err != nil {
		log.Fatal("Invalid stale-debt scheduler configuration", zap.Error(err))
	}
	if cfg.Notifier.Enabled {
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start stale-debt scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping stale-debt scheduler", zap.Error(err))
			}
		}()
		if len(cfg.Notifier.RecipientIDs) == 0 {
			log.Warn("Stale-debt notifier has no recipients; sweeps will emit nothing")
		}
	}

	tracker, err := presence.NewTracker(cfg.Presence, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create presence tracker", zap.Error(err))
	}
	defer func() { _ = tracker.Close() }()

	idempotencyStore, err := cache.NewIdempotencyStore(cfg.Idempotency, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	if idempotencyStore != nil {
		defer func() { _ = idempotencyStore.Close() }()
	}

	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return db.DB.WithContext(ctx).Exec("SELECT 1").Error },
	}
	if pinger, ok := tracker.(interface{ Ping(context.Context) error }); ok {
		checks["redis"] = pinger.Ping
	}

	handlers := router.Handlers{
		Clients:       handler.NewClientHandler(clientService),
		Sales:         handler.NewSaleHandler(saleService),
		Reports:       handler.NewReportHandler(reportService, cfg.Ledger.TopSpenders),
		Raffles:       handler.NewRaffleHandler(raffleService),
		Presence:      handler.NewPresenceHandler(tracker),
		Notifications: handler.NewNotificationHandler(sweepScheduler, notificationRepo),
		System:        handler.NewSystemHandler(cfg.App.Name, version, checks),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. Recovery - catch panics
	// 2. RequestID - generate/propagate request ID
	// 3. Tracing - root span per request
	// 4. Logger - access log enriched with the request id
	// 5. Secure, CORS, BodyLimit
	// 6. Actor - who is acting, from the bearer token
	// 7. SpanAttributes - request and actor ids on the span
	// 8. Idempotency - per-actor Idempotency-Key dedup of writes
	// 9. Metrics, Profiling
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.Use(middleware.Actor(middleware.ActorConfig{
		Validator: auth.NewTokenValidator(cfg.JWT),
		Required:  cfg.JWT.Required,
		SkipPaths: []string{"/health", "/ready"},
	}))
	engine.Use(middleware.SpanAttributes())
	if idempotencyStore != nil {
		engine.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, log))
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)
	engine.Use(middleware.Profiling(cfg.Telemetry.ProfilingEnabled, "/health", "/ready"))

	router.Mount(engine, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	t := cfg.Telemetry
	serviceName := t.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	return telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          t.Insecure,
		MetricsEnabled:    t.MetricsEnabled,
		MetricsInterval:   t.MetricsInterval,
		LogsEnabled:       t.LogsEnabled,
		ProfilingEnabled:  t.ProfilingEnabled,
		ProfilerAddress:   t.ProfilerAddress,
	}
}
