package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relief-disbursement-gateway/config"
	httpHandler "relief-disbursement-gateway/internal/adapter/http/handler"
	"relief-disbursement-gateway/internal/adapter/oracle"
	pgStorage "relief-disbursement-gateway/internal/adapter/storage/postgres"
	redisStorage "relief-disbursement-gateway/internal/adapter/storage/redis"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/internal/service"
	"relief-disbursement-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Relief Disbursement Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.RunMigrations {
		if err := pgStorage.Migrate(ctx, cfg.Database, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Limit and timing windows are anchored to this timezone.
	loc, err := time.LoadLocation(cfg.Limits.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Limits.Timezone).Msg("Invalid limits timezone")
	}

	// Initialize repositories
	txStore := pgStorage.NewTransactionStore(pool)
	annotStore := pgStorage.NewAnnotationStore(pool)
	limitStore := pgStorage.NewCategoryLimitStore(pool)
	vendorRepo := pgStorage.NewVendorRepo(pool)
	adminRepo := pgStorage.NewAdminRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// External wallet balance oracle
	balanceOracle := oracle.NewClient(cfg.Oracle)

	// Decision event notifier (redis pub/sub, best effort)
	notifier := redisStorage.NewNotifier(rdb, cfg.Notifier.Channel)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(adminRepo, hashSvc, tokenSvc)
	balanceSvc := service.NewBalanceService(txStore, log)
	limitSvc := service.NewLimitService(limitStore, txStore, loc, log)
	fraudSvc := service.NewFraudService(txStore, fraudThresholds(cfg.Fraud), loc, log)
	vendorSvc := service.NewVendorService(vendorRepo, log)
	historySvc := service.NewHistoryService(txStore, annotStore, log)
	disbursementSvc := service.NewDisbursementService(
		txStore,
		annotStore,
		vendorRepo,
		balanceOracle,
		balanceSvc,
		limitSvc,
		fraudSvc,
		vendorSvc,
		notifier,
		transactor,
		log,
	)

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		DisbursementSvc: disbursementSvc,
		BalanceSvc:      balanceSvc,
		Oracle:          balanceOracle,
		HistorySvc:      historySvc,
		VendorSvc:       vendorSvc,
		VendorRepo:      vendorRepo,
		LimitStore:      limitStore,
		TokenSvc:        tokenSvc,
		RateLimitStore:  rateLimitStore,
		HealthCheckers:  []ports.HealthChecker{pgHealth, redisHealth},
		Logger:          log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// fraudThresholds maps the config snapshot into the analyzer's
// immutable thresholds.
func fraudThresholds(cfg config.FraudConfig) service.FraudThresholds {
	return service.FraudThresholds{
		MaxTransactionAmount: cfg.MaxTransactionAmount,
		DailySpendingCap:     cfg.DailySpendingCap,
		VendorDailyCap:       cfg.VendorDailyCap,
		DuplicateWindow:      cfg.DuplicateWindow,
		RapidWindow:          cfg.RapidWindow,
		RapidMaxCount:        cfg.RapidMaxCount,
		RapidMinGap:          cfg.RapidMinGap,
		RapidMaxCloseGaps:    cfg.RapidMaxCloseGaps,
		ConcentrationWindow:  cfg.ConcentrationWindow,
		ConcentrationMinTx:   cfg.ConcentrationMinTx,
		ConcentrationRatio:   cfg.ConcentrationRatio,
		TimingWindow:         cfg.TimingWindow,
		TimingMinTx:          cfg.TimingMinTx,
		TimingMaxHours:       cfg.TimingMaxHours,
		TimingDominantRatio:  cfg.TimingDominantRatio,
	}
}
