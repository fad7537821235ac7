package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"offline-pay/config"
	httpHandler "offline-pay/internal/adapter/http/handler"
	"offline-pay/internal/adapter/http/middleware"
	pgStorage "offline-pay/internal/adapter/storage/postgres"
	redisStorage "offline-pay/internal/adapter/storage/redis"
	"offline-pay/internal/core/ports"
	"offline-pay/internal/service"
	"offline-pay/pkg/logger"
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
		Msg("Starting Offline Pay reconciliation server")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	nonceRepo := pgStorage.NewNonceRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	transferRepo := pgStorage.NewTransferRepo(pool)
	keyRegistry := pgStorage.NewKeyRegistry(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	nonceCache := redisStorage.NewNonceStore(rdb)
	outcomeCache := redisStorage.NewOutcomeCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	verifier := service.NewRSAVerifier()
	vault := service.NewArgon2Vault()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	clock := service.SystemClock{}

	// Initialize business services
	walletSvc := service.NewWalletService(walletRepo, transferRepo, ledgerRepo, vault, transactor, logger.Component(log, "wallet"))
	syncSvc := service.NewSyncService(
		walletRepo,
		nonceRepo,
		ledgerRepo,
		keyRegistry,
		verifier,
		nonceCache,
		outcomeCache,
		transactor,
		clock,
		logger.Component(log, "reconciler"),
	)
	receiptSvc := service.NewReceiptVerifier(verifier)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		SyncSvc:        syncSvc,
		ReceiptSvc:     receiptSvc,
		KeyRegistry:    keyRegistry,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		RateLimitRules: middleware.RateLimitRules(cfg.RateLimit),
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		MaxSyncBatch:   cfg.Protocol.MaxSyncBatch,
		MaxBodyBytes:   cfg.Protocol.MaxBodyBytes,
		Logger:         log,
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
