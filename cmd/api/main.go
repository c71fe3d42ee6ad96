package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vaultmarket/config"
	"vaultmarket/internal/adapter/achievements"
	httpHandler "vaultmarket/internal/adapter/http/handler"
	pgStorage "vaultmarket/internal/adapter/storage/postgres"
	redisStorage "vaultmarket/internal/adapter/storage/redis"
	"vaultmarket/internal/core/ports"
	"vaultmarket/internal/service"
	"vaultmarket/pkg/logger"
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
		Msg("Starting VaultMarket settlement service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	listingRepo := pgStorage.NewListingRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	subscriptionRepo := pgStorage.NewSubscriptionRepo(pool)
	rateRepo := pgStorage.NewRateRepo(pool)
	portfolioRepo := pgStorage.NewPortfolioRepo(pool)
	vaultRepo := pgStorage.NewVaultRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	rateCache := redisStorage.NewRateCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize services
	tokenSvc := service.NewTokenService(cfg.JWT)
	auditSvc := service.NewAuditService(auditRepo, logger.For(log, "audit"))
	ratesSvc := service.NewRatesService(rateCache, rateRepo, cfg.Settlement.RateCacheTTL, logger.For(log, "rates"))
	feeSvc := service.NewFeeService(cfg.Settlement, subscriptionRepo)

	var achievementClient ports.AchievementClient
	if cfg.Achievements.URL != "" {
		achievementClient = achievements.NewClient(cfg.Achievements, logger.For(log, "achievements"))
	}
	effectsSvc := service.NewEffectsService(
		portfolioRepo, vaultRepo, achievementClient,
		30*time.Second, logger.For(log, "effects"),
	)

	settlementSvc := service.NewSettlementService(
		transactor, listingRepo, walletRepo, orderRepo, txRepo,
		ratesSvc, feeSvc, effectsSvc, auditSvc,
		logger.For(log, "settlement"),
	)
	walletSvc := service.NewWalletService(transactor, walletRepo, txRepo, auditSvc, logger.For(log, "wallet"))
	orderSvc := service.NewOrderService(orderRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		SettlementSvc:  settlementSvc,
		FeeSvc:         feeSvc,
		WalletSvc:      walletSvc,
		OrderSvc:       orderSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

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

	// Let in-flight background work drain before closing the pools.
	effectsSvc.Wait()
	auditSvc.Wait()

	log.Info().Msg("Server exited")
}
