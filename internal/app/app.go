package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/api"
	"github.com/ultrasignals/trading-ledger/internal/api/middleware"
	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/db"
	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/gateway"
	"github.com/ultrasignals/trading-ledger/internal/idempotency"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/policy"
	"github.com/ultrasignals/trading-ledger/internal/repository"
	"github.com/ultrasignals/trading-ledger/internal/service"
	"github.com/ultrasignals/trading-ledger/internal/worker"
)

// Run bootstraps the HTTP server and background workers, blocking until
// shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	idemStore := idempotency.NewStore(redisClient, pool, cfg.IdempotencyTTL)
	store := repository.NewStore(pool)
	bookkeeper := ledger.New(store)
	mockGateway := gateway.NewMockGateway()

	seed := time.Now().UnixNano()
	services := api.Services{
		Accounts:    service.NewAccountService(store, cfg),
		Trades:      service.NewTradeService(store, bookkeeper, policy.NewRandomOutcome(seed), policy.NewRandomPrice(seed+1), cfg),
		Transfers:   service.NewTransferService(store, bookkeeper),
		Rewards:     service.NewRewardService(store, bookkeeper, domain.DefaultWheel(), cfg, seed+2),
		Affiliates:  service.NewAffiliateService(store, bookkeeper, cfg),
		Deposits:    service.NewDepositService(store, bookkeeper, mockGateway),
		Withdrawals: service.NewWithdrawalService(store, bookkeeper, mockGateway, cfg),
	}
	services.Webhooks = service.NewWebhookService(services.Deposits, cfg.WebhookHMACKey, cfg.WebhookSkipSignature)

	settlementWorker := worker.NewSettlementWorker(services.Trades).
		WithPollInterval(cfg.SettlementPollInterval).
		WithBatchSize(cfg.SettlementBatchSize)
	payoutWorker := worker.NewPayoutWorker(services.Withdrawals).
		WithPollInterval(cfg.PayoutPollInterval).
		WithBatchSize(cfg.PayoutBatchSize)
	reconciliationWorker := worker.NewReconciliationWorker(service.NewReconciliationService(store)).
		WithInterval(cfg.ReconciliationInterval)

	stopSettlement := settlementWorker.Run(ctx)
	stopPayout := payoutWorker.Run(ctx)
	stopReconciliation := reconciliationWorker.Run(ctx)

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, services)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping workers")
	stopSettlement()
	stopPayout()
	stopReconciliation()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
