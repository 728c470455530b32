package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/api/handler"
	"github.com/ultrasignals/trading-ledger/internal/api/middleware"
	"github.com/ultrasignals/trading-ledger/internal/api/spec"
	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/idempotency"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Accounts    *service.AccountService
	Trades      *service.TradeService
	Transfers   *service.TransferService
	Rewards     *service.RewardService
	Affiliates  *service.AffiliateService
	Deposits    *service.DepositService
	Withdrawals *service.WithdrawalService
	Webhooks    *service.WebhookService
}

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	redis     redis.Cmdable
	idemStore *idempotency.Store
	services  Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, redis redis.Cmdable, idemStore *idempotency.Store, services Services) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		redis:     redis,
		idemStore: idemStore,
		services:  services,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))

	authHandler := handler.NewAuthHandler(api.services.Accounts)
	walletHandler := handler.NewWalletHandler(api.services.Accounts)
	tradeHandler := handler.NewTradeHandler(api.services.Trades)
	transferHandler := handler.NewTransferHandler(api.services.Transfers)
	spinHandler := handler.NewSpinHandler(api.services.Rewards)
	affiliateHandler := handler.NewAffiliateHandler(api.services.Affiliates)
	depositHandler := handler.NewDepositHandler(api.services.Deposits)
	withdrawalHandler := handler.NewWithdrawalHandler(api.services.Withdrawals)
	webhookHandler := handler.NewWebhookHandler(api.services.Webhooks)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	// Operational endpoints.
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/users", authHandler.Signup)
		r.Post("/v1/auth/login", authHandler.Login)
		r.Post("/v1/webhooks/deposit", webhookHandler.HandleDepositWebhook)
	})

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/wallet", walletHandler.GetWallet)
		r.Get("/v1/wallet/statement", walletHandler.GetStatement)

		r.Post("/v1/trades", tradeHandler.OpenTrade)
		r.Get("/v1/trades", tradeHandler.ListTrades)

		r.Get("/v1/deposits", depositHandler.ListDeposits)
		r.Post("/v1/deposits", depositHandler.RequestDeposit)

		r.Get("/v1/withdrawals", withdrawalHandler.ListWithdrawals)
		r.Get("/v1/withdrawals/{id}", withdrawalHandler.GetWithdrawal)

		r.Get("/v1/transfers", transferHandler.ListTransfers)

		r.Get("/v1/spin", spinHandler.GetChances)
		r.Post("/v1/spin", spinHandler.Spin)

		r.Get("/v1/affiliate", affiliateHandler.GetStatus)
		r.Post("/v1/affiliate/claim", affiliateHandler.ClaimEarnings)

		// Money-moving POSTs that must not double-apply on client retries.
		r.Group(func(r chi.Router) {
			r.Use(middleware.IdempotencyMiddleware(api.idemStore, api.logger))
			r.Post("/v1/transfers", transferHandler.MakeTransfer)
			r.Post("/v1/withdrawals", withdrawalHandler.RequestWithdrawal)
		})

		r.With(middleware.RequireRole("admin")).Post("/v1/trades/{id}/resolve", tradeHandler.ResolveTrade)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.RespondError(w, req, http.StatusNotFound, "request/not-found", "Resource not found")
	})

	return r
}
