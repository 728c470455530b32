package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// TradeHandler handles trade opening and listing.
type TradeHandler struct {
	trades *service.TradeService
}

func NewTradeHandler(trades *service.TradeService) *TradeHandler {
	return &TradeHandler{trades: trades}
}

type OpenTradeRequest struct {
	Symbol          string `json:"symbol" validate:"required,min=3,max=16"`
	Direction       string `json:"direction" validate:"required,oneof=up down"`
	StakeMicros     int64  `json:"stake_micros" validate:"required,gt=0"`
	DurationSeconds int64  `json:"duration_seconds" validate:"required,gt=0"`
}

// OpenTrade handles POST /v1/trades.
func (h *TradeHandler) OpenTrade(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req OpenTradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	trade, err := h.trades.OpenTrade(r.Context(), actorID, req.Symbol, req.Direction,
		req.StakeMicros, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrStakeTooSmall):
			RespondError(w, r, http.StatusBadRequest, "trades/stake-too-small", "Stake is below the minimum")
		case errors.Is(err, models.ErrInvalidDuration):
			RespondError(w, r, http.StatusBadRequest, "trades/invalid-duration", "Duration is not a supported tier")
		case errors.Is(err, models.ErrInvalidAmount):
			RespondError(w, r, http.StatusBadRequest, "trades/invalid-request", err.Error())
		case errors.Is(err, models.ErrInsufficientFunds):
			RespondError(w, r, http.StatusUnprocessableEntity, "trades/insufficient-funds", "Insufficient available balance")
		case errors.Is(err, models.ErrAccountNotFound):
			RespondError(w, r, http.StatusNotFound, "trades/account-not-found", "Wallet not found")
		default:
			zap.L().Error("open trade failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "trades/open-failed", "Failed to open trade")
		}
		return
	}

	RespondJSON(w, http.StatusCreated, trade)
}

type TradeListResponse struct {
	Trades []models.Trade     `json:"trades"`
	Stats  *models.TradeStats `json:"stats"`
}

// ListTrades handles GET /v1/trades.
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	trades, stats, err := h.trades.GetTrades(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list trades failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "trades/list-failed", "Failed to list trades")
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	RespondJSON(w, http.StatusOK, TradeListResponse{Trades: trades, Stats: stats})
}

// ResolveTrade handles POST /v1/trades/{id}/resolve (admin only). It settles
// the trade immediately if it is still active.
func (h *TradeHandler) ResolveTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-trade-id", "Invalid trade ID")
		return
	}

	trade, err := h.trades.Resolve(r.Context(), tradeID)
	if err != nil {
		if errors.Is(err, models.ErrTradeNotFound) {
			RespondError(w, r, http.StatusNotFound, "trades/not-found", "Trade not found")
			return
		}
		zap.L().Error("resolve trade failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "trades/resolve-failed", "Failed to resolve trade")
		return
	}

	RespondJSON(w, http.StatusOK, trade)
}
