package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// WalletHandler serves balances and the journal statement.
type WalletHandler struct {
	accounts *service.AccountService
}

func NewWalletHandler(accounts *service.AccountService) *WalletHandler {
	return &WalletHandler{accounts: accounts}
}

type WalletResponse struct {
	Wallet      *models.Wallet `json:"wallet"`
	TotalMicros int64          `json:"total_micros"`
}

// GetWallet handles GET /v1/wallet.
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	wallet, err := h.accounts.GetWallet(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			RespondError(w, r, http.StatusNotFound, "wallet/not-found", "Wallet not found")
			return
		}
		zap.L().Error("get wallet failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "wallet/load-failed", "Failed to load wallet")
		return
	}

	RespondJSON(w, http.StatusOK, WalletResponse{Wallet: wallet, TotalMicros: wallet.TotalMicros()})
}

// GetStatement handles GET /v1/wallet/statement?limit=&offset=.
func (h *WalletHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.accounts.Statement(r.Context(), actorID, limit, offset)
	if err != nil {
		zap.L().Error("get statement failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "wallet/statement-failed", "Failed to load statement")
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
