package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// DepositHandler handles deposit requests and history.
type DepositHandler struct {
	deposits *service.DepositService
}

func NewDepositHandler(deposits *service.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

type RequestDepositRequest struct {
	AmountMicros int64  `json:"amount_micros" validate:"required,gt=0"`
	Method       string `json:"method" validate:"required,oneof=crypto card"`
	Contact      string `json:"contact" validate:"omitempty,max=128"`
}

// RequestDeposit handles POST /v1/deposits.
func (h *DepositHandler) RequestDeposit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req RequestDepositRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deposit, err := h.deposits.RequestDeposit(r.Context(), actorID, req.AmountMicros, req.Method, req.Contact)
	if err != nil {
		if errors.Is(err, models.ErrInvalidAmount) {
			RespondError(w, r, http.StatusBadRequest, "deposits/invalid-request", err.Error())
			return
		}
		zap.L().Error("request deposit failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "deposits/create-failed", "Failed to create deposit")
		return
	}

	RespondJSON(w, http.StatusCreated, deposit)
}

// ListDeposits handles GET /v1/deposits.
func (h *DepositHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	deposits, err := h.deposits.History(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list deposits failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "deposits/list-failed", "Failed to list deposits")
		return
	}
	if deposits == nil {
		deposits = []models.Deposit{}
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"deposits": deposits})
}
