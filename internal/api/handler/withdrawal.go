package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// WithdrawalHandler handles withdrawal requests and history.
type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

type RequestWithdrawalRequest struct {
	AmountMicros int64  `json:"amount_micros" validate:"required,gt=0"`
	Destination  string `json:"destination" validate:"required,min=8,max=128"`
}

// RequestWithdrawal handles POST /v1/withdrawals. The payout is executed
// asynchronously; the response is the pending withdrawal with its fee split.
func (h *WithdrawalHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req RequestWithdrawalRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	withdrawal, err := h.withdrawals.RequestWithdrawal(r.Context(), actorID, req.AmountMicros, req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrWithdrawalTooSmall):
			RespondError(w, r, http.StatusBadRequest, "withdrawals/amount-too-small", "Withdrawal is below the minimum")
		case errors.Is(err, models.ErrInvalidAmount):
			RespondError(w, r, http.StatusBadRequest, "withdrawals/invalid-request", err.Error())
		case errors.Is(err, models.ErrInsufficientFunds):
			RespondError(w, r, http.StatusUnprocessableEntity, "withdrawals/insufficient-funds", "Insufficient available balance")
		case errors.Is(err, models.ErrAccountNotFound):
			RespondError(w, r, http.StatusNotFound, "withdrawals/account-not-found", "Wallet not found")
		default:
			zap.L().Error("request withdrawal failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "withdrawals/create-failed", "Failed to create withdrawal")
		}
		return
	}

	RespondJSON(w, http.StatusAccepted, withdrawal)
}

// GetWithdrawal handles GET /v1/withdrawals/{id}.
func (h *WithdrawalHandler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-withdrawal-id", "Invalid withdrawal ID")
		return
	}

	withdrawal, err := h.withdrawals.Get(r.Context(), id)
	if err != nil {
		RespondError(w, r, http.StatusNotFound, "withdrawals/not-found", "Withdrawal not found")
		return
	}
	if withdrawal.OwnerID != actorID && !isAdmin {
		RespondError(w, r, http.StatusNotFound, "withdrawals/not-found", "Withdrawal not found")
		return
	}

	RespondJSON(w, http.StatusOK, withdrawal)
}

// ListWithdrawals handles GET /v1/withdrawals.
func (h *WithdrawalHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	withdrawals, err := h.withdrawals.History(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list withdrawals failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "withdrawals/list-failed", "Failed to list withdrawals")
		return
	}
	if withdrawals == nil {
		withdrawals = []models.Withdrawal{}
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"withdrawals": withdrawals})
}
