package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// TransferHandler handles peer-to-peer transfers.
type TransferHandler struct {
	transfers *service.TransferService
}

func NewTransferHandler(transfers *service.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type TransferRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
	AmountMicros   int64  `json:"amount_micros" validate:"required,gt=0"`
}

// MakeTransfer handles POST /v1/transfers.
func (h *TransferHandler) MakeTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req TransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transfer, err := h.transfers.Transfer(r.Context(), actorID, req.RecipientEmail, req.AmountMicros)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidAmount):
			RespondError(w, r, http.StatusBadRequest, "transfers/invalid-amount", "Amount must be greater than zero")
		case errors.Is(err, models.ErrInvalidRecipient):
			RespondError(w, r, http.StatusBadRequest, "transfers/invalid-recipient", "Cannot transfer to this recipient")
		case errors.Is(err, models.ErrRecipientNotFound):
			RespondError(w, r, http.StatusNotFound, "transfers/recipient-not-found", "Recipient not found")
		case errors.Is(err, models.ErrInsufficientFunds):
			RespondError(w, r, http.StatusUnprocessableEntity, "transfers/insufficient-funds", "Insufficient available balance")
		case errors.Is(err, models.ErrAccountNotFound):
			RespondError(w, r, http.StatusNotFound, "transfers/account-not-found", "Wallet not found")
		default:
			zap.L().Error("transfer failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "transfers/failed", "Failed to transfer")
		}
		return
	}

	RespondJSON(w, http.StatusCreated, transfer)
}

// ListTransfers handles GET /v1/transfers.
func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	transfers, err := h.transfers.History(r.Context(), actorID, 50)
	if err != nil {
		zap.L().Error("list transfers failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "transfers/list-failed", "Failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []models.Transfer{}
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"transfers": transfers})
}
