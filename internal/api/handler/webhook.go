package handler

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// WebhookHandler handles gateway notifications.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// HandleDepositWebhook handles POST /v1/webhooks/deposit. The signature is
// verified over the raw body before anything is parsed.
func (h *WebhookHandler) HandleDepositWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		zap.L().Error("read webhook body failed", zap.Error(err))
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")

	resp, err := h.webhookSvc.HandleDepositWebhook(r.Context(), body, signature)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			RespondError(w, r, http.StatusUnauthorized, "webhooks/invalid-signature", "Invalid signature")
			return
		}
		if errors.Is(err, models.ErrDepositNotFound) {
			RespondError(w, r, http.StatusNotFound, "webhooks/deposit-not-found", "Deposit not found")
			return
		}
		zap.L().Error("process deposit webhook failed", zap.Error(err))
		RespondError(w, r, http.StatusBadRequest, "webhooks/processing-failed", err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, resp)
}
