package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// AffiliateHandler serves affiliate status and earnings claims.
type AffiliateHandler struct {
	affiliates *service.AffiliateService
}

func NewAffiliateHandler(affiliates *service.AffiliateService) *AffiliateHandler {
	return &AffiliateHandler{affiliates: affiliates}
}

// GetStatus handles GET /v1/affiliate.
func (h *AffiliateHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	status, err := h.affiliates.Status(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			RespondError(w, r, http.StatusNotFound, "affiliate/user-not-found", "User not found")
			return
		}
		zap.L().Error("affiliate status failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "affiliate/status-failed", "Failed to load affiliate status")
		return
	}

	RespondJSON(w, http.StatusOK, status)
}

// ClaimEarnings handles POST /v1/affiliate/claim.
func (h *AffiliateHandler) ClaimEarnings(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	claimed, err := h.affiliates.ClaimEarnings(r.Context(), actorID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAffiliateNotQualified):
			RespondError(w, r, http.StatusForbidden, "affiliate/not-qualified", "Not enough qualifying depositors to claim")
		case errors.Is(err, models.ErrUserNotFound):
			RespondError(w, r, http.StatusNotFound, "affiliate/user-not-found", "User not found")
		default:
			zap.L().Error("claim earnings failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "affiliate/claim-failed", "Failed to claim earnings")
		}
		return
	}

	RespondJSON(w, http.StatusOK, map[string]int64{"claimed_micros": claimed})
}
