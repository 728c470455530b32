package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// SpinHandler handles fortune wheel spins.
type SpinHandler struct {
	rewards *service.RewardService
}

func NewSpinHandler(rewards *service.RewardService) *SpinHandler {
	return &SpinHandler{rewards: rewards}
}

// Spin handles POST /v1/spin.
func (h *SpinHandler) Spin(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	result, err := h.rewards.Spin(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, models.ErrNoSpinsLeft) {
			RespondError(w, r, http.StatusConflict, "spin/no-chances-left", "No spin chances left")
			return
		}
		zap.L().Error("spin failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "spin/failed", "Failed to spin")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// GetChances handles GET /v1/spin.
func (h *SpinHandler) GetChances(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	chances, err := h.rewards.Chances(r.Context(), actorID)
	if err != nil {
		zap.L().Error("get spin chances failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "spin/load-failed", "Failed to load spin chances")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]int{"chances_left": chances})
}
