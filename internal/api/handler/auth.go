package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Username     string `json:"username" validate:"required,min=3,max=32"`
	ReferralCode string `json:"referral_code" validate:"omitempty,alphanum,max=16"`
}

// Signup handles POST /v1/users.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.accounts.Signup(r.Context(), req.Email, req.Username, req.ReferralCode)
	if err != nil {
		if errors.Is(err, models.ErrUserExists) {
			RespondError(w, r, http.StatusConflict, "users/already-exists", "A user with this email already exists")
			return
		}
		if status, pt, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pt, msg)
			return
		}
		zap.L().Error("signup failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "users/create-failed", "Failed to create user")
		return
	}

	RespondJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := h.accounts.Login(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			RespondError(w, r, http.StatusUnauthorized, "auth/unknown-user", "Unknown email")
			return
		}
		zap.L().Error("login failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Failed to log in")
		return
	}

	RespondJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}
