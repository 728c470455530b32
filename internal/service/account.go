package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/api/middleware"
	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

const affiliateCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type AccountService struct {
	store *repository.Store
	cfg   *config.Config
}

func NewAccountService(store *repository.Store, cfg *config.Config) *AccountService {
	return &AccountService{store: store, cfg: cfg}
}

// Signup creates a user with a zero-balance wallet, a fresh affiliate code
// and the default spin allowance. A known referral code links the user to its
// referrer and grants the referrer a bonus spin; an unknown code is ignored.
func (s *AccountService) Signup(ctx context.Context, email, username, referralCode string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	code, err := generateAffiliateCode()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:            uuid.New(),
		Email:         email,
		Username:      username,
		AffiliateCode: code,
		Role:          "user",
	}

	err = s.store.RunInTx(ctx, func(q *repository.Queries) error {
		var referrer *models.User
		if referralCode != "" {
			referrer, err = q.GetUserByAffiliateCode(ctx, referralCode)
			if err != nil {
				if !errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("resolve referral code: %w", err)
				}
				zap.L().Warn("signup with unknown referral code", zap.String("code", referralCode))
				referrer = nil
			}
		}
		if referrer != nil {
			user.ReferredBy = &referrer.AffiliateCode
		}

		if err := q.CreateUser(ctx, user); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return models.ErrUserExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := q.CreateWallet(ctx, user.ID); err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}
		if err := q.InsertSpinChances(ctx, user.ID, s.cfg.DefaultSpinChances); err != nil {
			return fmt.Errorf("create spin chances: %w", err)
		}
		if referrer != nil && s.cfg.ReferralSpinBonus > 0 {
			if _, err := q.GrantSpinChances(ctx, referrer.ID, s.cfg.ReferralSpinBonus); err != nil {
				return fmt.Errorf("grant referral spins: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login resolves the user by email and issues an HS256 token accepted by the
// auth middleware.
func (s *AccountService) Login(ctx context.Context, email string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Queries().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, models.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"sub":     user.ID.String(),
		"iss":     s.cfg.JWTIssuer,
		"aud":     s.cfg.JWTAudience,
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.JWTSecret())
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *AccountService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.store.Queries().GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	return wallet, nil
}

// Statement returns the newest-first journal page for a user.
func (s *AccountService) Statement(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.JournalEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Queries().ListJournal(ctx, userID, limit, offset)
}

func generateAffiliateCode() (string, error) {
	buf := make([]byte, 8)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(affiliateCodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate affiliate code: %w", err)
		}
		buf[i] = affiliateCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
