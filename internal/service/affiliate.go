package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

type AffiliateService struct {
	store  *repository.Store
	ledger *ledger.Ledger
	cfg    *config.Config
}

func NewAffiliateService(store *repository.Store, l *ledger.Ledger, cfg *config.Config) *AffiliateService {
	return &AffiliateService{store: store, ledger: l, cfg: cfg}
}

// Status recomputes the affiliate's qualification from current data. Nothing
// here is cached: a qualifying depositor count crossing the bar is visible on
// the next call.
func (s *AffiliateService) Status(ctx context.Context, userID uuid.UUID) (*models.AffiliateStatus, error) {
	q := s.store.Queries()
	user, err := q.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	total, err := q.SumEarnings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sum earnings: %w", err)
	}
	accrued, err := q.SumAccruedEarnings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sum accrued earnings: %w", err)
	}
	referred, err := q.CountReferredUsers(ctx, user.AffiliateCode)
	if err != nil {
		return nil, fmt.Errorf("count referred users: %w", err)
	}
	qualifying, err := q.CountQualifyingDepositors(ctx, user.AffiliateCode, s.cfg.QualifyingDepositMicros)
	if err != nil {
		return nil, fmt.Errorf("count qualifying depositors: %w", err)
	}

	return &models.AffiliateStatus{
		Code:                     user.AffiliateCode,
		TotalEarningsMicros:      total,
		AccruedEarningsMicros:    accrued,
		ReferredCount:            referred,
		QualifyingDepositorCount: qualifying,
		RequiredDepositorCount:   s.cfg.RequiredDepositors,
		CanWithdraw:              qualifying >= s.cfg.RequiredDepositors,
	}, nil
}

// ClaimEarnings moves all accrued earnings into the available balance.
// Qualification is rechecked inside the claim transaction, a stale status
// response cannot unlock the claim. Returns the amount credited.
func (s *AffiliateService) ClaimEarnings(ctx context.Context, userID uuid.UUID) (int64, error) {
	var claimed int64
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		user, err := q.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		qualifying, err := q.CountQualifyingDepositors(ctx, user.AffiliateCode, s.cfg.QualifyingDepositMicros)
		if err != nil {
			return fmt.Errorf("count qualifying depositors: %w", err)
		}
		if qualifying < s.cfg.RequiredDepositors {
			return models.ErrAffiliateNotQualified
		}

		claimed, err = q.MarkEarningsCredited(ctx, userID)
		if err != nil {
			return fmt.Errorf("mark earnings credited: %w", err)
		}
		if claimed == 0 {
			return nil
		}
		_, err = s.ledger.ApplyInTx(ctx, q, ledger.Delta{
			UserID:         userID,
			Event:          domain.EventEarningsClaim,
			AvailableDelta: claimed,
		})
		if err != nil {
			return fmt.Errorf("credit claimed earnings: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if claimed > 0 {
		zap.L().Info("earnings claimed",
			zap.String("user_id", userID.String()),
			zap.Int64("amount_micros", claimed))
	}
	return claimed, nil
}
