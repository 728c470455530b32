package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

// SpinResult is the outcome of one fortune wheel spin.
type SpinResult struct {
	RewardMicros int64 `json:"reward_micros"`
	Credited     bool  `json:"credited"`
	ChancesLeft  int   `json:"chances_left"`
}

type RewardService struct {
	store  *repository.Store
	ledger *ledger.Ledger
	wheel  *domain.Wheel
	cfg    *config.Config

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRewardService(store *repository.Store, l *ledger.Ledger, wheel *domain.Wheel, cfg *config.Config, seed int64) *RewardService {
	return &RewardService{
		store:  store,
		ledger: l,
		wheel:  wheel,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *RewardService) draw() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wheel.Pick(s.rng)
}

// Spin consumes one spin chance and draws a reward. The chance decrement,
// the earning row and the wallet credit (when the reward meets the direct
// credit threshold) are one transaction: a crash cannot burn a chance
// without recording its reward.
func (s *RewardService) Spin(ctx context.Context, userID uuid.UUID) (*SpinResult, error) {
	rewardMicros := s.draw()
	result := &SpinResult{RewardMicros: rewardMicros}

	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		rows, err := q.DecrementSpinChances(ctx, userID)
		if err != nil {
			return fmt.Errorf("consume spin chance: %w", err)
		}
		if rows == 0 {
			return models.ErrNoSpinsLeft
		}
		credited, err := s.creditInTx(ctx, q, userID, userID, rewardMicros, domain.RewardSourceSpin)
		if err != nil {
			return err
		}
		result.Credited = credited

		chances, err := q.GetSpinChances(ctx, userID)
		if err != nil {
			return fmt.Errorf("load spin chances: %w", err)
		}
		result.ChancesLeft = chances.ChancesLeft
		return nil
	})
	if err != nil {
		return nil, err
	}

	mode := "accrued"
	if result.Credited {
		mode = "credited"
	}
	observability.IncrementSpinReward(mode)
	zap.L().Info("spin reward",
		zap.String("user_id", userID.String()),
		zap.Int64("reward_micros", rewardMicros),
		zap.Bool("credited", result.Credited))
	return result, nil
}

// Credit records a reward for a user. Rewards at or above the direct credit
// threshold go straight into the available balance; smaller ones accrue as
// uncredited earnings until claimed through the affiliate gate.
func (s *RewardService) Credit(ctx context.Context, userID, sourceUserID uuid.UUID, amountMicros int64, source string) (bool, error) {
	if amountMicros <= 0 {
		return false, models.ErrInvalidAmount
	}
	var credited bool
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		var err error
		credited, err = s.creditInTx(ctx, q, userID, sourceUserID, amountMicros, source)
		return err
	})
	return credited, err
}

func (s *RewardService) creditInTx(ctx context.Context, q *repository.Queries, userID, sourceUserID uuid.UUID, amountMicros int64, source string) (bool, error) {
	if amountMicros <= 0 {
		return false, models.ErrInvalidAmount
	}
	direct := amountMicros >= s.cfg.RewardThresholdMicros

	earning := &models.Earning{
		ID:           uuid.New(),
		UserID:       userID,
		SourceUserID: sourceUserID,
		AmountMicros: amountMicros,
		Source:       source,
		Credited:     direct,
	}
	if err := q.InsertEarning(ctx, earning); err != nil {
		return false, fmt.Errorf("insert earning: %w", err)
	}
	if !direct {
		return false, nil
	}
	_, err := s.ledger.ApplyInTx(ctx, q, ledger.Delta{
		UserID:         userID,
		Event:          domain.EventReward,
		AvailableDelta: amountMicros,
		ReferenceID:    &earning.ID,
	})
	if err != nil {
		return false, fmt.Errorf("credit reward: %w", err)
	}
	return true, nil
}

// Chances returns the user's remaining spin allowance.
func (s *RewardService) Chances(ctx context.Context, userID uuid.UUID) (int, error) {
	chances, err := s.store.Queries().GetSpinChances(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load spin chances: %w", err)
	}
	return chances.ChancesLeft, nil
}
