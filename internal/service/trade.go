package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/policy"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

type TradeService struct {
	store   *repository.Store
	ledger  *ledger.Ledger
	outcome policy.Outcome
	price   policy.Price
	cfg     *config.Config
}

func NewTradeService(store *repository.Store, l *ledger.Ledger, outcome policy.Outcome, price policy.Price, cfg *config.Config) *TradeService {
	return &TradeService{
		store:   store,
		ledger:  l,
		outcome: outcome,
		price:   price,
		cfg:     cfg,
	}
}

// OpenTrade validates the stake and duration, locks the stake and persists
// the trade with its resolution deadline in one transaction. An insufficient
// balance leaves a rejected journal entry and no trade.
func (s *TradeService) OpenTrade(ctx context.Context, ownerID uuid.UUID, symbol, direction string, stakeMicros int64, duration time.Duration) (*models.Trade, error) {
	if direction != domain.TradeDirectionUp && direction != domain.TradeDirectionDown {
		return nil, fmt.Errorf("%w: direction %q", models.ErrInvalidAmount, direction)
	}
	if stakeMicros < s.cfg.MinStakeMicros {
		return nil, models.ErrStakeTooSmall
	}
	multiplier, ok := domain.MultiplierFor(duration)
	if !ok {
		return nil, models.ErrInvalidDuration
	}

	tradeID := uuid.New()
	trade := &models.Trade{
		ID:                    tradeID,
		OwnerID:               ownerID,
		Symbol:                symbol,
		Direction:             direction,
		StakeMicros:           stakeMicros,
		Multiplier:            multiplier.String(),
		PotentialPayoutMicros: domain.MulMicros(stakeMicros, multiplier),
		DurationSeconds:       int64(duration / time.Second),
		Status:                domain.TradeStatusActive,
		EntryReference:        s.price.Entry(symbol),
		ResolveAt:             time.Now().Add(duration),
	}

	stakeDelta := ledger.Delta{
		UserID:         ownerID,
		Event:          domain.EventStake,
		AvailableDelta: -stakeMicros,
		LockedDelta:    stakeMicros,
		ReferenceID:    &tradeID,
	}

	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := s.ledger.ApplyInTx(ctx, q, stakeDelta); err != nil {
			return err
		}
		if err := q.InsertTrade(ctx, trade); err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
		return nil
	})
	if errors.Is(err, models.ErrInsufficientFunds) {
		s.ledger.RecordRejected(ctx, stakeDelta)
	}
	if err != nil {
		return nil, err
	}

	observability.IncrementTradeOpened()
	zap.L().Info("trade opened",
		zap.String("trade_id", trade.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int64("stake_micros", stakeMicros),
		zap.String("multiplier", trade.Multiplier))
	return trade, nil
}

// ResolveDue settles all due active trades in batches. Each batch claims its
// rows with SKIP LOCKED so concurrent workers never settle the same trade
// twice. Returns the number of trades settled.
func (s *TradeService) ResolveDue(ctx context.Context, batchSize int32) (int, error) {
	settled := 0
	for {
		n, err := s.resolveBatch(ctx, batchSize)
		settled += n
		if err != nil {
			return settled, err
		}
		if n == 0 || int32(n) < batchSize {
			return settled, nil
		}
	}
}

func (s *TradeService) resolveBatch(ctx context.Context, batchSize int32) (int, error) {
	settled := 0
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		trades, err := q.ClaimDueTrades(ctx, time.Now(), batchSize)
		if err != nil {
			return fmt.Errorf("claim due trades: %w", err)
		}
		for i := range trades {
			if err := s.settleInTx(ctx, q, &trades[i]); err != nil {
				return err
			}
			settled++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return settled, nil
}

// Resolve settles one trade if it is still active and due. Used by tests and
// by the admin resolve endpoint; the poller goes through ResolveDue.
func (s *TradeService) Resolve(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	var out *models.Trade
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		trade, err := q.GetTradeForUpdate(ctx, tradeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrTradeNotFound
			}
			return fmt.Errorf("lock trade: %w", err)
		}
		if trade.Status == domain.TradeStatusActive {
			if err := s.settleInTx(ctx, q, trade); err != nil {
				return err
			}
		}
		out = trade
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// settleInTx settles one claimed trade: outcome decision, terminal status
// update guarded on the active state, the settlement delta and the referral
// profit share. The trade struct is updated in place.
func (s *TradeService) settleInTx(ctx context.Context, q *repository.Queries, trade *models.Trade) error {
	won := s.outcome.Decide(trade)
	status := domain.TradeStatusLost
	if won {
		status = domain.TradeStatusWon
	}
	exitRef := s.price.Exit(trade.Symbol)

	rows, err := q.SettleTrade(ctx, trade.ID, status, exitRef)
	if err != nil {
		return fmt.Errorf("settle trade %s: %w", trade.ID, err)
	}
	if rows == 0 {
		// Already terminal, nothing to move.
		return nil
	}

	delta := ledger.Delta{
		UserID:      trade.OwnerID,
		Event:       domain.EventSettlement,
		LockedDelta: -trade.StakeMicros,
		ReferenceID: &trade.ID,
	}
	if won {
		delta.AvailableDelta = trade.PotentialPayoutMicros
	}
	if _, err := s.ledger.ApplyInTx(ctx, q, delta); err != nil {
		return fmt.Errorf("settlement delta for trade %s: %w", trade.ID, err)
	}

	trade.Status = status
	trade.ExitReference = &exitRef
	now := time.Now()
	trade.ResolvedAt = &now

	if won {
		if err := s.accrueProfitShare(ctx, q, trade); err != nil {
			return err
		}
	}

	observability.IncrementTradeSettled(status)
	zap.L().Info("trade settled",
		zap.String("trade_id", trade.ID.String()),
		zap.String("status", status),
		zap.Int64("stake_micros", trade.StakeMicros),
		zap.Int64("payout_micros", trade.PotentialPayoutMicros))
	return nil
}

// accrueProfitShare records the referrer's cut of a winning trade's profit as
// an uncredited earning. The money stays out of the referrer's wallet until
// they claim it through the affiliate qualification gate.
func (s *TradeService) accrueProfitShare(ctx context.Context, q *repository.Queries, trade *models.Trade) error {
	owner, err := q.GetUser(ctx, trade.OwnerID)
	if err != nil {
		return fmt.Errorf("load trade owner: %w", err)
	}
	if owner.ReferredBy == nil {
		return nil
	}
	referrer, err := q.GetUserByAffiliateCode(ctx, *owner.ReferredBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			zap.L().Warn("referrer code dangling", zap.String("code", *owner.ReferredBy))
			return nil
		}
		return fmt.Errorf("load referrer: %w", err)
	}

	profit := trade.PotentialPayoutMicros - trade.StakeMicros
	share := domain.MulMicros(profit, s.cfg.ProfitShareRate)
	if share <= 0 {
		return nil
	}
	earning := &models.Earning{
		ID:           uuid.New(),
		UserID:       referrer.ID,
		SourceUserID: trade.OwnerID,
		AmountMicros: share,
		Source:       domain.RewardSourceProfitShare,
		Credited:     false,
	}
	if err := q.InsertEarning(ctx, earning); err != nil {
		return fmt.Errorf("accrue profit share: %w", err)
	}
	return nil
}

// GetTrades returns the user's trades newest first together with aggregate
// stats.
func (s *TradeService) GetTrades(ctx context.Context, ownerID uuid.UUID) ([]models.Trade, *models.TradeStats, error) {
	trades, err := s.store.Queries().ListTradesByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list trades: %w", err)
	}

	stats := &models.TradeStats{Total: len(trades)}
	for _, t := range trades {
		switch t.Status {
		case domain.TradeStatusWon:
			stats.Won++
		case domain.TradeStatusLost:
			stats.Lost++
		case domain.TradeStatusActive:
			stats.Active++
		}
		stats.TotalProfitMicros += t.ProfitMicros()
	}
	if resolved := stats.Won + stats.Lost; resolved > 0 {
		stats.WinRate = float64(stats.Won) / float64(resolved)
	}
	return trades, stats, nil
}
