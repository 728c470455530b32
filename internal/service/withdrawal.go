package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/gateway"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

type WithdrawalService struct {
	store   *repository.Store
	ledger  *ledger.Ledger
	gateway gateway.Gateway
	cfg     *config.Config
}

func NewWithdrawalService(store *repository.Store, l *ledger.Ledger, gw gateway.Gateway, cfg *config.Config) *WithdrawalService {
	return &WithdrawalService{store: store, ledger: l, gateway: gw, cfg: cfg}
}

// RequestWithdrawal debits the gross amount and opens a pending withdrawal in
// one transaction. The fee is taken from the gross amount, the user receives
// net = amount - amount x feeRate externally. The payout itself runs
// asynchronously in the payout worker.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, ownerID uuid.UUID, amountMicros int64, destination string) (*models.Withdrawal, error) {
	if amountMicros <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if amountMicros < s.cfg.MinWithdrawalMicros {
		return nil, models.ErrWithdrawalTooSmall
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, fmt.Errorf("%w: destination is required", models.ErrInvalidAmount)
	}

	fee := domain.MulMicros(amountMicros, s.cfg.WithdrawalFeeRate)
	withdrawal := &models.Withdrawal{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		AmountMicros: amountMicros,
		FeeMicros:    fee,
		NetMicros:    amountMicros - fee,
		Destination:  destination,
		Status:       domain.WithdrawalStatusPending,
	}

	debit := ledger.Delta{
		UserID:         ownerID,
		Event:          domain.EventWithdrawal,
		AvailableDelta: -amountMicros,
		ReferenceID:    &withdrawal.ID,
	}

	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := s.ledger.ApplyInTx(ctx, q, debit); err != nil {
			return err
		}
		if err := q.InsertWithdrawal(ctx, withdrawal); err != nil {
			return fmt.Errorf("insert withdrawal: %w", err)
		}
		return nil
	})
	if errors.Is(err, models.ErrInsufficientFunds) {
		s.ledger.RecordRejected(ctx, debit)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("withdrawal requested",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int64("amount_micros", amountMicros),
		zap.Int64("fee_micros", fee),
		zap.Int64("net_micros", withdrawal.NetMicros))
	return withdrawal, nil
}

// ProcessPending claims a batch of pending withdrawals and executes their
// payouts. Each withdrawal is handled in its own transaction: the claimed row
// stays locked for the duration of its gateway call, so a second worker can
// not pay it out concurrently. A canceled context rolls the claim back and
// the withdrawal is retried on the next run. Returns the number of
// withdrawals that reached a terminal state.
func (s *WithdrawalService) ProcessPending(ctx context.Context, batchSize int32) (int, error) {
	processed := 0
	for i := int32(0); i < batchSize; i++ {
		done, err := s.processOne(ctx)
		if err != nil {
			return processed, err
		}
		if !done {
			return processed, nil
		}
		processed++
	}
	return processed, nil
}

func (s *WithdrawalService) processOne(ctx context.Context) (bool, error) {
	claimed := false
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		batch, err := q.ClaimPendingWithdrawals(ctx, 1)
		if err != nil {
			return fmt.Errorf("claim pending withdrawals: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		claimed = true
		return s.executeInTx(ctx, q, &batch[0])
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (s *WithdrawalService) executeInTx(ctx context.Context, q *repository.Queries, w *models.Withdrawal) error {
	ref, err := s.gateway.ExecutePayout(ctx, w.Destination, w.NetMicros)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-call: roll back the claim, retry next run.
			return fmt.Errorf("payout interrupted: %w", err)
		}
		return s.failInTx(ctx, q, w, err)
	}

	if _, err := q.UpdateWithdrawalStatus(ctx, w.ID, domain.WithdrawalStatusCompleted, &ref); err != nil {
		return fmt.Errorf("complete withdrawal %s: %w", w.ID, err)
	}
	observability.IncrementPayout("completed")
	zap.L().Info("withdrawal completed",
		zap.String("withdrawal_id", w.ID.String()),
		zap.Int64("net_micros", w.NetMicros),
		zap.String("gateway_ref", ref))
	return nil
}

// failInTx marks the withdrawal failed and restores the full gross amount,
// fee included, to the owner's available balance.
func (s *WithdrawalService) failInTx(ctx context.Context, q *repository.Queries, w *models.Withdrawal, cause error) error {
	if _, err := q.UpdateWithdrawalStatus(ctx, w.ID, domain.WithdrawalStatusFailed, nil); err != nil {
		return fmt.Errorf("fail withdrawal %s: %w", w.ID, err)
	}
	_, err := s.ledger.ApplyInTx(ctx, q, ledger.Delta{
		UserID:         w.OwnerID,
		Event:          domain.EventWithdrawalRefund,
		AvailableDelta: w.AmountMicros,
		ReferenceID:    &w.ID,
	})
	if err != nil {
		return fmt.Errorf("refund withdrawal %s: %w", w.ID, err)
	}
	observability.IncrementPayout("failed")
	zap.L().Warn("withdrawal failed, funds refunded",
		zap.String("withdrawal_id", w.ID.String()),
		zap.Int64("refund_micros", w.AmountMicros),
		zap.Error(cause))
	return nil
}

func (s *WithdrawalService) Get(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.store.Queries().GetWithdrawal(ctx, id)
	if err != nil {
		return nil, models.ErrWithdrawalNotFound
	}
	return w, nil
}

func (s *WithdrawalService) History(ctx context.Context, ownerID uuid.UUID) ([]models.Withdrawal, error) {
	return s.store.Queries().ListWithdrawalsByOwner(ctx, ownerID)
}
