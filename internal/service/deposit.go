package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/gateway"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

type DepositService struct {
	store   *repository.Store
	ledger  *ledger.Ledger
	gateway gateway.Gateway
}

func NewDepositService(store *repository.Store, l *ledger.Ledger, gw gateway.Gateway) *DepositService {
	return &DepositService{store: store, ledger: l, gateway: gw}
}

// RequestDeposit opens a pending deposit. No balance moves until the gateway
// confirms; crypto deposits get an address to pay into.
func (s *DepositService) RequestDeposit(ctx context.Context, ownerID uuid.UUID, amountMicros int64, method, contact string) (*models.Deposit, error) {
	if amountMicros <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if method != domain.DepositMethodCrypto && method != domain.DepositMethodCard {
		return nil, fmt.Errorf("%w: method %q", models.ErrInvalidAmount, method)
	}

	deposit := &models.Deposit{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		AmountMicros: amountMicros,
		Method:       method,
		Status:       domain.DepositStatusPending,
		Contact:      contact,
	}
	if method == domain.DepositMethodCrypto {
		address, err := s.gateway.AllocateDepositAddress(ctx, ownerID.String())
		if err != nil {
			return nil, fmt.Errorf("allocate deposit address: %w", err)
		}
		deposit.DepositAddress = &address
	}

	if err := s.store.Queries().InsertDeposit(ctx, deposit); err != nil {
		return nil, fmt.Errorf("insert deposit: %w", err)
	}

	zap.L().Info("deposit requested",
		zap.String("deposit_id", deposit.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("method", method),
		zap.Int64("amount_micros", amountMicros))
	return deposit, nil
}

// Confirm credits a pending deposit. The pending-to-confirmed transition is
// guarded in SQL, so a replayed confirmation credits nothing. Returns whether
// this call performed the transition.
func (s *DepositService) Confirm(ctx context.Context, depositID uuid.UUID) (bool, error) {
	var applied bool
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		deposit, err := q.GetDepositForUpdate(ctx, depositID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrDepositNotFound
			}
			return fmt.Errorf("lock deposit: %w", err)
		}

		rows, err := q.UpdateDepositStatus(ctx, depositID, domain.DepositStatusConfirmed)
		if err != nil {
			return fmt.Errorf("confirm deposit: %w", err)
		}
		if rows == 0 {
			// Already confirmed or failed.
			return nil
		}

		_, err = s.ledger.ApplyInTx(ctx, q, ledger.Delta{
			UserID:         deposit.OwnerID,
			Event:          domain.EventDeposit,
			AvailableDelta: deposit.AmountMicros,
			ReferenceID:    &deposit.ID,
		})
		if err != nil {
			return fmt.Errorf("credit deposit: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		zap.L().Info("deposit confirmed", zap.String("deposit_id", depositID.String()))
	}
	return applied, nil
}

// Fail marks a pending deposit failed. Terminal deposits are left untouched.
func (s *DepositService) Fail(ctx context.Context, depositID uuid.UUID) error {
	rows, err := s.store.Queries().UpdateDepositStatus(ctx, depositID, domain.DepositStatusFailed)
	if err != nil {
		return fmt.Errorf("fail deposit: %w", err)
	}
	if rows > 0 {
		zap.L().Info("deposit failed", zap.String("deposit_id", depositID.String()))
	}
	return nil
}

func (s *DepositService) History(ctx context.Context, ownerID uuid.UUID) ([]models.Deposit, error) {
	return s.store.Queries().ListDepositsByOwner(ctx, ownerID)
}
