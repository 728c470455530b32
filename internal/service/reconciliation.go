package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

// ReconciliationService verifies ledger integrity invariants.
type ReconciliationService struct {
	store *repository.Store
}

func NewReconciliationService(store *repository.Store) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run checks every wallet against its applied journal net and the
// non-negativity invariants. Drift is logged and counted, never silently
// repaired.
func (s *ReconciliationService) Run(ctx context.Context) error {
	drift, err := s.store.Queries().GetLedgerDrift(ctx)
	if err != nil {
		return fmt.Errorf("run ledger drift query: %w", err)
	}

	if len(drift) == 0 {
		zap.L().Info("ledger balanced")
		return nil
	}

	for _, row := range drift {
		observability.IncrementLedgerImbalance()
		zap.L().Error("CRITICAL: wallet diverged from journal",
			zap.String("user_id", row.UserID.String()),
			zap.Int64("available_micros", row.AvailableMicros),
			zap.Int64("locked_micros", row.LockedMicros),
			zap.Int64("journal_available", row.JournalAvailable),
			zap.Int64("journal_locked", row.JournalLocked))
	}
	return nil
}
