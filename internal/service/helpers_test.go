package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/repository"
	"github.com/ultrasignals/trading-ledger/internal/testutil/testdb"
)

type testEnv struct {
	pool   *pgxpool.Pool
	store  *repository.Store
	ledger *ledger.Ledger
	cfg    *config.Config
}

// newTestEnv wires a store against the test database with production-shaped
// tunables, except RequiredDepositors which is lowered so qualification tests
// stay small.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pool := testdb.Connect(t)
	store := repository.NewStore(pool)
	cfg := &config.Config{
		MinStakeMicros:          300_000,
		MinWithdrawalMicros:     1_000_000,
		WithdrawalFeeRate:       decimal.RequireFromString("0.18"),
		RewardThresholdMicros:   2_000_000,
		QualifyingDepositMicros: 2_000_000,
		RequiredDepositors:      2,
		ProfitShareRate:         decimal.RequireFromString("0.5"),
		DefaultSpinChances:      2,
		ReferralSpinBonus:       1,
	}
	return &testEnv{pool: pool, store: store, ledger: ledger.New(store), cfg: cfg}
}

func (e *testEnv) createUser(t *testing.T, referralCode string) *models.User {
	t.Helper()
	accounts := NewAccountService(e.store, e.cfg)
	tag := uuid.New().String()[:8]
	user, err := accounts.Signup(context.Background(), tag+"@test.local", "user_"+tag, referralCode)
	require.NoError(t, err)
	return user
}

func (e *testEnv) fund(t *testing.T, userID uuid.UUID, amountMicros int64) {
	t.Helper()
	_, err := e.ledger.Apply(context.Background(), ledger.Delta{
		UserID:         userID,
		Event:          domain.EventDeposit,
		AvailableDelta: amountMicros,
	})
	require.NoError(t, err)
}

func (e *testEnv) wallet(t *testing.T, userID uuid.UUID) *models.Wallet {
	t.Helper()
	w, err := e.store.Queries().GetWallet(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func (e *testEnv) lastJournalEntry(t *testing.T, userID uuid.UUID) models.JournalEntry {
	t.Helper()
	entries, err := e.store.Queries().ListJournal(context.Background(), userID, 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}
