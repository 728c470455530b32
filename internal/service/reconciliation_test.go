package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationPassesOnConsistentLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 5_000_000)

	drift, err := env.store.Queries().GetLedgerDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	reconciliation := NewReconciliationService(env.store)
	require.NoError(t, reconciliation.Run(ctx))
}

func TestReconciliationDetectsWalletDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 5_000_000)

	// Corrupt the wallet behind the journal's back.
	_, err := env.pool.Exec(ctx, `UPDATE wallets SET available_micros = available_micros + 1 WHERE user_id = $1`, user.ID)
	require.NoError(t, err)

	drift, err := env.store.Queries().GetLedgerDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, user.ID, drift[0].UserID)
	assert.Equal(t, int64(5_000_001), drift[0].AvailableMicros)
	assert.Equal(t, int64(5_000_000), drift[0].JournalAvailable)

	reconciliation := NewReconciliationService(env.store)
	require.NoError(t, reconciliation.Run(ctx))
}

func TestReconciliationIgnoresRejectedEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 1_000_000)

	// A rejected attempt journals but moves nothing.
	withdrawals := NewWithdrawalService(env.store, env.ledger, &stubGateway{}, env.cfg)
	_, err := withdrawals.RequestWithdrawal(ctx, user.ID, 2_000_000, "TDest00000000000000000000000000000")
	require.Error(t, err)

	drift, err := env.store.Queries().GetLedgerDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)
}
