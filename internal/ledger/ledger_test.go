package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/repository"
	"github.com/ultrasignals/trading-ledger/internal/testutil/testdb"
)

func newTestLedger(t *testing.T) (*repository.Store, *Ledger) {
	t.Helper()
	pool := testdb.Connect(t)
	store := repository.NewStore(pool)
	return store, New(store)
}

func createUserWithWallet(t *testing.T, store *repository.Store) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	q := store.Queries()

	id := uuid.New()
	user := &models.User{
		ID:            id,
		Email:         id.String() + "@test.local",
		Username:      "u_" + id.String()[:8],
		AffiliateCode: id.String()[:8],
		Role:          "user",
	}
	require.NoError(t, q.CreateUser(ctx, user))
	require.NoError(t, q.CreateWallet(ctx, id))
	return id
}

func TestApplyCreditsWalletAndJournals(t *testing.T) {
	store, l := newTestLedger(t)
	ctx := context.Background()
	userID := createUserWithWallet(t, store)

	entry, err := l.Apply(ctx, Delta{
		UserID:         userID,
		Event:          domain.EventDeposit,
		AvailableDelta: 10_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStateApplied, entry.State)
	assert.Equal(t, int64(10_000_000), entry.AvailableAfter)
	assert.Equal(t, int64(0), entry.LockedAfter)

	wallet, err := store.Queries().GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), wallet.AvailableMicros)
	assert.Equal(t, int64(0), wallet.LockedMicros)
}

func TestApplyMovesBetweenAvailableAndLocked(t *testing.T) {
	store, l := newTestLedger(t)
	ctx := context.Background()
	userID := createUserWithWallet(t, store)

	_, err := l.Apply(ctx, Delta{UserID: userID, Event: domain.EventDeposit, AvailableDelta: 10_000_000})
	require.NoError(t, err)

	entry, err := l.Apply(ctx, Delta{
		UserID:         userID,
		Event:          domain.EventStake,
		AvailableDelta: -300_000,
		LockedDelta:    300_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9_700_000), entry.AvailableAfter)
	assert.Equal(t, int64(300_000), entry.LockedAfter)

	wallet, err := store.Queries().GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), wallet.TotalMicros())
}

func TestApplyRejectsOverdraftAndJournalsRejection(t *testing.T) {
	store, l := newTestLedger(t)
	ctx := context.Background()
	userID := createUserWithWallet(t, store)

	_, err := l.Apply(ctx, Delta{UserID: userID, Event: domain.EventDeposit, AvailableDelta: 1_000_000})
	require.NoError(t, err)

	_, err = l.Apply(ctx, Delta{
		UserID:         userID,
		Event:          domain.EventWithdrawal,
		AvailableDelta: -2_000_000,
	})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	wallet, err := store.Queries().GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), wallet.AvailableMicros)

	entries, err := store.Queries().ListJournal(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	rejected := entries[0]
	assert.Equal(t, domain.EntryStateRejected, rejected.State)
	assert.Equal(t, int64(-2_000_000), rejected.AvailableDelta)
	assert.Equal(t, int64(1_000_000), rejected.AvailableAfter)
}

func TestApplyUnknownAccount(t *testing.T) {
	_, l := newTestLedger(t)

	_, err := l.Apply(context.Background(), Delta{
		UserID:         uuid.New(),
		Event:          domain.EventDeposit,
		AvailableDelta: 1,
	})
	require.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestApplyPairedIsZeroSum(t *testing.T) {
	store, l := newTestLedger(t)
	ctx := context.Background()
	sender := createUserWithWallet(t, store)
	recipient := createUserWithWallet(t, store)

	_, err := l.Apply(ctx, Delta{UserID: sender, Event: domain.EventDeposit, AvailableDelta: 5_000_000})
	require.NoError(t, err)

	err = store.RunInTx(ctx, func(q *repository.Queries) error {
		return l.ApplyPairedInTx(ctx, q,
			Delta{UserID: sender, Event: domain.EventTransferOut, AvailableDelta: -2_000_000},
			Delta{UserID: recipient, Event: domain.EventTransferIn, AvailableDelta: 2_000_000},
		)
	})
	require.NoError(t, err)

	senderWallet, err := store.Queries().GetWallet(ctx, sender)
	require.NoError(t, err)
	recipientWallet, err := store.Queries().GetWallet(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000), senderWallet.AvailableMicros)
	assert.Equal(t, int64(2_000_000), recipientWallet.AvailableMicros)
	assert.Equal(t, int64(5_000_000), senderWallet.TotalMicros()+recipientWallet.TotalMicros())
}

func TestApplyPairedRollsBackBothOnFailure(t *testing.T) {
	store, l := newTestLedger(t)
	ctx := context.Background()
	sender := createUserWithWallet(t, store)
	recipient := createUserWithWallet(t, store)

	err := store.RunInTx(ctx, func(q *repository.Queries) error {
		return l.ApplyPairedInTx(ctx, q,
			Delta{UserID: sender, Event: domain.EventTransferOut, AvailableDelta: -1_000_000},
			Delta{UserID: recipient, Event: domain.EventTransferIn, AvailableDelta: 1_000_000},
		)
	})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	recipientWallet, err := store.Queries().GetWallet(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(0), recipientWallet.AvailableMicros)
}
