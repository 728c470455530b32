package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/models"
)

// stubGateway lets tests force payout success or failure.
type stubGateway struct {
	payoutErr error
	payoutRef string
	calls     int
}

func (g *stubGateway) AllocateDepositAddress(_ context.Context, _ string) (string, error) {
	return "TTestDepositAddress000000000000000", nil
}

func (g *stubGateway) ExecutePayout(_ context.Context, _ string, _ int64) (string, error) {
	g.calls++
	if g.payoutErr != nil {
		return "", g.payoutErr
	}
	return g.payoutRef, nil
}

func TestRequestWithdrawalDebitsGrossAndComputesFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 150_000_000)

	withdrawals := NewWithdrawalService(env.store, env.ledger, &stubGateway{}, env.cfg)
	w, err := withdrawals.RequestWithdrawal(ctx, user.ID, 100_000_000, "TDest00000000000000000000000000000")
	require.NoError(t, err)

	assert.Equal(t, domain.WithdrawalStatusPending, w.Status)
	assert.Equal(t, int64(18_000_000), w.FeeMicros)
	assert.Equal(t, int64(82_000_000), w.NetMicros)

	wallet := env.wallet(t, user.ID)
	assert.Equal(t, int64(50_000_000), wallet.AvailableMicros)

	entry := env.lastJournalEntry(t, user.ID)
	assert.Equal(t, domain.EventWithdrawal, entry.Event)
	assert.Equal(t, int64(-100_000_000), entry.AvailableDelta)
}

func TestRequestWithdrawalBelowMinimum(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "")
	env.fund(t, user.ID, 10_000_000)

	withdrawals := NewWithdrawalService(env.store, env.ledger, &stubGateway{}, env.cfg)

	_, err := withdrawals.RequestWithdrawal(context.Background(), user.ID, 900_000, "TDest00000000000000000000000000000")
	require.ErrorIs(t, err, models.ErrWithdrawalTooSmall)

	_, err = withdrawals.RequestWithdrawal(context.Background(), user.ID, -1, "TDest00000000000000000000000000000")
	require.ErrorIs(t, err, models.ErrInvalidAmount)

	assert.Equal(t, int64(10_000_000), env.wallet(t, user.ID).AvailableMicros)
}

func TestRequestWithdrawalInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "")
	env.fund(t, user.ID, 1_000_000)

	withdrawals := NewWithdrawalService(env.store, env.ledger, &stubGateway{}, env.cfg)
	_, err := withdrawals.RequestWithdrawal(context.Background(), user.ID, 2_000_000, "TDest00000000000000000000000000000")
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	entry := env.lastJournalEntry(t, user.ID)
	assert.Equal(t, domain.EntryStateRejected, entry.State)
	assert.Equal(t, int64(1_000_000), env.wallet(t, user.ID).AvailableMicros)
}

func TestProcessPendingCompletesPayout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 10_000_000)

	gw := &stubGateway{payoutRef: "0xdeadbeef"}
	withdrawals := NewWithdrawalService(env.store, env.ledger, gw, env.cfg)
	w, err := withdrawals.RequestWithdrawal(ctx, user.ID, 2_000_000, "TDest00000000000000000000000000000")
	require.NoError(t, err)

	processed, err := withdrawals.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, gw.calls)

	done, err := withdrawals.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, done.Status)
	require.NotNil(t, done.GatewayRef)
	assert.Equal(t, "0xdeadbeef", *done.GatewayRef)

	// Nothing left to claim on the next run.
	processed, err = withdrawals.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Equal(t, 1, gw.calls)
}

func TestProcessPendingFailureRefundsGross(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 10_000_000)

	gw := &stubGateway{payoutErr: errors.New("gateway unavailable")}
	withdrawals := NewWithdrawalService(env.store, env.ledger, gw, env.cfg)
	w, err := withdrawals.RequestWithdrawal(ctx, user.ID, 2_000_000, "TDest00000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(8_000_000), env.wallet(t, user.ID).AvailableMicros)

	processed, err := withdrawals.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	failed, err := withdrawals.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusFailed, failed.Status)

	// The full gross amount comes back, fee included.
	wallet := env.wallet(t, user.ID)
	assert.Equal(t, int64(10_000_000), wallet.AvailableMicros)

	entry := env.lastJournalEntry(t, user.ID)
	assert.Equal(t, domain.EventWithdrawalRefund, entry.Event)
	assert.Equal(t, int64(2_000_000), entry.AvailableDelta)
}

func TestProcessPendingCanceledContextKeepsClaimPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 10_000_000)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	gw := &stubGateway{payoutErr: context.Canceled}
	withdrawals := NewWithdrawalService(env.store, env.ledger, gw, env.cfg)
	w, err := withdrawals.RequestWithdrawal(ctx, user.ID, 2_000_000, "TDest00000000000000000000000000000")
	require.NoError(t, err)

	_, err = withdrawals.ProcessPending(canceled, 10)
	require.Error(t, err)

	still, err := withdrawals.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, still.Status)
	assert.Equal(t, int64(8_000_000), env.wallet(t, user.ID).AvailableMicros)
}

func TestGetWithdrawalNotFound(t *testing.T) {
	env := newTestEnv(t)
	withdrawals := NewWithdrawalService(env.store, env.ledger, &stubGateway{}, env.cfg)
	_, err := withdrawals.Get(context.Background(), env.createUser(t, "").ID)
	require.ErrorIs(t, err, models.ErrWithdrawalNotFound)
}
