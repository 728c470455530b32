package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrasignals/trading-ledger/internal/config"
	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/gateway"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/policy"
	"github.com/ultrasignals/trading-ledger/internal/repository"
	"github.com/ultrasignals/trading-ledger/internal/service"
	"github.com/ultrasignals/trading-ledger/internal/testutil/dblock"
	"github.com/ultrasignals/trading-ledger/internal/testutil/testdb"
)

func TestMain(m *testing.M) {
	release := dblock.Acquire()
	code := m.Run()
	release()
	os.Exit(code)
}

func testConfig() *config.Config {
	return &config.Config{
		MinStakeMicros:      300_000,
		MinWithdrawalMicros: 1_000_000,
		WithdrawalFeeRate:   decimal.RequireFromString("0.18"),
		ProfitShareRate:     decimal.RequireFromString("0.5"),
		DefaultSpinChances:  2,
	}
}

func fundUser(t *testing.T, store *repository.Store, l *ledger.Ledger, cfg *config.Config, amountMicros int64) *models.User {
	t.Helper()
	ctx := context.Background()
	accounts := service.NewAccountService(store, cfg)
	user, err := accounts.Signup(ctx, time.Now().Format("150405.000000000")+"@test.local", "worker_user", "")
	require.NoError(t, err)
	_, err = l.Apply(ctx, ledger.Delta{
		UserID:         user.ID,
		Event:          domain.EventDeposit,
		AvailableDelta: amountMicros,
	})
	require.NoError(t, err)
	return user
}

func TestSettlementWorkerSettlesDueTrades(t *testing.T) {
	pool := testdb.Connect(t)
	store := repository.NewStore(pool)
	l := ledger.New(store)
	cfg := testConfig()
	user := fundUser(t, store, l, cfg, 10_000_000)

	trades := service.NewTradeService(store, l, policy.FixedOutcome(false), policy.FixedPrice("1.08500"), cfg)
	ctx := context.Background()
	trade, err := trades.OpenTrade(ctx, user.ID, "EURUSD", domain.TradeDirectionUp, 300_000, 60*time.Second)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE trades SET resolve_at = now() - interval '1 second' WHERE id = $1`, trade.ID)
	require.NoError(t, err)

	w := NewSettlementWorker(trades).WithPollInterval(10 * time.Millisecond).WithBatchSize(5)
	settled, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	list, _, err := trades.GetTrades(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.TradeStatusLost, list[0].Status)
}

func TestPayoutWorkerCompletesWithdrawals(t *testing.T) {
	pool := testdb.Connect(t)
	store := repository.NewStore(pool)
	l := ledger.New(store)
	cfg := testConfig()
	user := fundUser(t, store, l, cfg, 10_000_000)

	gw := gateway.NewMockGateway()
	gw.FailureRate = 0
	gw.MaxDelay = 0
	withdrawals := service.NewWithdrawalService(store, l, gw, cfg)

	ctx := context.Background()
	req, err := withdrawals.RequestWithdrawal(ctx, user.ID, 2_000_000, "TDest00000000000000000000000000000")
	require.NoError(t, err)

	w := NewPayoutWorker(withdrawals).WithBatchSize(5)
	processed, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	done, err := withdrawals.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, done.Status)
}

func TestWorkersStopCleanly(t *testing.T) {
	pool := testdb.Connect(t)
	store := repository.NewStore(pool)
	l := ledger.New(store)
	cfg := testConfig()

	trades := service.NewTradeService(store, l, policy.FixedOutcome(false), policy.FixedPrice("1.08500"), cfg)
	w := NewSettlementWorker(trades).WithPollInterval(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
