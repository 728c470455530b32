package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/models"
)

// singleSectorWheel always lands on the same reward.
func singleSectorWheel(t *testing.T, rewardMicros int64) *domain.Wheel {
	t.Helper()
	wheel, err := domain.NewWheel([]int64{rewardMicros}, []float64{1})
	require.NoError(t, err)
	return wheel
}

func TestSpinConsumesChanceAndCreditsAboveThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")

	rewards := NewRewardService(env.store, env.ledger, singleSectorWheel(t, 5_000_000), env.cfg, 1)
	result, err := rewards.Spin(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(5_000_000), result.RewardMicros)
	assert.True(t, result.Credited)
	assert.Equal(t, 1, result.ChancesLeft)

	wallet := env.wallet(t, user.ID)
	assert.Equal(t, int64(5_000_000), wallet.AvailableMicros)

	entry := env.lastJournalEntry(t, user.ID)
	assert.Equal(t, domain.EventReward, entry.Event)
}

func TestSpinBelowThresholdAccruesOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")

	rewards := NewRewardService(env.store, env.ledger, singleSectorWheel(t, 500_000), env.cfg, 1)
	result, err := rewards.Spin(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(500_000), result.RewardMicros)
	assert.False(t, result.Credited)

	wallet := env.wallet(t, user.ID)
	assert.Equal(t, int64(0), wallet.AvailableMicros)

	accrued, err := env.store.Queries().SumAccruedEarnings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), accrued)
}

func TestSpinExhaustsChances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")

	rewards := NewRewardService(env.store, env.ledger, singleSectorWheel(t, 500_000), env.cfg, 1)

	for i := 0; i < env.cfg.DefaultSpinChances; i++ {
		_, err := rewards.Spin(ctx, user.ID)
		require.NoError(t, err)
	}

	_, err := rewards.Spin(ctx, user.ID)
	require.ErrorIs(t, err, models.ErrNoSpinsLeft)

	chances, err := rewards.Chances(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, chances)
}

func TestSignupGrantsReferrerBonusSpin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	referrer := env.createUser(t, "")

	rewards := NewRewardService(env.store, env.ledger, singleSectorWheel(t, 500_000), env.cfg, 1)
	before, err := rewards.Chances(ctx, referrer.ID)
	require.NoError(t, err)

	env.createUser(t, referrer.AffiliateCode)

	after, err := rewards.Chances(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, before+env.cfg.ReferralSpinBonus, after)
}

func TestCreditThresholdBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")

	rewards := NewRewardService(env.store, env.ledger, singleSectorWheel(t, 500_000), env.cfg, 1)

	credited, err := rewards.Credit(ctx, user.ID, user.ID, env.cfg.RewardThresholdMicros, domain.RewardSourceSpin)
	require.NoError(t, err)
	assert.True(t, credited)

	credited, err = rewards.Credit(ctx, user.ID, user.ID, env.cfg.RewardThresholdMicros-1, domain.RewardSourceSpin)
	require.NoError(t, err)
	assert.False(t, credited)

	_, err = rewards.Credit(ctx, user.ID, user.ID, 0, domain.RewardSourceSpin)
	require.ErrorIs(t, err, models.ErrInvalidAmount)

	assert.Equal(t, env.cfg.RewardThresholdMicros, env.wallet(t, user.ID).AvailableMicros)
}
