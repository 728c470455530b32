package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrasignals/trading-ledger/internal/api/middleware"
	"github.com/ultrasignals/trading-ledger/internal/models"
)

func TestSignupCreatesWalletAndSpinChances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "")
	assert.Len(t, user.AffiliateCode, 8)
	assert.Equal(t, "user", user.Role)
	assert.Nil(t, user.ReferredBy)

	wallet := env.wallet(t, user.ID)
	assert.Equal(t, int64(0), wallet.TotalMicros())

	chances, err := env.store.Queries().GetSpinChances(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, env.cfg.DefaultSpinChances, chances.ChancesLeft)
}

func TestSignupLinksReferrer(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.createUser(t, "")
	referred := env.createUser(t, referrer.AffiliateCode)

	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, referrer.AffiliateCode, *referred.ReferredBy)
}

func TestSignupIgnoresUnknownReferralCode(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "NOSUCH99")
	assert.Nil(t, user.ReferredBy)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := NewAccountService(env.store, env.cfg)

	_, err := accounts.Signup(ctx, "dup@test.local", "dup_one", "")
	require.NoError(t, err)
	_, err = accounts.Signup(ctx, "DUP@test.local", "dup_two", "")
	require.ErrorIs(t, err, models.ErrUserExists)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	middleware.SetJWTSecret("test-secret-test-secret-test-secret!")

	user := env.createUser(t, "")
	accounts := NewAccountService(env.store, env.cfg)

	token, loggedIn, err := accounts.Login(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsed, err := jwt.Parse(token, func(_ *jwt.Token) (any, error) {
		return middleware.JWTSecret(), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["user_id"])
	assert.Equal(t, "user", claims["role"])
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	accounts := NewAccountService(env.store, env.cfg)
	_, _, err := accounts.Login(context.Background(), "ghost@test.local")
	require.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestStatementPaginatesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "")
	env.fund(t, user.ID, 1_000_000)
	env.fund(t, user.ID, 2_000_000)
	env.fund(t, user.ID, 3_000_000)

	accounts := NewAccountService(env.store, env.cfg)
	page, err := accounts.Statement(ctx, user.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3_000_000), page[0].AvailableDelta)
	assert.Equal(t, int64(2_000_000), page[1].AvailableDelta)

	rest, err := accounts.Statement(ctx, user.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(1_000_000), rest[0].AvailableDelta)
}

func TestGetWalletUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	accounts := NewAccountService(env.store, env.cfg)
	_, err := accounts.GetWallet(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrAccountNotFound)
}
