package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"time"

	"github.com/ultrasignals/trading-ledger/internal/models"
)

const tronAddressAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// MockGateway simulates the external crypto rail. It introduces a short
// random delay and fails a configurable fraction of payouts.
type MockGateway struct {
	// FailureRate is the probability of a payout failing (0.0 to 1.0).
	FailureRate float64
	// MaxDelay bounds the simulated network latency. Zero disables the delay.
	MaxDelay time.Duration
}

// NewMockGateway creates a MockGateway with a 10% payout failure rate.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		FailureRate: 0.1,
		MaxDelay:    3 * time.Second,
	}
}

func (g *MockGateway) delay(ctx context.Context) error {
	if g.MaxDelay <= 0 {
		return nil
	}
	d := time.Duration(mathrand.Int63n(int64(g.MaxDelay)))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway call canceled: %w", ctx.Err())
	}
}

// AllocateDepositAddress returns a TRON-style base58 address.
func (g *MockGateway) AllocateDepositAddress(ctx context.Context, _ string) (string, error) {
	if err := g.delay(ctx); err != nil {
		return "", err
	}
	buf := make([]byte, 33)
	buf[0] = 'T'
	for i := 1; i < len(buf); i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tronAddressAlphabet))))
		if err != nil {
			return "", fmt.Errorf("allocate address: %w", err)
		}
		buf[i] = tronAddressAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ExecutePayout simulates a payout. Returns a fake on-chain transaction hash
// on success.
func (g *MockGateway) ExecutePayout(ctx context.Context, destination string, amountMicros int64) (string, error) {
	if err := g.delay(ctx); err != nil {
		return "", err
	}
	if mathrand.Float64() < g.FailureRate {
		return "", fmt.Errorf("%w: gateway temporarily unavailable", models.ErrExternalPayoutFailed)
	}
	hash := make([]byte, 32)
	if _, err := rand.Read(hash); err != nil {
		return "", fmt.Errorf("payout reference: %w", err)
	}
	return "0x" + hex.EncodeToString(hash), nil
}
