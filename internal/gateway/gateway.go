package gateway

import "context"

// Gateway represents the external crypto payment rail.
type Gateway interface {
	// AllocateDepositAddress returns a deposit address for the user to pay
	// into. Addresses may be reused across deposits.
	AllocateDepositAddress(ctx context.Context, userID string) (string, error)

	// ExecutePayout sends a payout to an external destination.
	// Returns a gateway transaction reference and an error if the payout
	// failed.
	ExecutePayout(ctx context.Context, destination string, amountMicros int64) (string, error)
}
