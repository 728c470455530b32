package models

import "errors"

// Sentinel errors surfaced by the ledger core. Validation errors are detected
// before any mutation and carry no partial effect.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrAccountNotFound        = errors.New("account not found")
	ErrStakeTooSmall          = errors.New("stake below minimum")
	ErrInvalidDuration        = errors.New("unsupported trade duration")
	ErrWithdrawalTooSmall     = errors.New("withdrawal below minimum")
	ErrInvalidRecipient       = errors.New("invalid recipient")
	ErrRecipientNotFound      = errors.New("recipient not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNoSpinsLeft            = errors.New("no spins left")
	ErrExternalPayoutFailed   = errors.New("external payout failed")
	ErrAffiliateNotQualified  = errors.New("affiliate withdrawal not yet unlocked")
	ErrTradeNotFound          = errors.New("trade not found")
	ErrDepositNotFound        = errors.New("deposit not found")
	ErrWithdrawalNotFound     = errors.New("withdrawal not found")
	ErrUserExists             = errors.New("user already exists")
	ErrUserNotFound           = errors.New("user not found")
)
