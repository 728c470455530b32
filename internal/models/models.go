package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	AffiliateCode string    `json:"affiliate_code"`
	ReferredBy    *string   `json:"referred_by,omitempty"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

// Wallet is the ledger account for one user. Total is derived and must always
// equal AvailableMicros + LockedMicros.
type Wallet struct {
	UserID          uuid.UUID `json:"user_id"`
	AvailableMicros int64     `json:"available_micros"`
	LockedMicros    int64     `json:"locked_micros"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (w Wallet) TotalMicros() int64 {
	return w.AvailableMicros + w.LockedMicros
}

type Trade struct {
	ID                    uuid.UUID  `json:"id"`
	OwnerID               uuid.UUID  `json:"owner_id"`
	Symbol                string     `json:"symbol"`
	Direction             string     `json:"direction"`
	StakeMicros           int64      `json:"stake_micros"`
	Multiplier            string     `json:"multiplier"`
	PotentialPayoutMicros int64      `json:"potential_payout_micros"`
	DurationSeconds       int64      `json:"duration_seconds"`
	Status                string     `json:"status"`
	EntryReference        string     `json:"entry_reference"`
	ExitReference         *string    `json:"exit_reference,omitempty"`
	OpenedAt              time.Time  `json:"opened_at"`
	ResolveAt             time.Time  `json:"resolve_at"`
	ResolvedAt            *time.Time `json:"resolved_at,omitempty"`
}

// ProfitMicros reports the realized profit of a terminal trade: payout minus
// stake on a win, minus stake on a loss, zero while active.
func (t Trade) ProfitMicros() int64 {
	switch t.Status {
	case "won":
		return t.PotentialPayoutMicros - t.StakeMicros
	case "lost":
		return -t.StakeMicros
	default:
		return 0
	}
}

type TradeStats struct {
	Total             int     `json:"total"`
	Won               int     `json:"won"`
	Lost              int     `json:"lost"`
	Active            int     `json:"active"`
	WinRate           float64 `json:"win_rate"`
	TotalProfitMicros int64   `json:"total_profit_micros"`
}

type Deposit struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	AmountMicros   int64      `json:"amount_micros"`
	Method         string     `json:"method"`
	Status         string     `json:"status"`
	DepositAddress *string    `json:"deposit_address,omitempty"`
	Contact        string     `json:"contact"`
	CreatedAt      time.Time  `json:"created_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
}

type Withdrawal struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	AmountMicros int64      `json:"amount_micros"`
	FeeMicros    int64      `json:"fee_micros"`
	NetMicros    int64      `json:"net_micros"`
	Destination  string     `json:"destination"`
	Status       string     `json:"status"`
	GatewayRef   *string    `json:"gateway_ref,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type Transfer struct {
	ID           uuid.UUID `json:"id"`
	SenderID     uuid.UUID `json:"sender_id"`
	RecipientID  uuid.UUID `json:"recipient_id"`
	AmountMicros int64     `json:"amount_micros"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Earning is one reward credit. Credited earnings already sit in the wallet;
// uncredited ones accrue until the affiliate qualification gate opens.
type Earning struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	SourceUserID uuid.UUID `json:"source_user_id"`
	AmountMicros int64     `json:"amount_micros"`
	Source       string    `json:"source"`
	Credited     bool      `json:"credited"`
	CreatedAt    time.Time `json:"created_at"`
}

// JournalEntry is an append-only record of one balance-affecting event on one
// wallet, including rejected attempts.
type JournalEntry struct {
	ID             int64      `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Event          string     `json:"event"`
	State          string     `json:"state"`
	AvailableDelta int64      `json:"available_delta"`
	LockedDelta    int64      `json:"locked_delta"`
	AvailableAfter int64      `json:"available_after"`
	LockedAfter    int64      `json:"locked_after"`
	ReferenceID    *uuid.UUID `json:"reference_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type SpinChances struct {
	UserID      uuid.UUID `json:"user_id"`
	ChancesLeft int       `json:"chances_left"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AffiliateStatus struct {
	Code                     string `json:"code"`
	TotalEarningsMicros      int64  `json:"total_earnings_micros"`
	AccruedEarningsMicros    int64  `json:"accrued_earnings_micros"`
	ReferredCount            int64  `json:"referred_count"`
	QualifyingDepositorCount int64  `json:"qualifying_depositor_count"`
	RequiredDepositorCount   int64  `json:"required_depositor_count"`
	CanWithdraw              bool   `json:"can_withdraw"`
}
