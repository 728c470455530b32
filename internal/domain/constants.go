package domain

const (
	TradeStatusActive = "active"
	TradeStatusWon    = "won"
	TradeStatusLost   = "lost"

	TradeDirectionUp   = "up"
	TradeDirectionDown = "down"

	DepositStatusPending   = "pending"
	DepositStatusConfirmed = "confirmed"
	DepositStatusFailed    = "failed"

	DepositMethodCrypto = "crypto"
	DepositMethodCard   = "card"

	WithdrawalStatusPending   = "pending"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusFailed    = "failed"

	TransferStatusCompleted = "completed"
	TransferStatusFailed    = "failed"

	RewardSourceSpin        = "spin"
	RewardSourceProfitShare = "referral_profit_share"
)

// Journal event kinds. Every balance mutation appends exactly one entry per
// affected wallet; rejected attempts are recorded with EntryStateRejected.
const (
	EventDeposit          = "deposit"
	EventWithdrawal       = "withdrawal"
	EventWithdrawalRefund = "withdrawal_refund"
	EventStake            = "stake"
	EventSettlement       = "settlement"
	EventTransferOut      = "transfer_out"
	EventTransferIn       = "transfer_in"
	EventReward           = "reward"
	EventEarningsClaim    = "earnings_claim"

	EntryStateApplied  = "applied"
	EntryStateRejected = "rejected"
)
