package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ultrasignals/trading-ledger/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles all SQL access. Use WithTx to scope a query set to a
// transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// ---- users ----

func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO users (id, email, username, affiliate_code, referred_by, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`, user.ID, user.Email, user.Username, user.AffiliateCode, user.ReferredBy, user.Role).Scan(&user.CreatedAt)
}

const userColumns = `id, email, username, affiliate_code, referred_by, role, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.AffiliateCode, &u.ReferredBy, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (q *Queries) GetUserByAffiliateCode(ctx context.Context, code string) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE affiliate_code = $1`, code))
}

func (q *Queries) CountReferredUsers(ctx context.Context, code string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE referred_by = $1`, code).Scan(&count)
	return count, err
}

// ---- wallets ----

func (q *Queries) CreateWallet(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO wallets (user_id, available_micros, locked_micros, updated_at)
		VALUES ($1, 0, 0, NOW())
	`, userID)
	return err
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.UserID, &w.AvailableMicros, &w.LockedMicros, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (q *Queries) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, `
		SELECT user_id, available_micros, locked_micros, updated_at
		FROM wallets WHERE user_id = $1
	`, userID))
}

// GetWalletForUpdate locks the wallet row for the duration of the enclosing
// transaction. This is the serialization point for all mutations on one
// account.
func (q *Queries) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, `
		SELECT user_id, available_micros, locked_micros, updated_at
		FROM wallets WHERE user_id = $1
		FOR UPDATE
	`, userID))
}

func (q *Queries) UpdateWalletBalances(ctx context.Context, userID uuid.UUID, availableDelta, lockedDelta int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE wallets
		SET available_micros = available_micros + $1,
		    locked_micros = locked_micros + $2,
		    updated_at = NOW()
		WHERE user_id = $3
	`, availableDelta, lockedDelta, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ---- journal ----

func (q *Queries) InsertJournalEntry(ctx context.Context, e *models.JournalEntry) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO journal_entries (user_id, event, state, available_delta, locked_delta, available_after, locked_after, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`, e.UserID, e.Event, e.State, e.AvailableDelta, e.LockedDelta, e.AvailableAfter, e.LockedAfter, e.ReferenceID).Scan(&e.ID, &e.CreatedAt)
}

func (q *Queries) ListJournal(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.JournalEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, event, state, available_delta, locked_delta, available_after, locked_after, reference_id, created_at
		FROM journal_entries
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Event, &e.State, &e.AvailableDelta, &e.LockedDelta, &e.AvailableAfter, &e.LockedAfter, &e.ReferenceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DriftRow compares a wallet's stored balances with its applied journal net.
type DriftRow struct {
	UserID           uuid.UUID
	AvailableMicros  int64
	LockedMicros     int64
	JournalAvailable int64
	JournalLocked    int64
}

func (q *Queries) GetLedgerDrift(ctx context.Context) ([]DriftRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT w.user_id, w.available_micros, w.locked_micros,
		       COALESCE(SUM(j.available_delta), 0) AS journal_available,
		       COALESCE(SUM(j.locked_delta), 0) AS journal_locked
		FROM wallets w
		LEFT JOIN journal_entries j ON j.user_id = w.user_id AND j.state = 'applied'
		GROUP BY w.user_id, w.available_micros, w.locked_micros
		HAVING w.available_micros <> COALESCE(SUM(j.available_delta), 0)
		    OR w.locked_micros <> COALESCE(SUM(j.locked_delta), 0)
		    OR w.available_micros < 0
		    OR w.locked_micros < 0
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DriftRow
	for rows.Next() {
		var d DriftRow
		if err := rows.Scan(&d.UserID, &d.AvailableMicros, &d.LockedMicros, &d.JournalAvailable, &d.JournalLocked); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ---- trades ----

const tradeColumns = `id, owner_id, symbol, direction, stake_micros, multiplier, potential_payout_micros, duration_seconds, status, entry_reference, exit_reference, opened_at, resolve_at, resolved_at`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(&t.ID, &t.OwnerID, &t.Symbol, &t.Direction, &t.StakeMicros, &t.Multiplier,
		&t.PotentialPayoutMicros, &t.DurationSeconds, &t.Status, &t.EntryReference, &t.ExitReference,
		&t.OpenedAt, &t.ResolveAt, &t.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (q *Queries) InsertTrade(ctx context.Context, t *models.Trade) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO trades (id, owner_id, symbol, direction, stake_micros, multiplier, potential_payout_micros, duration_seconds, status, entry_reference, opened_at, resolve_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), $11)
		RETURNING opened_at
	`, t.ID, t.OwnerID, t.Symbol, t.Direction, t.StakeMicros, t.Multiplier,
		t.PotentialPayoutMicros, t.DurationSeconds, t.Status, t.EntryReference, t.ResolveAt).Scan(&t.OpenedAt)
}

func (q *Queries) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return scanTrade(q.db.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
}

func (q *Queries) GetTradeForUpdate(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return scanTrade(q.db.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1 FOR UPDATE`, id))
}

// ClaimDueTrades locks a batch of due, still-active trades. SKIP LOCKED keeps
// concurrent settlement workers from double-claiming.
func (q *Queries) ClaimDueTrades(ctx context.Context, now time.Time, limit int32) ([]models.Trade, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE status = 'active' AND resolve_at <= $1
		ORDER BY resolve_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Symbol, &t.Direction, &t.StakeMicros, &t.Multiplier,
			&t.PotentialPayoutMicros, &t.DurationSeconds, &t.Status, &t.EntryReference, &t.ExitReference,
			&t.OpenedAt, &t.ResolveAt, &t.ResolvedAt); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SettleTrade moves an active trade to a terminal state. Zero rows affected
// means the trade was already terminal.
func (q *Queries) SettleTrade(ctx context.Context, id uuid.UUID, status, exitReference string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE trades
		SET status = $1, exit_reference = $2, resolved_at = NOW()
		WHERE id = $3 AND status = 'active'
	`, status, exitReference, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListTradesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Trade, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades WHERE owner_id = $1 ORDER BY opened_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Symbol, &t.Direction, &t.StakeMicros, &t.Multiplier,
			&t.PotentialPayoutMicros, &t.DurationSeconds, &t.Status, &t.EntryReference, &t.ExitReference,
			&t.OpenedAt, &t.ResolveAt, &t.ResolvedAt); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ---- deposits ----

const depositColumns = `id, owner_id, amount_micros, method, status, deposit_address, contact, created_at, confirmed_at`

func scanDeposit(row pgx.Row) (*models.Deposit, error) {
	var d models.Deposit
	err := row.Scan(&d.ID, &d.OwnerID, &d.AmountMicros, &d.Method, &d.Status, &d.DepositAddress, &d.Contact, &d.CreatedAt, &d.ConfirmedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (q *Queries) InsertDeposit(ctx context.Context, d *models.Deposit) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO deposits (id, owner_id, amount_micros, method, status, deposit_address, contact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`, d.ID, d.OwnerID, d.AmountMicros, d.Method, d.Status, d.DepositAddress, d.Contact).Scan(&d.CreatedAt)
}

func (q *Queries) GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	return scanDeposit(q.db.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id))
}

func (q *Queries) GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	return scanDeposit(q.db.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) UpdateDepositStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE deposits
		SET status = $1,
		    confirmed_at = CASE WHEN $1 = 'confirmed' THEN NOW() ELSE confirmed_at END
		WHERE id = $2 AND status = 'pending'
	`, status, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListDepositsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Deposit, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+depositColumns+` FROM deposits WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []models.Deposit
	for rows.Next() {
		var d models.Deposit
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.AmountMicros, &d.Method, &d.Status, &d.DepositAddress, &d.Contact, &d.CreatedAt, &d.ConfirmedAt); err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// CountQualifyingDepositors counts distinct referred users holding at least
// one confirmed deposit meeting the qualifying minimum.
func (q *Queries) CountQualifyingDepositors(ctx context.Context, affiliateCode string, minimumMicros int64) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT d.owner_id)
		FROM deposits d
		JOIN users u ON u.id = d.owner_id
		WHERE u.referred_by = $1
		  AND d.status = 'confirmed'
		  AND d.amount_micros >= $2
	`, affiliateCode, minimumMicros).Scan(&count)
	return count, err
}

// ---- withdrawals ----

const withdrawalColumns = `id, owner_id, amount_micros, fee_micros, net_micros, destination, status, gateway_ref, created_at, updated_at, completed_at`

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(&w.ID, &w.OwnerID, &w.AmountMicros, &w.FeeMicros, &w.NetMicros, &w.Destination,
		&w.Status, &w.GatewayRef, &w.CreatedAt, &w.UpdatedAt, &w.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (q *Queries) InsertWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO withdrawals (id, owner_id, amount_micros, fee_micros, net_micros, destination, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`, w.ID, w.OwnerID, w.AmountMicros, w.FeeMicros, w.NetMicros, w.Destination, w.Status).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (q *Queries) GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(q.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

func (q *Queries) ClaimPendingWithdrawals(ctx context.Context, limit int32) ([]models.Withdrawal, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.AmountMicros, &w.FeeMicros, &w.NetMicros, &w.Destination,
			&w.Status, &w.GatewayRef, &w.CreatedAt, &w.UpdatedAt, &w.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, status string, gatewayRef *string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE withdrawals
		SET status = $1,
		    gateway_ref = $2,
		    updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3
	`, status, gatewayRef, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListWithdrawalsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Withdrawal, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.AmountMicros, &w.FeeMicros, &w.NetMicros, &w.Destination,
			&w.Status, &w.GatewayRef, &w.CreatedAt, &w.UpdatedAt, &w.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ---- transfers ----

func (q *Queries) InsertTransfer(ctx context.Context, t *models.Transfer) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO transfers (id, sender_id, recipient_id, amount_micros, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`, t.ID, t.SenderID, t.RecipientID, t.AmountMicros, t.Status).Scan(&t.CreatedAt)
}

func (q *Queries) ListTransfersForUser(ctx context.Context, userID uuid.UUID, limit int32) ([]models.Transfer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, sender_id, recipient_id, amount_micros, status, created_at
		FROM transfers
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.ID, &t.SenderID, &t.RecipientID, &t.AmountMicros, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- earnings ----

func (q *Queries) InsertEarning(ctx context.Context, e *models.Earning) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO earnings (id, user_id, source_user_id, amount_micros, source, credited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`, e.ID, e.UserID, e.SourceUserID, e.AmountMicros, e.Source, e.Credited).Scan(&e.CreatedAt)
}

func (q *Queries) SumEarnings(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_micros), 0) FROM earnings WHERE user_id = $1
	`, userID).Scan(&total)
	return total, err
}

func (q *Queries) SumAccruedEarnings(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_micros), 0) FROM earnings WHERE user_id = $1 AND credited = FALSE
	`, userID).Scan(&total)
	return total, err
}

// MarkEarningsCredited flips all accrued earnings to credited and returns the
// total amount moved.
func (q *Queries) MarkEarningsCredited(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `
		WITH claimed AS (
			UPDATE earnings SET credited = TRUE
			WHERE user_id = $1 AND credited = FALSE
			RETURNING amount_micros
		)
		SELECT COALESCE(SUM(amount_micros), 0) FROM claimed
	`, userID).Scan(&total)
	return total, err
}

// ---- spin chances ----

func (q *Queries) InsertSpinChances(ctx context.Context, userID uuid.UUID, chances int) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO spin_chances (user_id, chances_left, updated_at)
		VALUES ($1, $2, NOW())
	`, userID, chances)
	return err
}

func (q *Queries) GetSpinChances(ctx context.Context, userID uuid.UUID) (*models.SpinChances, error) {
	var s models.SpinChances
	err := q.db.QueryRow(ctx, `
		SELECT user_id, chances_left, updated_at FROM spin_chances WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.ChancesLeft, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DecrementSpinChances consumes one spin. Zero rows affected means the user
// has no spins left.
func (q *Queries) DecrementSpinChances(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE spin_chances
		SET chances_left = chances_left - 1, updated_at = NOW()
		WHERE user_id = $1 AND chances_left > 0
	`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) GrantSpinChances(ctx context.Context, userID uuid.UUID, count int) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE spin_chances
		SET chances_left = chances_left + $1, updated_at = NOW()
		WHERE user_id = $2
	`, count, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ---- idempotency keys ----

type IdempotencyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
}

func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (*IdempotencyRow, error) {
	var row IdempotencyRow
	err := q.db.QueryRow(ctx, `
		SELECT idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress
		FROM idempotency_keys WHERE idempotency_key = $1
	`, key).Scan(&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ReserveIdempotencyKey claims a key for the in-flight request. Returns
// pgx.ErrNoRows via the scan when another request already holds it.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, key, requestHash, method, path string) error {
	var reserved string
	return q.db.QueryRow(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at)
		VALUES ($1, $2, $3, $4, 0, ''::bytea, '', TRUE, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING idempotency_key
	`, key, requestHash, method, path).Scan(&reserved)
}

func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, key, requestHash string, status int32, body []byte, contentType string) (*IdempotencyRow, error) {
	var row IdempotencyRow
	err := q.db.QueryRow(ctx, `
		UPDATE idempotency_keys
		SET response_status = $1, response_body = $2, content_type = $3, in_progress = FALSE
		WHERE idempotency_key = $4 AND request_hash = $5
		RETURNING idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress
	`, status, body, contentType, key, requestHash).Scan(&row.IdempotencyKey, &row.RequestHash,
		&row.Method, &row.Path, &row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress)
	if err != nil {
		return nil, err
	}
	return &row, nil
}
