// Package ledger applies balance deltas to wallets atomically and records
// every attempt, applied or rejected, in the money-movement journal.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

// Delta is a single balance mutation against one wallet.
type Delta struct {
	UserID         uuid.UUID
	Event          string
	AvailableDelta int64
	LockedDelta    int64
	ReferenceID    *uuid.UUID
}

type Ledger struct {
	store *repository.Store
}

func New(store *repository.Store) *Ledger {
	return &Ledger{store: store}
}

// ApplyInTx applies a delta inside the caller's transaction. The wallet row
// is locked for the remainder of the transaction, commits and journal writes
// happen together or not at all. Returns models.ErrInsufficientFunds when the
// delta would drive either balance negative, leaving the transaction to roll
// back.
func (l *Ledger) ApplyInTx(ctx context.Context, q *repository.Queries, d Delta) (*models.JournalEntry, error) {
	wallet, err := q.GetWalletForUpdate(ctx, d.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock wallet %s: %w", d.UserID, err)
	}

	availableAfter := wallet.AvailableMicros + d.AvailableDelta
	lockedAfter := wallet.LockedMicros + d.LockedDelta
	if availableAfter < 0 || lockedAfter < 0 {
		return nil, models.ErrInsufficientFunds
	}

	if _, err := q.UpdateWalletBalances(ctx, d.UserID, d.AvailableDelta, d.LockedDelta); err != nil {
		return nil, fmt.Errorf("update wallet %s: %w", d.UserID, err)
	}

	entry := &models.JournalEntry{
		UserID:         d.UserID,
		Event:          d.Event,
		State:          domain.EntryStateApplied,
		AvailableDelta: d.AvailableDelta,
		LockedDelta:    d.LockedDelta,
		AvailableAfter: availableAfter,
		LockedAfter:    lockedAfter,
		ReferenceID:    d.ReferenceID,
	}
	if err := q.InsertJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("journal entry: %w", err)
	}
	return entry, nil
}

// ApplyPairedInTx applies a debit and a credit against two wallets in one
// transaction. Wallets are locked in ascending user-id order regardless of
// direction so that concurrent opposing transfers cannot deadlock.
func (l *Ledger) ApplyPairedInTx(ctx context.Context, q *repository.Queries, debit, credit Delta) error {
	first, second := debit, credit
	if bytes.Compare(credit.UserID[:], debit.UserID[:]) < 0 {
		first, second = credit, debit
	}
	for _, d := range []Delta{first, second} {
		if _, err := q.GetWalletForUpdate(ctx, d.UserID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrAccountNotFound
			}
			return fmt.Errorf("lock wallet %s: %w", d.UserID, err)
		}
	}
	if _, err := l.ApplyInTx(ctx, q, debit); err != nil {
		return err
	}
	if _, err := l.ApplyInTx(ctx, q, credit); err != nil {
		return err
	}
	return nil
}

// Apply runs a single delta in its own transaction. A rejection is journaled
// outside the rolled-back transaction so the refusal itself is durable.
func (l *Ledger) Apply(ctx context.Context, d Delta) (*models.JournalEntry, error) {
	var entry *models.JournalEntry
	err := l.store.RunInTx(ctx, func(q *repository.Queries) error {
		var txErr error
		entry, txErr = l.ApplyInTx(ctx, q, d)
		return txErr
	})
	if errors.Is(err, models.ErrInsufficientFunds) {
		l.RecordRejected(ctx, d)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordRejected journals a refused delta with the balances left unchanged.
// Runs outside any caller transaction, the caller's rollback must not erase
// the record of the attempt.
func (l *Ledger) RecordRejected(ctx context.Context, d Delta) {
	observability.IncrementRejectedDelta(d.Event)
	q := l.store.Queries()
	wallet, err := q.GetWallet(ctx, d.UserID)
	if err != nil {
		zap.L().Error("rejected entry: load wallet", zap.String("user_id", d.UserID.String()), zap.Error(err))
		return
	}
	entry := &models.JournalEntry{
		UserID:         d.UserID,
		Event:          d.Event,
		State:          domain.EntryStateRejected,
		AvailableDelta: d.AvailableDelta,
		LockedDelta:    d.LockedDelta,
		AvailableAfter: wallet.AvailableMicros,
		LockedAfter:    wallet.LockedMicros,
		ReferenceID:    d.ReferenceID,
	}
	if err := q.InsertJournalEntry(ctx, entry); err != nil {
		zap.L().Error("rejected entry: journal write", zap.String("user_id", d.UserID.String()), zap.Error(err))
	}
}
