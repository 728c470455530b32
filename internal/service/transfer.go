package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/domain"
	"github.com/ultrasignals/trading-ledger/internal/ledger"
	"github.com/ultrasignals/trading-ledger/internal/models"
	"github.com/ultrasignals/trading-ledger/internal/repository"
)

type TransferService struct {
	store  *repository.Store
	ledger *ledger.Ledger
}

func NewTransferService(store *repository.Store, l *ledger.Ledger) *TransferService {
	return &TransferService{store: store, ledger: l}
}

// Transfer moves available funds from the sender to the recipient resolved by
// email. Debit, credit, transfer row and both journal entries commit in one
// transaction; nothing is applied when any step fails.
func (s *TransferService) Transfer(ctx context.Context, senderID uuid.UUID, recipientEmail string, amountMicros int64) (*models.Transfer, error) {
	if amountMicros <= 0 {
		return nil, models.ErrInvalidAmount
	}
	recipientEmail = strings.ToLower(strings.TrimSpace(recipientEmail))
	if recipientEmail == "" {
		return nil, models.ErrInvalidRecipient
	}

	recipient, err := s.store.Queries().GetUserByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRecipientNotFound
		}
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if recipient.ID == senderID {
		return nil, models.ErrInvalidRecipient
	}

	transfer := &models.Transfer{
		ID:           uuid.New(),
		SenderID:     senderID,
		RecipientID:  recipient.ID,
		AmountMicros: amountMicros,
		Status:       domain.TransferStatusCompleted,
	}

	debit := ledger.Delta{
		UserID:         senderID,
		Event:          domain.EventTransferOut,
		AvailableDelta: -amountMicros,
		ReferenceID:    &transfer.ID,
	}
	credit := ledger.Delta{
		UserID:         recipient.ID,
		Event:          domain.EventTransferIn,
		AvailableDelta: amountMicros,
		ReferenceID:    &transfer.ID,
	}

	err = s.store.RunInTx(ctx, func(q *repository.Queries) error {
		if err := s.ledger.ApplyPairedInTx(ctx, q, debit, credit); err != nil {
			return err
		}
		if err := q.InsertTransfer(ctx, transfer); err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		return nil
	})
	if errors.Is(err, models.ErrInsufficientFunds) {
		s.ledger.RecordRejected(ctx, debit)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("transfer completed",
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("sender_id", senderID.String()),
		zap.String("recipient_id", recipient.ID.String()),
		zap.Int64("amount_micros", amountMicros))
	return transfer, nil
}

// History returns transfers where the user is sender or recipient, newest
// first.
func (s *TransferService) History(ctx context.Context, userID uuid.UUID, limit int32) ([]models.Transfer, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.Queries().ListTransfersForUser(ctx, userID, limit)
}
