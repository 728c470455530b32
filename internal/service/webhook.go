package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ultrasignals/trading-ledger/internal/domain"
)

var ErrInvalidSignature = errors.New("invalid signature")

// WebhookService handles deposit confirmations from the external gateway.
type WebhookService struct {
	deposits *DepositService
	hmacKey  []byte
	skipSig  bool
}

func NewWebhookService(deposits *DepositService, hmacKey string, skipSignature bool) *WebhookService {
	return &WebhookService{
		deposits: deposits,
		hmacKey:  []byte(hmacKey),
		skipSig:  skipSignature,
	}
}

// DepositWebhookPayload is the gateway's deposit status notification.
type DepositWebhookPayload struct {
	DepositID string `json:"deposit_id"`
	Status    string `json:"status"`
	TxHash    string `json:"tx_hash"`
}

// DepositWebhookResponse acknowledges a processed notification.
type DepositWebhookResponse struct {
	DepositID uuid.UUID `json:"deposit_id"`
	Applied   bool      `json:"applied"`
}

// HandleDepositWebhook verifies the HMAC signature, then applies the deposit
// transition. Replays of an already-processed notification return Applied
// false without touching balances.
func (s *WebhookService) HandleDepositWebhook(ctx context.Context, payload []byte, signature string) (*DepositWebhookResponse, error) {
	if !s.verifyHMAC(payload, signature) {
		return nil, ErrInvalidSignature
	}

	var event DepositWebhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	event.Status = strings.ToLower(strings.TrimSpace(event.Status))

	depositID, err := uuid.Parse(strings.TrimSpace(event.DepositID))
	if err != nil {
		return nil, fmt.Errorf("invalid deposit_id: %w", err)
	}

	switch event.Status {
	case domain.DepositStatusConfirmed:
		applied, err := s.deposits.Confirm(ctx, depositID)
		if err != nil {
			return nil, err
		}
		return &DepositWebhookResponse{DepositID: depositID, Applied: applied}, nil
	case domain.DepositStatusFailed:
		if err := s.deposits.Fail(ctx, depositID); err != nil {
			return nil, err
		}
		return &DepositWebhookResponse{DepositID: depositID, Applied: false}, nil
	default:
		return nil, fmt.Errorf("unsupported status: %q", event.Status)
	}
}

// verifyHMAC verifies the HMAC signature of the payload.
func (s *WebhookService) verifyHMAC(payload []byte, signature string) bool {
	if s.skipSig {
		return true
	}
	if len(s.hmacKey) == 0 {
		return false
	}

	h := hmac.New(sha256.New, s.hmacKey)
	h.Write(payload)
	expectedSig := "sha256=" + hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
