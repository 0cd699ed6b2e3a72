package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vidforge/internal/domain"
)

// Service manages the per-user credit ledger and applies verified
// payment processor events.
type Service struct {
	credits  domain.CreditRepository
	payments domain.PaymentRepository
	logger   zerolog.Logger
}

func NewService(credits domain.CreditRepository, payments domain.PaymentRepository, logger zerolog.Logger) *Service {
	return &Service{credits: credits, payments: payments, logger: logger}
}

// Charge debits amount credits from the user, failing with
// ErrInsufficientCredits when the balance does not cover it.
func (s *Service) Charge(ctx context.Context, userID string, amount int, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("charge amount must be positive, got %d", amount)
	}
	return s.credits.Append(ctx, &domain.CreditEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    -amount,
		Kind:      domain.CreditKindCharge,
		Reference: reference,
	})
}

// Refund returns previously charged credits, e.g. after a
// submission-time provider rejection.
func (s *Service) Refund(ctx context.Context, userID string, amount int, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %d", amount)
	}
	return s.credits.Append(ctx, &domain.CreditEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Kind:      domain.CreditKindRefund,
		Reference: reference,
	})
}

// Balance returns the user's current credit balance.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	return s.credits.Balance(ctx, userID)
}

// RecentEntries returns the user's latest ledger movements.
func (s *Service) RecentEntries(ctx context.Context, userID string, limit int) ([]domain.CreditEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.credits.ListRecent(ctx, userID, limit)
}

// ApplyPaymentEvent records a verified processor event and credits the
// ledger for completed checkouts. Redelivered events are detected by
// the processor's event id and applied at most once.
func (s *Service) ApplyPaymentEvent(ctx context.Context, event *domain.PaymentEvent) error {
	if event.EventID == "" || event.UserID == "" {
		return fmt.Errorf("payment event missing event_id or user_id")
	}
	// A malformed checkout must fail before the event id is recorded,
	// otherwise a corrected redelivery lands on the duplicate path and
	// the user is never credited.
	if event.Type == domain.PaymentEventCheckoutCompleted && event.Credits <= 0 {
		return fmt.Errorf("checkout event %s carries no credits", event.EventID)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := s.payments.Record(ctx, event); err != nil {
		if errors.Is(err, domain.ErrDuplicateOperation) {
			s.logger.Info().Str("event_id", event.EventID).Msg("payment event already processed")
			return nil
		}
		return err
	}
	if event.Type != domain.PaymentEventCheckoutCompleted {
		s.logger.Debug().Str("event_id", event.EventID).Str("type", event.Type).Msg("ignoring payment event type")
		return nil
	}
	return s.credits.Append(ctx, &domain.CreditEntry{
		ID:        uuid.NewString(),
		UserID:    event.UserID,
		Amount:    event.Credits,
		Kind:      domain.CreditKindTopUp,
		Reference: event.EventID,
	})
}

// VerifySignature checks the hex-encoded HMAC-SHA256 signature the
// payment processor attaches to webhook deliveries.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the signature VerifySignature expects; used by tests
// and local tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
