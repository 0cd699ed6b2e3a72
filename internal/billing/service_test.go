package billing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"vidforge/internal/domain"
)

type memCredits struct {
	mu      sync.Mutex
	entries []domain.CreditEntry
}

func (m *memCredits) Append(_ context.Context, entry *domain.CreditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.Amount < 0 {
		balance := 0
		for _, e := range m.entries {
			if e.UserID == entry.UserID {
				balance += e.Amount
			}
		}
		if balance+entry.Amount < 0 {
			return domain.ErrInsufficientCredits
		}
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memCredits) Balance(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			balance += e.Amount
		}
	}
	return balance, nil
}

func (m *memCredits) ListRecent(_ context.Context, userID string, limit int) ([]domain.CreditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CreditEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

type memPayments struct {
	seen map[string]bool
}

func (m *memPayments) Record(_ context.Context, event *domain.PaymentEvent) error {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[event.EventID] {
		return domain.ErrDuplicateOperation
	}
	m.seen[event.EventID] = true
	return nil
}

func newTestBilling() (*Service, *memCredits) {
	credits := &memCredits{}
	return NewService(credits, &memPayments{}, zerolog.Nop()), credits
}

func TestChargeAndRefund(t *testing.T) {
	svc, _ := newTestBilling()
	ctx := context.Background()

	event := &domain.PaymentEvent{EventID: "evt-1", UserID: "user-1", Type: domain.PaymentEventCheckoutCompleted, Credits: 100}
	if err := svc.ApplyPaymentEvent(ctx, event); err != nil {
		t.Fatalf("ApplyPaymentEvent error: %v", err)
	}
	if err := svc.Charge(ctx, "user-1", 30, "job-1"); err != nil {
		t.Fatalf("Charge error: %v", err)
	}
	balance, _ := svc.Balance(ctx, "user-1")
	if balance != 70 {
		t.Fatalf("unexpected balance: %d", balance)
	}
	if err := svc.Refund(ctx, "user-1", 30, "job-1"); err != nil {
		t.Fatalf("Refund error: %v", err)
	}
	balance, _ = svc.Balance(ctx, "user-1")
	if balance != 100 {
		t.Fatalf("refund not applied: %d", balance)
	}
}

func TestChargeInsufficientBalance(t *testing.T) {
	svc, _ := newTestBilling()
	if err := svc.Charge(context.Background(), "user-1", 10, "job-1"); !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestBilling()
	if err := svc.Charge(context.Background(), "user-1", 0, "job-1"); err == nil {
		t.Fatalf("expected error for zero charge")
	}
	if err := svc.Refund(context.Background(), "user-1", -5, "job-1"); err == nil {
		t.Fatalf("expected error for negative refund")
	}
}

func TestApplyPaymentEventIdempotent(t *testing.T) {
	svc, _ := newTestBilling()
	ctx := context.Background()
	event := &domain.PaymentEvent{EventID: "evt-1", UserID: "user-1", Type: domain.PaymentEventCheckoutCompleted, Credits: 50}

	if err := svc.ApplyPaymentEvent(ctx, event); err != nil {
		t.Fatalf("first apply error: %v", err)
	}
	redelivery := &domain.PaymentEvent{EventID: "evt-1", UserID: "user-1", Type: domain.PaymentEventCheckoutCompleted, Credits: 50}
	if err := svc.ApplyPaymentEvent(ctx, redelivery); err != nil {
		t.Fatalf("redelivery must be swallowed: %v", err)
	}
	balance, _ := svc.Balance(ctx, "user-1")
	if balance != 50 {
		t.Fatalf("event applied twice: balance=%d", balance)
	}
}

func TestApplyPaymentEventRejectsCheckoutWithoutCredits(t *testing.T) {
	svc, _ := newTestBilling()
	ctx := context.Background()

	bad := &domain.PaymentEvent{EventID: "evt-1", UserID: "user-1", Type: domain.PaymentEventCheckoutCompleted, Credits: 0}
	if err := svc.ApplyPaymentEvent(ctx, bad); err == nil {
		t.Fatalf("expected error for checkout without credits")
	}

	// The bad delivery must not burn the event id: a corrected
	// redelivery still credits the ledger.
	fixed := &domain.PaymentEvent{EventID: "evt-1", UserID: "user-1", Type: domain.PaymentEventCheckoutCompleted, Credits: 50}
	if err := svc.ApplyPaymentEvent(ctx, fixed); err != nil {
		t.Fatalf("corrected redelivery error: %v", err)
	}
	balance, _ := svc.Balance(ctx, "user-1")
	if balance != 50 {
		t.Fatalf("corrected redelivery not credited: %d", balance)
	}
}

func TestApplyPaymentEventIgnoresOtherTypes(t *testing.T) {
	svc, _ := newTestBilling()
	event := &domain.PaymentEvent{EventID: "evt-2", UserID: "user-1", Type: "checkout.expired", Credits: 50}
	if err := svc.ApplyPaymentEvent(context.Background(), event); err != nil {
		t.Fatalf("ApplyPaymentEvent error: %v", err)
	}
	balance, _ := svc.Balance(context.Background(), "user-1")
	if balance != 0 {
		t.Fatalf("non-checkout event credited ledger: %d", balance)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event_id":"evt-1"}`)
	sig := Sign("whsec", body)
	if !VerifySignature("whsec", body, sig) {
		t.Fatalf("valid signature rejected")
	}
	if VerifySignature("whsec", body, "deadbeef") {
		t.Fatalf("invalid signature accepted")
	}
	if VerifySignature("", body, sig) {
		t.Fatalf("empty secret must never verify")
	}
}
