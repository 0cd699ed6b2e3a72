package domain

import "time"

// PaymentEvent is one verified notification from the hosted payment
// processor. EventID is the processor's identifier and keeps webhook
// delivery idempotent.
type PaymentEvent struct {
	ID        string
	EventID   string
	UserID    string
	Type      string
	Amount    int
	Credits   int
	CreatedAt time.Time
}

// PaymentEventCheckoutCompleted is the only event type that credits a
// user's ledger; everything else is recorded and ignored.
const PaymentEventCheckoutCompleted = "checkout.completed"
