package domain

import "time"

// CreditEntryKind labels why a ledger entry exists.
type CreditEntryKind string

const (
	CreditKindTopUp  CreditEntryKind = "topup"
	CreditKindCharge CreditEntryKind = "charge"
	CreditKindRefund CreditEntryKind = "refund"
)

// CreditEntry is one signed movement on a user's credit ledger.
// Charges are negative, top-ups and refunds positive; the balance is
// the sum over all entries.
type CreditEntry struct {
	ID        string
	UserID    string
	Amount    int
	Kind      CreditEntryKind
	Reference string
	CreatedAt time.Time
}
