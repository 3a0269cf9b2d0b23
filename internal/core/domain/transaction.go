package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of fund movement.
type TransactionType string

const (
	TransactionTypeDonation      TransactionType = "donation"
	TransactionTypeSpending      TransactionType = "spending"
	TransactionTypeVendorPayment TransactionType = "vendor_payment"
)

// TransactionStatus represents the lifecycle state of a transaction.
// A transaction is immutable once confirmed; the only permitted mutation
// is the pending -> confirmed/failed status transition.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an append-only ledger fact. Donations carry a nil
// category when they are unearmarked; spending and vendor payments
// always carry the category the funds were drawn from.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	Type        TransactionType   `json:"type"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Amount      int64             `json:"amount"` // minor units
	Category    *Category         `json:"category,omitempty"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description,omitempty"`
	ReceiptHash *string           `json:"receipt_hash,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusConfirmed ||
		t.Status == TransactionStatusFailed
}

// CountsTowardSpend reports whether the transaction consumes beneficiary
// funds for the purposes of limit and cap checks. Pending transactions
// count: a spend awaiting review still reserves its amount.
func (t *Transaction) CountsTowardSpend() bool {
	if t.Type != TransactionTypeSpending && t.Type != TransactionTypeVendorPayment {
		return false
	}
	return t.Status == TransactionStatusPending || t.Status == TransactionStatusConfirmed
}
