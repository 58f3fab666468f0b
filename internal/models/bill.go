package models

import (
	"time"

	"bankledger/internal/money"
)

// BillStatus is the lifecycle state of a bill.
type BillStatus string

const (
	BillPending   BillStatus = "PENDING"
	BillPaid      BillStatus = "PAID"
	BillOverdue   BillStatus = "OVERDUE"
	BillCancelled BillStatus = "CANCELLED"
)

// Bill is a payable obligation owned by a user. A bill transitions to PAID
// only through the ledger engine's pay-bill operation, which debits the
// paying account in the same atomic unit. PAID and CANCELLED are terminal.
type Bill struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Amount    money.Money `json:"amount"`
	DueDate   time.Time   `json:"due_date"`
	Status    BillStatus  `json:"status"`
	AccountID string      `json:"account_id,omitempty"`
	PaidAt    *time.Time  `json:"paid_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	Version   int64       `json:"version"`
}

// Payable reports whether the bill may still be paid.
func (b *Bill) Payable() bool {
	return b.Status == BillPending || b.Status == BillOverdue
}

// Cancellable reports whether the bill may transition to CANCELLED.
func (b *Bill) Cancellable() bool {
	return b.Status == BillPending || b.Status == BillOverdue
}

// OverdueAt reports whether a still-pending bill is past due at the given
// time. Used by the external scheduler's sweep.
func (b *Bill) OverdueAt(now time.Time) bool {
	return b.Status == BillPending && b.DueDate.Before(now)
}
