package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topics the ledger publishes to after a successful commit.
const (
	TopicTransactionRecorded = "ledger.transaction_recorded"
	TopicBillPaid            = "ledger.bill_paid"
)

// TransactionRecorded is emitted once per committed ledger record.
type TransactionRecorded struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// BillPaid is emitted when a bill transitions to PAID.
type BillPaid struct {
	BillID        string          `json:"bill_id"`
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
