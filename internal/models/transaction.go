package models

import (
	"time"

	"bankledger/internal/money"
)

// TransactionType classifies a ledger record.
type TransactionType string

const (
	TransactionDeposit     TransactionType = "DEPOSIT"
	TransactionWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTransferOut TransactionType = "TRANSFER_OUT"
	TransactionBillPayment TransactionType = "BILL_PAYMENT"
	TransactionFee         TransactionType = "FEE"
	TransactionInterest    TransactionType = "INTEREST"
)

// Transaction is one immutable ledger record for an account. Amount is signed:
// positive for credits, negative for debits. BalanceAfter is the account
// balance immediately after the record was committed, so replaying an
// account's history reproduces its current balance. The owning account is
// referenced by id only; there are no live back-pointers.
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Type         TransactionType `json:"type"`
	Amount       money.Money     `json:"amount"`
	BalanceAfter money.Money     `json:"balance_after"`
	BillID       string          `json:"bill_id,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
