package models

import (
	"time"

	"bankledger/internal/money"
)

// Account is a currency-tagged balance owned by exactly one user and governed
// by an AccountType policy. The balance is mutated only through the ledger
// engine; every mutation bumps Version, which the store checks at commit time
// to detect lost updates.
type Account struct {
	ID            string      `json:"id"`
	AccountNumber string      `json:"account_number"`
	UserID        string      `json:"user_id"`
	AccountTypeID string      `json:"account_type_id"`
	Balance       money.Money `json:"balance"`
	Currency      string      `json:"currency"`
	Active        bool        `json:"active"`
	OpenedAt      time.Time   `json:"opened_at"`
	ClosedAt      *time.Time  `json:"closed_at,omitempty"`
	Version       int64       `json:"version"`
}
