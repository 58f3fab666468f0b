package models

import (
	"github.com/shopspring/decimal"

	"bankledger/internal/money"
)

// AccountType is a named policy shared by many accounts: the balance floor,
// the interest rate applied by accrual runs, and the recurring monthly fee.
// Account types are created and updated by an administrative process; the
// ledger only reads them.
type AccountType struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	MinimumBalance money.Money     `json:"minimum_balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MonthlyFee     money.Money     `json:"monthly_fee"`
}
