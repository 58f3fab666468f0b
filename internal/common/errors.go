// Package common holds the error taxonomy shared by the ledger engine, the
// storage implementations and the request layer.
package common

import (
	"context"
	"errors"

	"bankledger/internal/money"
)

// Sentinel errors. Callers classify with errors.Is; messages shown to end
// users come from the wrapping site, which names the account or bill that
// was rejected.
var (
	// Not found.
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountTypeNotFound = errors.New("account type not found")
	ErrBillNotFound        = errors.New("bill not found")
	ErrUserNotFound        = errors.New("user not found")

	// Invalid input.
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCurrency = money.ErrInvalidCurrency
	ErrSameAccount     = errors.New("source and destination accounts are the same")

	// Invariant violations.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCurrencyMismatch  = money.ErrCurrencyMismatch
	ErrNonZeroBalance    = errors.New("account balance must be zero")

	// State conflicts.
	ErrAccountInactive = errors.New("account is closed")
	ErrBillNotPayable  = errors.New("bill is already paid or cancelled")
	ErrNotOwner        = errors.New("not the owner of this resource")

	// Retryable.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
	ErrOperationTimedOut   = errors.New("operation timed out acquiring account")

	// Storage.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// IsRetryable reports whether the caller may safely retry the same operation
// with the same input.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrOperationTimedOut) ||
		errors.Is(err, context.DeadlineExceeded)
}
