package interfaces

import (
	"context"
	"time"

	"bankledger/internal/models"
)

// ChangeSet is the atomic unit the ledger engine hands to the store: every
// creation, update and appended transaction in it must be applied together or
// not at all. Updated accounts and bills carry their next version; the store
// must reject the whole set with common.ErrConcurrencyConflict if any stored
// version does not match the expected previous one.
type ChangeSet struct {
	CreateAccounts []models.Account
	SaveAccounts   []models.Account
	CreateBills    []models.Bill
	SaveBill       *models.Bill
	Transactions   []models.Transaction
}

// Empty reports whether the set carries no changes.
func (c ChangeSet) Empty() bool {
	return len(c.CreateAccounts) == 0 && len(c.SaveAccounts) == 0 &&
		len(c.CreateBills) == 0 && c.SaveBill == nil && len(c.Transactions) == 0
}

// LedgerStore is the persistence boundary of the ledger engine. Reads return
// snapshots the caller owns; Commit applies a ChangeSet atomically.
type LedgerStore interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*models.Account, error)
	GetAccountType(ctx context.Context, id string) (*models.AccountType, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetBill(ctx context.Context, id string) (*models.Bill, error)
	ListBillsByUser(ctx context.Context, userID string, status models.BillStatus) ([]models.Bill, error)
	ListPendingBillsDueBefore(ctx context.Context, t time.Time) ([]models.Bill, error)
	ListTransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	Commit(ctx context.Context, change ChangeSet) error
}
