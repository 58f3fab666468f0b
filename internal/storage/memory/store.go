// Package memory provides the in-memory implementation of the ledger store.
// It backs tests and local development; production uses the postgres store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bankledger/internal/common"
	"bankledger/internal/interfaces"
	"bankledger/internal/models"
)

// MemoryLedgerStore is a thread-safe in-memory interfaces.LedgerStore. Reads
// hand out copies so callers can never mutate stored state directly; Commit
// validates the whole ChangeSet before applying any of it.
type MemoryLedgerStore struct {
	mu sync.RWMutex

	accounts         map[string]models.Account
	accountsByNumber map[string]string
	accountTypes     map[string]models.AccountType
	users            map[string]models.User
	bills            map[string]models.Bill
	transactions     []models.Transaction

	failCommit error
}

// NewMemoryLedgerStore creates an empty store.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts:         make(map[string]models.Account),
		accountsByNumber: make(map[string]string),
		accountTypes:     make(map[string]models.AccountType),
		users:            make(map[string]models.User),
		bills:            make(map[string]models.Bill),
	}
}

// PutUser seeds a user. Users are managed by the identity layer, not the
// ledger, so this sits outside the LedgerStore interface.
func (m *MemoryLedgerStore) PutUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

// PutAccountType seeds an account type. Account types are administered
// outside the ledger core.
func (m *MemoryLedgerStore) PutAccountType(accountType models.AccountType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountTypes[accountType.ID] = accountType
}

// FailNextCommit makes the next Commit fail with err without applying
// anything. Used by tests to exercise all-or-nothing behavior.
func (m *MemoryLedgerStore) FailNextCommit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCommit = err
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, id)
	}
	return &acct, nil
}

func (m *MemoryLedgerStore) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.accountsByNumber[number]
	if !ok {
		return nil, fmt.Errorf("%w: number %s", common.ErrAccountNotFound, number)
	}
	acct := m.accounts[id]
	return &acct, nil
}

func (m *MemoryLedgerStore) GetAccountType(ctx context.Context, id string) (*models.AccountType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accountType, ok := m.accountTypes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountTypeNotFound, id)
	}
	return &accountType, nil
}

func (m *MemoryLedgerStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUserNotFound, id)
	}
	return &user, nil
}

func (m *MemoryLedgerStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bill, ok := m.bills[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrBillNotFound, id)
	}
	return &bill, nil
}

func (m *MemoryLedgerStore) ListBillsByUser(ctx context.Context, userID string, status models.BillStatus) ([]models.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Bill
	for _, bill := range m.bills {
		if bill.UserID != userID {
			continue
		}
		if status != "" && bill.Status != status {
			continue
		}
		result = append(result, bill)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueDate.Before(result[j].DueDate) })
	return result, nil
}

func (m *MemoryLedgerStore) ListPendingBillsDueBefore(ctx context.Context, t time.Time) ([]models.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Bill
	for _, bill := range m.bills {
		if bill.Status == models.BillPending && bill.DueDate.Before(t) {
			result = append(result, bill)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueDate.Before(result[j].DueDate) })
	return result, nil
}

func (m *MemoryLedgerStore) ListTransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID {
			result = append(result, tx)
		}
	}
	return result, nil
}

// Commit applies a ChangeSet atomically: the whole set is validated against
// current versions and uniqueness constraints before any of it is written.
func (m *MemoryLedgerStore) Commit(ctx context.Context, change interfaces.ChangeSet) error {
	if change.Empty() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCommit != nil {
		err := m.failCommit
		m.failCommit = nil
		return err
	}

	// Validate everything first.
	for _, acct := range change.CreateAccounts {
		if _, exists := m.accounts[acct.ID]; exists {
			return fmt.Errorf("%w: account %s", common.ErrDuplicateEntry, acct.ID)
		}
		if _, exists := m.accountsByNumber[acct.AccountNumber]; exists {
			return fmt.Errorf("%w: account number %s", common.ErrDuplicateEntry, acct.AccountNumber)
		}
	}
	for _, acct := range change.SaveAccounts {
		stored, ok := m.accounts[acct.ID]
		if !ok {
			return fmt.Errorf("%w: %s", common.ErrAccountNotFound, acct.ID)
		}
		if stored.Version != acct.Version-1 {
			return fmt.Errorf("%w: account %s at version %d, expected %d",
				common.ErrConcurrencyConflict, acct.ID, stored.Version, acct.Version-1)
		}
	}
	for _, bill := range change.CreateBills {
		if _, exists := m.bills[bill.ID]; exists {
			return fmt.Errorf("%w: bill %s", common.ErrDuplicateEntry, bill.ID)
		}
	}
	if change.SaveBill != nil {
		stored, ok := m.bills[change.SaveBill.ID]
		if !ok {
			return fmt.Errorf("%w: %s", common.ErrBillNotFound, change.SaveBill.ID)
		}
		if stored.Version != change.SaveBill.Version-1 {
			return fmt.Errorf("%w: bill %s at version %d, expected %d",
				common.ErrConcurrencyConflict, change.SaveBill.ID, stored.Version, change.SaveBill.Version-1)
		}
	}

	// Apply.
	for _, acct := range change.CreateAccounts {
		m.accounts[acct.ID] = acct
		m.accountsByNumber[acct.AccountNumber] = acct.ID
	}
	for _, acct := range change.SaveAccounts {
		m.accounts[acct.ID] = acct
	}
	for _, bill := range change.CreateBills {
		m.bills[bill.ID] = bill
	}
	if change.SaveBill != nil {
		m.bills[change.SaveBill.ID] = *change.SaveBill
	}
	m.transactions = append(m.transactions, change.Transactions...)
	return nil
}

var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
