// Package ledger implements the account-ledger invariant engine: the sole
// authority for mutating account balances and bill statuses. Every mutation
// is validated against the account's policy, applied, and recorded as an
// immutable transaction in one atomic commit through the store.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankledger/internal/common"
	"bankledger/internal/interfaces"
	"bankledger/internal/logging"
	"bankledger/internal/metrics"
	"bankledger/internal/models"
	"bankledger/internal/models/events"
	"bankledger/internal/money"
)

// DefaultLockWait bounds how long an operation waits for an account's
// exclusive scope before giving up with ErrOperationTimedOut.
const DefaultLockWait = 5 * time.Second

// Engine orchestrates all mutating ledger operations. Operations on one
// account are serialized through a per-account exclusive scope held for the
// whole validate-mutate-record sequence; operations on different accounts run
// in parallel. The store applies each ChangeSet atomically and rejects stale
// account versions, so a commit either lands completely or not at all.
type Engine struct {
	store  interfaces.LedgerStore
	events interfaces.EventPublisher
	locks  *accountLocks

	log      *logging.Logger
	metrics  *metrics.Collector
	lockWait time.Duration

	now   func() time.Time
	newID func() string
}

// Config carries the optional collaborators of an Engine.
type Config struct {
	// Events receives domain events after successful commits. Optional.
	Events interfaces.EventPublisher
	// Logger defaults to a no-op logger.
	Logger *logging.Logger
	// Metrics is optional.
	Metrics *metrics.Collector
	// LockWait defaults to DefaultLockWait.
	LockWait time.Duration
}

// NewEngine creates an engine over the given store.
func NewEngine(store interfaces.LedgerStore, cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNoOpLogger()
	}
	lockWait := cfg.LockWait
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &Engine{
		store:    store,
		events:   cfg.Events,
		locks:    newAccountLocks(),
		log:      log.Named("ledger"),
		metrics:  cfg.Metrics,
		lockWait: lockWait,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Account returns a snapshot of one account.
func (e *Engine) Account(ctx context.Context, accountID, actingUserID string) (*models.Account, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(acct.UserID, actingUserID); err != nil {
		return nil, err
	}
	return acct, nil
}

// AccountByNumber resolves an account by its human-facing account number.
func (e *Engine) AccountByNumber(ctx context.Context, number, actingUserID string) (*models.Account, error) {
	acct, err := e.store.GetAccountByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(acct.UserID, actingUserID); err != nil {
		return nil, err
	}
	return acct, nil
}

// History returns the account's transactions ordered by creation time. The
// ordered history replays to the current balance; see ReplayBalance.
func (e *Engine) History(ctx context.Context, accountID, actingUserID string) ([]models.Transaction, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(acct.UserID, actingUserID); err != nil {
		return nil, err
	}
	return e.store.ListTransactionsByAccount(ctx, accountID)
}

// Bills returns a user's bills, optionally filtered by status. An acting
// user may only list their own bills.
func (e *Engine) Bills(ctx context.Context, userID, actingUserID string, status models.BillStatus) ([]models.Bill, error) {
	if err := checkOwnership(userID, actingUserID); err != nil {
		return nil, err
	}
	return e.store.ListBillsByUser(ctx, userID, status)
}

// ReplayBalance folds an ordered transaction history into a balance, starting
// from zero in the given currency. A record in any other currency fails the
// fold with ErrCurrencyMismatch rather than summing silently.
func ReplayBalance(currency string, history []models.Transaction) (money.Money, error) {
	balance := money.Zero(currency)
	for _, tx := range history {
		next, err := balance.Add(tx.Amount)
		if err != nil {
			return money.Money{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		balance = next
	}
	return balance, nil
}

// loadActiveAccount loads a fresh account snapshot and checks it accepts
// mutating operations. Callers must already hold the account's scope.
func (e *Engine) loadActiveAccount(ctx context.Context, accountID, actingUserID string) (*models.Account, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acct.Active {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountInactive, accountID)
	}
	if err := checkOwnership(acct.UserID, actingUserID); err != nil {
		return nil, err
	}
	return acct, nil
}

// checkOwnership re-validates ownership when the calling layer supplies an
// acting user. An empty acting user means the caller already authorized the
// request (or it is administrative).
func checkOwnership(ownerID, actingUserID string) error {
	if actingUserID != "" && actingUserID != ownerID {
		return common.ErrNotOwner
	}
	return nil
}

// validateAmount checks an operation amount against the account it targets:
// positive, well-formed currency, and the same currency as the account.
func validateAmount(amount money.Money, acct *models.Account) error {
	if err := money.ValidateCurrency(amount.Currency); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", common.ErrInvalidAmount, amount)
	}
	if amount.Currency != acct.Currency {
		return fmt.Errorf("%w: account %s holds %s, got %s",
			common.ErrCurrencyMismatch, acct.ID, acct.Currency, amount.Currency)
	}
	return nil
}

// minimumFor is the balance floor for an account, denominated in the
// account's currency. Policy amounts are currency-neutral.
func minimumFor(acct *models.Account, accountType *models.AccountType) money.Money {
	return money.Money{Amount: accountType.MinimumBalance.Amount, Currency: acct.Currency}
}

// checkFloor rejects a prospective balance that would fall below the
// account type's minimum.
func (e *Engine) checkFloor(ctx context.Context, acct *models.Account, newBalance money.Money) error {
	accountType, err := e.store.GetAccountType(ctx, acct.AccountTypeID)
	if err != nil {
		return err
	}
	floor := minimumFor(acct, accountType)
	below, err := newBalance.Cmp(floor)
	if err != nil {
		return err
	}
	if below < 0 {
		return fmt.Errorf("%w: account %s balance %s would fall below minimum %s",
			common.ErrInsufficientFunds, acct.ID, acct.Balance, floor)
	}
	return nil
}

func (e *Engine) newTransaction(accountID string, typ models.TransactionType, amount, balanceAfter money.Money, billID, description string) models.Transaction {
	return models.Transaction{
		ID:           e.newID(),
		AccountID:    accountID,
		Type:         typ,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		BillID:       billID,
		Description:  description,
		CreatedAt:    e.now(),
	}
}

// observe records one completed operation if metrics are wired.
func (e *Engine) observe(operation string, start time.Time, err error) {
	if e.metrics != nil {
		e.metrics.ObserveOperation(operation, err, time.Since(start))
	}
}

// publishTransaction emits a TransactionRecorded event. Publishing happens
// after the commit and never fails the operation.
func (e *Engine) publishTransaction(ctx context.Context, tx models.Transaction) {
	if e.events == nil {
		return
	}
	ev := events.TransactionRecorded{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Type:          string(tx.Type),
		Amount:        tx.Amount.Amount,
		Currency:      tx.Amount.Currency,
		BalanceAfter:  tx.BalanceAfter.Amount,
		OccurredAt:    tx.CreatedAt,
	}
	if err := e.events.Publish(ctx, events.TopicTransactionRecorded, ev); err != nil {
		e.log.Warn("failed to publish transaction event",
			zap.String("transaction_id", tx.ID), zap.Error(err))
	}
}

func (e *Engine) publishBillPaid(ctx context.Context, bill *models.Bill, tx models.Transaction) {
	if e.events == nil {
		return
	}
	ev := events.BillPaid{
		BillID:        bill.ID,
		AccountID:     tx.AccountID,
		TransactionID: tx.ID,
		Amount:        bill.Amount.Amount,
		Currency:      bill.Amount.Currency,
		OccurredAt:    tx.CreatedAt,
	}
	if err := e.events.Publish(ctx, events.TopicBillPaid, ev); err != nil {
		e.log.Warn("failed to publish bill paid event",
			zap.String("bill_id", bill.ID), zap.Error(err))
	}
}
