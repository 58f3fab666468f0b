package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bankledger/internal/common"
	"bankledger/internal/interfaces"
	"bankledger/internal/models"
	"bankledger/internal/money"
)

// OpenAccountRequest carries the parameters for opening an account.
type OpenAccountRequest struct {
	UserID        string
	AccountTypeID string
	// AccountNumber is optional; one is generated when empty.
	AccountNumber string
	Currency      string
	// InitialDeposit is optional. When positive it is recorded as a DEPOSIT
	// transaction in the same atomic unit that creates the account.
	InitialDeposit *money.Money
}

// OpenAccount creates an active account with a zero balance, or with an
// initial deposit recorded as its first transaction.
func (e *Engine) OpenAccount(ctx context.Context, req OpenAccountRequest) (acct *models.Account, err error) {
	start := time.Now()
	defer func() { e.observe("open_account", start, err) }()

	if err = money.ValidateCurrency(req.Currency); err != nil {
		return nil, err
	}
	if _, err = e.store.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	if _, err = e.store.GetAccountType(ctx, req.AccountTypeID); err != nil {
		return nil, err
	}

	number := req.AccountNumber
	if number == "" {
		number = generateAccountNumber(e.newID())
	}

	acct = &models.Account{
		ID:            e.newID(),
		AccountNumber: number,
		UserID:        req.UserID,
		AccountTypeID: req.AccountTypeID,
		Balance:       money.Zero(req.Currency),
		Currency:      req.Currency,
		Active:        true,
		OpenedAt:      e.now(),
		Version:       1,
	}

	change := interfaces.ChangeSet{CreateAccounts: []models.Account{*acct}}
	if req.InitialDeposit != nil && !req.InitialDeposit.IsZero() {
		if err = validateAmount(*req.InitialDeposit, acct); err != nil {
			return nil, err
		}
		acct.Balance = *req.InitialDeposit
		tx := e.newTransaction(acct.ID, models.TransactionDeposit, *req.InitialDeposit, acct.Balance, "", "initial deposit")
		change.CreateAccounts = []models.Account{*acct}
		change.Transactions = []models.Transaction{tx}
	}

	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	e.log.Info("account opened",
		zap.String("account_id", acct.ID),
		zap.String("user_id", acct.UserID),
		zap.String("currency", acct.Currency))
	for _, tx := range change.Transactions {
		e.publishTransaction(ctx, tx)
	}
	return acct, nil
}

// DepositRequest carries the parameters for a deposit.
type DepositRequest struct {
	AccountID string
	Amount    money.Money
	// ActingUserID, when set, is verified against the account owner.
	ActingUserID string
	Description  string
}

// Deposit credits the account and records a DEPOSIT transaction.
func (e *Engine) Deposit(ctx context.Context, req DepositRequest) (acct *models.Account, err error) {
	start := time.Now()
	defer func() { e.observe("deposit", start, err) }()

	if err = e.locks.acquire(ctx, req.AccountID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(req.AccountID)

	acct, err = e.loadActiveAccount(ctx, req.AccountID, req.ActingUserID)
	if err != nil {
		return nil, err
	}
	if err = validateAmount(req.Amount, acct); err != nil {
		return nil, err
	}

	newBalance, err := acct.Balance.Add(req.Amount)
	if err != nil {
		return nil, err
	}
	acct.Balance = newBalance
	acct.Version++

	tx := e.newTransaction(acct.ID, models.TransactionDeposit, req.Amount, newBalance, "", req.Description)
	change := interfaces.ChangeSet{
		SaveAccounts: []models.Account{*acct},
		Transactions: []models.Transaction{tx},
	}
	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	e.publishTransaction(ctx, tx)
	return acct, nil
}

// WithdrawRequest carries the parameters for a withdrawal.
type WithdrawRequest struct {
	AccountID    string
	Amount       money.Money
	ActingUserID string
	Description  string
}

// Withdraw debits the account and records a WITHDRAWAL transaction. The
// resulting balance must not fall below the account type's minimum; an
// operation that would breach the floor is rejected, never clamped.
func (e *Engine) Withdraw(ctx context.Context, req WithdrawRequest) (acct *models.Account, err error) {
	start := time.Now()
	defer func() { e.observe("withdraw", start, err) }()

	if err = e.locks.acquire(ctx, req.AccountID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(req.AccountID)

	acct, err = e.loadActiveAccount(ctx, req.AccountID, req.ActingUserID)
	if err != nil {
		return nil, err
	}
	if err = validateAmount(req.Amount, acct); err != nil {
		return nil, err
	}

	newBalance, err := acct.Balance.Sub(req.Amount)
	if err != nil {
		return nil, err
	}
	if err = e.checkFloor(ctx, acct, newBalance); err != nil {
		return nil, err
	}
	acct.Balance = newBalance
	acct.Version++

	tx := e.newTransaction(acct.ID, models.TransactionWithdrawal, req.Amount.Neg(), newBalance, "", req.Description)
	change := interfaces.ChangeSet{
		SaveAccounts: []models.Account{*acct},
		Transactions: []models.Transaction{tx},
	}
	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	e.publishTransaction(ctx, tx)
	return acct, nil
}

// TransferRequest carries the parameters for a transfer between two accounts.
type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	Amount        money.Money
	// ActingUserID, when set, must own the source account.
	ActingUserID string
	Description  string
}

// TransferResult is the outcome of a successful transfer.
type TransferResult struct {
	From   *models.Account
	To     *models.Account
	Debit  models.Transaction
	Credit models.Transaction
}

// Transfer moves money between two accounts atomically: either both legs
// commit with their two transactions, or neither account changes. Both
// scopes are taken in ascending account-id order to rule out deadlock
// between opposite-direction transfers.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (res *TransferResult, err error) {
	start := time.Now()
	defer func() { e.observe("transfer", start, err) }()

	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("%w: %s", common.ErrSameAccount, req.FromAccountID)
	}

	release, err := e.locks.acquireAll(ctx, e.lockWait, req.FromAccountID, req.ToAccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	from, err := e.loadActiveAccount(ctx, req.FromAccountID, req.ActingUserID)
	if err != nil {
		return nil, err
	}
	to, err := e.loadActiveAccount(ctx, req.ToAccountID, "")
	if err != nil {
		return nil, err
	}
	if err = validateAmount(req.Amount, from); err != nil {
		return nil, err
	}
	if to.Currency != req.Amount.Currency {
		return nil, fmt.Errorf("%w: destination account %s holds %s, got %s",
			common.ErrCurrencyMismatch, to.ID, to.Currency, req.Amount.Currency)
	}

	fromBalance, err := from.Balance.Sub(req.Amount)
	if err != nil {
		return nil, err
	}
	if err = e.checkFloor(ctx, from, fromBalance); err != nil {
		return nil, err
	}
	toBalance, err := to.Balance.Add(req.Amount)
	if err != nil {
		return nil, err
	}

	from.Balance = fromBalance
	from.Version++
	to.Balance = toBalance
	to.Version++

	debit := e.newTransaction(from.ID, models.TransactionTransferOut, req.Amount.Neg(), fromBalance, "", req.Description)
	credit := e.newTransaction(to.ID, models.TransactionTransferIn, req.Amount, toBalance, "", req.Description)

	change := interfaces.ChangeSet{
		SaveAccounts: []models.Account{*from, *to},
		Transactions: []models.Transaction{debit, credit},
	}
	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	e.publishTransaction(ctx, debit)
	e.publishTransaction(ctx, credit)
	return &TransferResult{From: from, To: to, Debit: debit, Credit: credit}, nil
}

// CloseAccountRequest carries the parameters for closing an account.
type CloseAccountRequest struct {
	AccountID    string
	ActingUserID string
}

// CloseAccount flips the account inactive. Closure requires a zero balance;
// an account with funds is rejected rather than silently discarding them.
// Closed accounts keep their transaction history and accept no further
// mutating operations.
func (e *Engine) CloseAccount(ctx context.Context, req CloseAccountRequest) (acct *models.Account, err error) {
	start := time.Now()
	defer func() { e.observe("close_account", start, err) }()

	if err = e.locks.acquire(ctx, req.AccountID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(req.AccountID)

	acct, err = e.loadActiveAccount(ctx, req.AccountID, req.ActingUserID)
	if err != nil {
		return nil, err
	}
	if !acct.Balance.IsZero() {
		return nil, fmt.Errorf("%w: account %s holds %s",
			common.ErrNonZeroBalance, acct.ID, acct.Balance)
	}

	closedAt := e.now()
	acct.Active = false
	acct.ClosedAt = &closedAt
	acct.Version++

	change := interfaces.ChangeSet{SaveAccounts: []models.Account{*acct}}
	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	e.log.Info("account closed", zap.String("account_id", acct.ID))
	return acct, nil
}

// generateAccountNumber derives an account number from a fresh id.
func generateAccountNumber(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 12 {
		compact = compact[:12]
	}
	return "ACC" + strings.ToUpper(compact)
}
