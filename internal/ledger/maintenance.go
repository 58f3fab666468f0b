package ledger

import (
	"context"
	"fmt"
	"time"

	"bankledger/internal/common"
	"bankledger/internal/interfaces"
	"bankledger/internal/models"
)

// ApplyMonthlyFee charges the account type's monthly fee as a FEE
// transaction. The fee is subject to the minimum-balance floor like any
// other debit; an account that cannot cover the fee is rejected, not
// clamped. A zero fee is a no-op. Administrative: no ownership check.
func (e *Engine) ApplyMonthlyFee(ctx context.Context, accountID string) (acct *models.Account, err error) {
	start := time.Now()
	defer func() { e.observe("apply_monthly_fee", start, err) }()

	if err = e.locks.acquire(ctx, accountID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(accountID)

	acct, err = e.loadActiveAccount(ctx, accountID, "")
	if err != nil {
		return nil, err
	}
	accountType, err := e.store.GetAccountType(ctx, acct.AccountTypeID)
	if err != nil {
		return nil, err
	}
	if accountType.MonthlyFee.IsZero() {
		return acct, nil
	}
	fee := accountType.MonthlyFee
	if fee.Currency != acct.Currency {
		return nil, fmt.Errorf("%w: account %s holds %s, fee is %s",
			common.ErrCurrencyMismatch, acct.ID, acct.Currency, fee.Currency)
	}

	newBalance, err := acct.Balance.Sub(fee)
	if err != nil {
		return nil, err
	}
	floor := minimumFor(acct, accountType)
	below, err := newBalance.Cmp(floor)
	if err != nil {
		return nil, err
	}
	if below < 0 {
		return nil, fmt.Errorf("%w: account %s cannot cover monthly fee %s",
			common.ErrInsufficientFunds, acct.ID, fee)
	}

	acct.Balance = newBalance
	acct.Version++

	tx := e.newTransaction(acct.ID, models.TransactionFee, fee.Neg(), newBalance, "",
		fmt.Sprintf("monthly fee (%s)", accountType.Name))
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

// AccrueInterest credits balance * interestRate as an INTEREST transaction,
// rounded to the money scale. Accounts with a zero balance or a zero rate
// are left untouched. Administrative: no ownership check.
func (e *Engine) AccrueInterest(ctx context.Context, accountID string) (acct *models.Account, err error) {
	start := time.Now()
	defer func() { e.observe("accrue_interest", start, err) }()

	if err = e.locks.acquire(ctx, accountID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(accountID)

	acct, err = e.loadActiveAccount(ctx, accountID, "")
	if err != nil {
		return nil, err
	}
	accountType, err := e.store.GetAccountType(ctx, acct.AccountTypeID)
	if err != nil {
		return nil, err
	}

	interest := acct.Balance.MulRate(accountType.InterestRate)
	if !interest.IsPositive() {
		return acct, nil
	}

	newBalance, err := acct.Balance.Add(interest)
	if err != nil {
		return nil, err
	}
	acct.Balance = newBalance
	acct.Version++

	tx := e.newTransaction(acct.ID, models.TransactionInterest, interest, newBalance, "",
		fmt.Sprintf("interest accrual (%s)", accountType.Name))
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
