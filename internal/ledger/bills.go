package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bankledger/internal/common"
	"bankledger/internal/interfaces"
	"bankledger/internal/models"
	"bankledger/internal/money"
)

// CreateBillRequest carries the parameters for creating a bill.
type CreateBillRequest struct {
	UserID   string
	Name     string
	Category string
	Amount   money.Money
	DueDate  time.Time
	// AccountID optionally links the bill to a preferred paying account.
	AccountID string
}

// CreateBill records a new PENDING bill for a user. Creation moves no money.
func (e *Engine) CreateBill(ctx context.Context, req CreateBillRequest) (bill *models.Bill, err error) {
	start := time.Now()
	defer func() { e.observe("create_bill", start, err) }()

	if err = money.ValidateCurrency(req.Amount.Currency); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", common.ErrInvalidAmount, req.Amount)
	}
	if _, err = e.store.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	bill = &models.Bill{
		ID:        e.newID(),
		UserID:    req.UserID,
		Name:      req.Name,
		Category:  req.Category,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Status:    models.BillPending,
		AccountID: req.AccountID,
		CreatedAt: e.now(),
		Version:   1,
	}
	change := interfaces.ChangeSet{CreateBills: []models.Bill{*bill}}
	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	return bill, nil
}

// PayBillRequest carries the parameters for paying a bill.
type PayBillRequest struct {
	BillID    string
	AccountID string
	// ActingUserID, when set, must own both the bill and the paying account.
	ActingUserID string
}

// PayBillResult is the outcome of a successful bill payment.
type PayBillResult struct {
	Bill        *models.Bill
	Account     *models.Account
	Transaction models.Transaction
}

// PayBill pays a PENDING or OVERDUE bill from the given account. The
// withdrawal, the status transition to PAID and the BILL_PAYMENT transaction
// commit as one unit: a bill is never marked PAID without the matching
// balance decrease, and the balance never decreases without the bill being
// marked PAID.
func (e *Engine) PayBill(ctx context.Context, req PayBillRequest) (res *PayBillResult, err error) {
	start := time.Now()
	defer func() { e.observe("pay_bill", start, err) }()

	// The bill's status transition shares the paying account's scope, since
	// both must commit together.
	if err = e.locks.acquire(ctx, req.AccountID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(req.AccountID)

	bill, err := e.store.GetBill(ctx, req.BillID)
	if err != nil {
		return nil, err
	}
	if err = checkOwnership(bill.UserID, req.ActingUserID); err != nil {
		return nil, err
	}
	if !bill.Payable() {
		return nil, fmt.Errorf("%w: bill %s is %s", common.ErrBillNotPayable, bill.ID, bill.Status)
	}

	acct, err := e.loadActiveAccount(ctx, req.AccountID, req.ActingUserID)
	if err != nil {
		return nil, err
	}
	if err = validateAmount(bill.Amount, acct); err != nil {
		return nil, err
	}

	newBalance, err := acct.Balance.Sub(bill.Amount)
	if err != nil {
		return nil, err
	}
	if err = e.checkFloor(ctx, acct, newBalance); err != nil {
		return nil, err
	}

	acct.Balance = newBalance
	acct.Version++

	paidAt := e.now()
	bill.Status = models.BillPaid
	bill.PaidAt = &paidAt
	bill.AccountID = acct.ID
	bill.Version++

	tx := e.newTransaction(acct.ID, models.TransactionBillPayment, bill.Amount.Neg(), newBalance, bill.ID,
		fmt.Sprintf("bill payment: %s", bill.Name))
	change := interfaces.ChangeSet{
		SaveAccounts: []models.Account{*acct},
		SaveBill:     bill,
		Transactions: []models.Transaction{tx},
	}
	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	e.log.Info("bill paid",
		zap.String("bill_id", bill.ID),
		zap.String("account_id", acct.ID),
		zap.String("amount", bill.Amount.String()))
	e.publishTransaction(ctx, tx)
	e.publishBillPaid(ctx, bill, tx)
	return &PayBillResult{Bill: bill, Account: acct, Transaction: tx}, nil
}

// CancelBillRequest carries the parameters for cancelling a bill.
type CancelBillRequest struct {
	BillID       string
	ActingUserID string
}

// CancelBill moves a PENDING or OVERDUE bill to the terminal CANCELLED state.
// Cancellation moves no money.
func (e *Engine) CancelBill(ctx context.Context, req CancelBillRequest) (bill *models.Bill, err error) {
	start := time.Now()
	defer func() { e.observe("cancel_bill", start, err) }()

	bill, err = e.store.GetBill(ctx, req.BillID)
	if err != nil {
		return nil, err
	}
	if err = checkOwnership(bill.UserID, req.ActingUserID); err != nil {
		return nil, err
	}
	if !bill.Cancellable() {
		return nil, fmt.Errorf("%w: bill %s is %s", common.ErrBillNotPayable, bill.ID, bill.Status)
	}

	bill.Status = models.BillCancelled
	bill.Version++

	change := interfaces.ChangeSet{SaveBill: bill}
	if err = e.store.Commit(ctx, change); err != nil {
		return nil, err
	}
	return bill, nil
}

// MarkBillsOverdue transitions every PENDING bill past its due date to
// OVERDUE. Intended to be driven by an external scheduler. Bills that were
// concurrently paid or cancelled are skipped. Returns the number of bills
// transitioned.
func (e *Engine) MarkBillsOverdue(ctx context.Context, now time.Time) (int, error) {
	due, err := e.store.ListPendingBillsDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	marked := 0
	for i := range due {
		bill := due[i]
		if !bill.OverdueAt(now) {
			continue
		}
		bill.Status = models.BillOverdue
		bill.Version++
		if err := e.store.Commit(ctx, interfaces.ChangeSet{SaveBill: &bill}); err != nil {
			if common.IsRetryable(err) {
				// The bill changed under us; the next sweep will catch it.
				continue
			}
			return marked, err
		}
		marked++
	}
	if marked > 0 {
		e.log.Info("bills marked overdue", zap.Int("count", marked))
	}
	return marked, nil
}
