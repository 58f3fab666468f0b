package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankledger/internal/common"
	"bankledger/internal/ledger"
	"bankledger/internal/models"
	"bankledger/internal/money"
	"bankledger/internal/storage/memory"
)

const (
	userID       = "user-1"
	otherUserID  = "user-2"
	checkingType = "checking"
	savingsType  = "savings"
)

func usd(s string) money.Money { return money.MustParse(s, "USD") }

func newFixture(t *testing.T) (*ledger.Engine, *memory.MemoryLedgerStore) {
	t.Helper()
	store := memory.NewMemoryLedgerStore()
	store.PutUser(models.User{ID: userID, FirstName: "Ann", LastName: "One", Email: "ann@example.com", Role: models.RoleUser})
	store.PutUser(models.User{ID: otherUserID, FirstName: "Ben", LastName: "Two", Email: "ben@example.com", Role: models.RoleUser})
	store.PutAccountType(models.AccountType{
		ID:             checkingType,
		Name:           "Checking",
		MinimumBalance: money.Zero("USD"),
		InterestRate:   decimal.Zero,
		MonthlyFee:     money.Zero("USD"),
	})
	store.PutAccountType(models.AccountType{
		ID:             savingsType,
		Name:           "Savings",
		MinimumBalance: usd("100.00"),
		InterestRate:   decimal.RequireFromString("0.002"),
		MonthlyFee:     usd("5.00"),
	})
	return ledger.NewEngine(store, ledger.Config{}), store
}

func openAccount(t *testing.T, engine *ledger.Engine, typeID, initial string) *models.Account {
	t.Helper()
	req := ledger.OpenAccountRequest{UserID: userID, AccountTypeID: typeID, Currency: "USD"}
	if initial != "" {
		deposit := usd(initial)
		req.InitialDeposit = &deposit
	}
	acct, err := engine.OpenAccount(context.Background(), req)
	require.NoError(t, err)
	return acct
}

func createBill(t *testing.T, engine *ledger.Engine, amount string) *models.Bill {
	t.Helper()
	bill, err := engine.CreateBill(context.Background(), ledger.CreateBillRequest{
		UserID:   userID,
		Name:     "electricity",
		Category: "utilities",
		Amount:   usd(amount),
		DueDate:  time.Now().AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	return bill
}

func TestOpenAccount(t *testing.T) {
	engine, _ := newFixture(t)

	acct := openAccount(t, engine, checkingType, "")
	assert.True(t, acct.Active)
	assert.True(t, acct.Balance.IsZero())
	assert.NotEmpty(t, acct.AccountNumber)

	history, err := engine.History(context.Background(), acct.ID, userID)
	require.NoError(t, err)
	assert.Empty(t, history)

	byNumber, err := engine.AccountByNumber(context.Background(), acct.AccountNumber, userID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byNumber.ID)
}

func TestOpenAccountWithInitialDeposit(t *testing.T) {
	engine, _ := newFixture(t)

	acct := openAccount(t, engine, checkingType, "25.00")
	assert.True(t, acct.Balance.Equal(usd("25.00")))

	history, err := engine.History(context.Background(), acct.ID, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionDeposit, history[0].Type)
	assert.True(t, history[0].BalanceAfter.Equal(usd("25.00")))
}

func TestOpenAccountUnknownUser(t *testing.T) {
	engine, _ := newFixture(t)

	_, err := engine.OpenAccount(context.Background(), ledger.OpenAccountRequest{
		UserID:        "nobody",
		AccountTypeID: checkingType,
		Currency:      "USD",
	})
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestDeposit(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "")

	updated, err := engine.Deposit(context.Background(), ledger.DepositRequest{
		AccountID: acct.ID,
		Amount:    usd("50.00"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(usd("50.00")))

	history, err := engine.History(context.Background(), acct.ID, "")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionDeposit, history[0].Type)
	assert.True(t, history[0].Amount.Equal(usd("50.00")))
}

func TestDepositRejections(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "")

	tests := []struct {
		name    string
		req     ledger.DepositRequest
		wantErr error
	}{
		{"zero amount", ledger.DepositRequest{AccountID: acct.ID, Amount: usd("0.00")}, common.ErrInvalidAmount},
		{"negative amount", ledger.DepositRequest{AccountID: acct.ID, Amount: usd("-1.00")}, common.ErrInvalidAmount},
		{"wrong currency", ledger.DepositRequest{AccountID: acct.ID, Amount: money.MustParse("10.00", "EUR")}, common.ErrCurrencyMismatch},
		{"unknown account", ledger.DepositRequest{AccountID: "missing", Amount: usd("10.00")}, common.ErrAccountNotFound},
		{"not the owner", ledger.DepositRequest{AccountID: acct.ID, Amount: usd("10.00"), ActingUserID: otherUserID}, common.ErrNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Deposit(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No rejected operation may leave a trace.
	history, err := engine.History(context.Background(), acct.ID, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestWithdrawScenario walks the concrete sequence from the ledger contract:
// a 100.00 USD account with a 0.00 minimum rejects a 150.00 withdrawal
// untouched, then empties exactly to zero.
func TestWithdrawScenario(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "100.00")

	_, err := engine.Withdraw(context.Background(), ledger.WithdrawRequest{
		AccountID: acct.ID,
		Amount:    usd("150.00"),
	})
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	current, err := engine.Account(context.Background(), acct.ID, "")
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(usd("100.00")), "failed withdrawal must not move money")

	updated, err := engine.Withdraw(context.Background(), ledger.WithdrawRequest{
		AccountID: acct.ID,
		Amount:    usd("100.00"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Balance.IsZero())

	history, err := engine.History(context.Background(), acct.ID, "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	last := history[1]
	assert.Equal(t, models.TransactionWithdrawal, last.Type)
	assert.True(t, last.Amount.Equal(usd("-100.00")))
	assert.True(t, last.BalanceAfter.IsZero())
}

func TestWithdrawRespectsMinimumBalance(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, savingsType, "150.00")

	// 150.00 - 60.00 = 90.00 would breach the 100.00 floor.
	_, err := engine.Withdraw(context.Background(), ledger.WithdrawRequest{
		AccountID: acct.ID,
		Amount:    usd("60.00"),
	})
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	updated, err := engine.Withdraw(context.Background(), ledger.WithdrawRequest{
		AccountID: acct.ID,
		Amount:    usd("50.00"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(usd("100.00")), "withdrawing down to the floor is allowed")
}

func TestTransfer(t *testing.T) {
	engine, _ := newFixture(t)
	from := openAccount(t, engine, checkingType, "100.00")
	to := openAccount(t, engine, checkingType, "")

	res, err := engine.Transfer(context.Background(), ledger.TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        usd("40.00"),
	})
	require.NoError(t, err)
	assert.True(t, res.From.Balance.Equal(usd("60.00")))
	assert.True(t, res.To.Balance.Equal(usd("40.00")))
	assert.Equal(t, models.TransactionTransferOut, res.Debit.Type)
	assert.Equal(t, models.TransactionTransferIn, res.Credit.Type)
	assert.True(t, res.Debit.Amount.Equal(usd("-40.00")))
	assert.True(t, res.Credit.Amount.Equal(usd("40.00")))
}

func TestTransferRejections(t *testing.T) {
	engine, store := newFixture(t)
	from := openAccount(t, engine, checkingType, "100.00")
	to := openAccount(t, engine, checkingType, "")

	_, err := engine.Transfer(context.Background(), ledger.TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   from.ID,
		Amount:        usd("10.00"),
	})
	assert.ErrorIs(t, err, common.ErrSameAccount)

	_, err = engine.Transfer(context.Background(), ledger.TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        usd("500.00"),
	})
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	_, err = engine.Transfer(context.Background(), ledger.TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        money.MustParse("10.00", "EUR"),
	})
	assert.ErrorIs(t, err, common.ErrCurrencyMismatch)

	// Neither account may change after any rejection.
	current, err := store.GetAccount(context.Background(), from.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(usd("100.00")))
	current, err = store.GetAccount(context.Background(), to.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.IsZero())
}

func TestTransferAtomicOnCommitFailure(t *testing.T) {
	engine, store := newFixture(t)
	from := openAccount(t, engine, checkingType, "100.00")
	to := openAccount(t, engine, checkingType, "")

	boom := errors.New("storage down")
	store.FailNextCommit(boom)

	_, err := engine.Transfer(context.Background(), ledger.TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        usd("40.00"),
	})
	require.ErrorIs(t, err, boom)

	current, err := store.GetAccount(context.Background(), from.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(usd("100.00")))
	history, err := store.ListTransactionsByAccount(context.Background(), from.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the initial deposit may exist")
}

func TestPayBill(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "100.00")
	bill := createBill(t, engine, "50.00")

	res, err := engine.PayBill(context.Background(), ledger.PayBillRequest{
		BillID:       bill.ID,
		AccountID:    acct.ID,
		ActingUserID: userID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, res.Bill.Status)
	assert.NotNil(t, res.Bill.PaidAt)
	assert.True(t, res.Account.Balance.Equal(usd("50.00")))
	assert.Equal(t, models.TransactionBillPayment, res.Transaction.Type)
	assert.Equal(t, bill.ID, res.Transaction.BillID)
	assert.True(t, res.Transaction.Amount.Equal(usd("-50.00")))
}

// TestPayBillIdempotentRejection pays the same bill twice: the first call
// succeeds, the second fails, and the balance changes exactly once.
func TestPayBillIdempotentRejection(t *testing.T) {
	engine, store := newFixture(t)
	acct := openAccount(t, engine, checkingType, "100.00")
	bill := createBill(t, engine, "50.00")

	_, err := engine.PayBill(context.Background(), ledger.PayBillRequest{BillID: bill.ID, AccountID: acct.ID})
	require.NoError(t, err)

	_, err = engine.PayBill(context.Background(), ledger.PayBillRequest{BillID: bill.ID, AccountID: acct.ID})
	assert.ErrorIs(t, err, common.ErrBillNotPayable)

	current, err := store.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(usd("50.00")), "balance must change exactly once")
}

func TestPayBillInsufficientFunds(t *testing.T) {
	engine, store := newFixture(t)
	acct := openAccount(t, engine, checkingType, "30.00")
	bill := createBill(t, engine, "50.00")

	_, err := engine.PayBill(context.Background(), ledger.PayBillRequest{BillID: bill.ID, AccountID: acct.ID})
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	// The bill must not be marked paid when no money moved.
	current, err := store.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, current.Status)
}

// TestPayBillAtomicOnCommitFailure forces the store to fail the commit and
// verifies the all-or-nothing contract: bill untouched, balance untouched,
// no transaction recorded.
func TestPayBillAtomicOnCommitFailure(t *testing.T) {
	engine, store := newFixture(t)
	acct := openAccount(t, engine, checkingType, "100.00")
	bill := createBill(t, engine, "50.00")

	boom := errors.New("storage down")
	store.FailNextCommit(boom)

	_, err := engine.PayBill(context.Background(), ledger.PayBillRequest{BillID: bill.ID, AccountID: acct.ID})
	require.ErrorIs(t, err, boom)

	currentBill, err := store.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, currentBill.Status)

	currentAcct, err := store.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, currentAcct.Balance.Equal(usd("100.00")))

	history, err := store.ListTransactionsByAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the initial deposit may exist")
}

func TestPayBillOverdue(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "100.00")

	bill, err := engine.CreateBill(context.Background(), ledger.CreateBillRequest{
		UserID:   userID,
		Name:     "rent",
		Category: "housing",
		Amount:   usd("50.00"),
		DueDate:  time.Now().AddDate(0, 0, -3),
	})
	require.NoError(t, err)

	marked, err := engine.MarkBillsOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	res, err := engine.PayBill(context.Background(), ledger.PayBillRequest{BillID: bill.ID, AccountID: acct.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, res.Bill.Status)
}

func TestCancelBill(t *testing.T) {
	engine, _ := newFixture(t)
	bill := createBill(t, engine, "50.00")

	cancelled, err := engine.CancelBill(context.Background(), ledger.CancelBillRequest{BillID: bill.ID, ActingUserID: userID})
	require.NoError(t, err)
	assert.Equal(t, models.BillCancelled, cancelled.Status)

	// Cancelled is terminal: it can be neither paid nor re-cancelled.
	acct := openAccount(t, engine, checkingType, "100.00")
	_, err = engine.PayBill(context.Background(), ledger.PayBillRequest{BillID: bill.ID, AccountID: acct.ID})
	assert.ErrorIs(t, err, common.ErrBillNotPayable)
	_, err = engine.CancelBill(context.Background(), ledger.CancelBillRequest{BillID: bill.ID})
	assert.ErrorIs(t, err, common.ErrBillNotPayable)
}

func TestCloseAccount(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "10.00")

	_, err := engine.CloseAccount(context.Background(), ledger.CloseAccountRequest{AccountID: acct.ID})
	assert.ErrorIs(t, err, common.ErrNonZeroBalance)

	_, err = engine.Withdraw(context.Background(), ledger.WithdrawRequest{AccountID: acct.ID, Amount: usd("10.00")})
	require.NoError(t, err)

	closed, err := engine.CloseAccount(context.Background(), ledger.CloseAccountRequest{AccountID: acct.ID})
	require.NoError(t, err)
	assert.False(t, closed.Active)
	assert.NotNil(t, closed.ClosedAt)

	// Closed accounts accept no further mutating operations.
	_, err = engine.Deposit(context.Background(), ledger.DepositRequest{AccountID: acct.ID, Amount: usd("1.00")})
	assert.ErrorIs(t, err, common.ErrAccountInactive)

	// History remains readable.
	history, err := engine.History(context.Background(), acct.ID, userID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestApplyMonthlyFee(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, savingsType, "200.00")

	updated, err := engine.ApplyMonthlyFee(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(usd("195.00")))

	history, err := engine.History(context.Background(), acct.ID, "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TransactionFee, history[1].Type)
	assert.True(t, history[1].Amount.Equal(usd("-5.00")))
}

func TestApplyMonthlyFeeRespectsMinimumBalance(t *testing.T) {
	engine, store := newFixture(t)
	acct := openAccount(t, engine, savingsType, "102.00")

	_, err := engine.ApplyMonthlyFee(context.Background(), acct.ID)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	current, err := store.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(usd("102.00")), "fee must not be partially applied")
}

func TestApplyMonthlyFeeZeroIsNoOp(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "50.00")

	updated, err := engine.ApplyMonthlyFee(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(usd("50.00")))

	history, err := engine.History(context.Background(), acct.ID, "")
	require.NoError(t, err)
	assert.Len(t, history, 1, "no FEE transaction for a zero fee")
}

func TestAccrueInterest(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, savingsType, "1000.00")

	updated, err := engine.AccrueInterest(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(usd("1002.00")))

	history, err := engine.History(context.Background(), acct.ID, "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TransactionInterest, history[1].Type)
}

// TestConcurrentDeposits fires N concurrent 1.00 deposits against a fresh
// account: the final balance must be exactly N and exactly N transactions
// must exist, regardless of interleaving.
func TestConcurrentDeposits(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "")

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Deposit(context.Background(), ledger.DepositRequest{
				AccountID: acct.ID,
				Amount:    usd("1.00"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	current, err := engine.Account(context.Background(), acct.ID, "")
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(usd("50.00")), "got %s", current.Balance)

	history, err := engine.History(context.Background(), acct.ID, "")
	require.NoError(t, err)
	assert.Len(t, history, n)
}

// TestConcurrentOppositeTransfers runs transfers in both directions between
// the same two accounts. Ordered lock acquisition must prevent deadlock and
// the total across both accounts must be conserved.
func TestConcurrentOppositeTransfers(t *testing.T) {
	engine, _ := newFixture(t)
	a := openAccount(t, engine, checkingType, "100.00")
	b := openAccount(t, engine, checkingType, "100.00")

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(context.Background(), ledger.TransferRequest{
				FromAccountID: a.ID, ToAccountID: b.ID, Amount: usd("1.00"),
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(context.Background(), ledger.TransferRequest{
				FromAccountID: b.ID, ToAccountID: a.ID, Amount: usd("1.00"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	finalA, err := engine.Account(context.Background(), a.ID, "")
	require.NoError(t, err)
	finalB, err := engine.Account(context.Background(), b.ID, "")
	require.NoError(t, err)
	assert.True(t, finalA.Balance.Equal(usd("100.00")), "got %s", finalA.Balance)
	assert.True(t, finalB.Balance.Equal(usd("100.00")), "got %s", finalB.Balance)
}

// TestBalanceReconstruction replays an account's full history and checks the
// fold reproduces the live balance exactly.
func TestBalanceReconstruction(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "500.00")
	other := openAccount(t, engine, checkingType, "")
	bill := createBill(t, engine, "75.50")

	ctx := context.Background()
	_, err := engine.Deposit(ctx, ledger.DepositRequest{AccountID: acct.ID, Amount: usd("120.25")})
	require.NoError(t, err)
	_, err = engine.Withdraw(ctx, ledger.WithdrawRequest{AccountID: acct.ID, Amount: usd("60.00")})
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, ledger.TransferRequest{FromAccountID: acct.ID, ToAccountID: other.ID, Amount: usd("30.00")})
	require.NoError(t, err)
	_, err = engine.PayBill(ctx, ledger.PayBillRequest{BillID: bill.ID, AccountID: acct.ID})
	require.NoError(t, err)

	current, err := engine.Account(ctx, acct.ID, "")
	require.NoError(t, err)
	history, err := engine.History(ctx, acct.ID, "")
	require.NoError(t, err)

	replayed, err := ledger.ReplayBalance("USD", history)
	require.NoError(t, err)
	assert.True(t, replayed.Equal(current.Balance),
		"replayed %s, live balance %s", replayed, current.Balance)

	// Every record's BalanceAfter must also be consistent with the fold.
	running := money.Zero("USD")
	for _, tx := range history {
		next, err := running.Add(tx.Amount)
		require.NoError(t, err)
		running = next
		assert.True(t, tx.BalanceAfter.Equal(running),
			"transaction %s balance_after %s, fold %s", tx.ID, tx.BalanceAfter, running)
	}
}

func TestReplayBalanceRejectsMixedCurrencies(t *testing.T) {
	history := []models.Transaction{
		{ID: "t-1", Amount: usd("10.00")},
		{ID: "t-2", Amount: money.MustParse("5.00", "EUR")},
	}
	_, err := ledger.ReplayBalance("USD", history)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestOwnershipChecks(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "100.00")
	bill := createBill(t, engine, "10.00")

	_, err := engine.Account(context.Background(), acct.ID, otherUserID)
	assert.ErrorIs(t, err, common.ErrNotOwner)

	_, err = engine.Withdraw(context.Background(), ledger.WithdrawRequest{
		AccountID: acct.ID, Amount: usd("10.00"), ActingUserID: otherUserID,
	})
	assert.ErrorIs(t, err, common.ErrNotOwner)

	_, err = engine.PayBill(context.Background(), ledger.PayBillRequest{
		BillID: bill.ID, AccountID: acct.ID, ActingUserID: otherUserID,
	})
	assert.ErrorIs(t, err, common.ErrNotOwner)

	_, err = engine.Bills(context.Background(), userID, otherUserID, "")
	assert.ErrorIs(t, err, common.ErrNotOwner)
}

func TestBillsQuery(t *testing.T) {
	engine, _ := newFixture(t)
	acct := openAccount(t, engine, checkingType, "100.00")
	first := createBill(t, engine, "10.00")
	createBill(t, engine, "20.00")

	_, err := engine.PayBill(context.Background(), ledger.PayBillRequest{BillID: first.ID, AccountID: acct.ID})
	require.NoError(t, err)

	all, err := engine.Bills(context.Background(), userID, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := engine.Bills(context.Background(), userID, userID, models.BillPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	paid, err := engine.Bills(context.Background(), userID, userID, models.BillPaid)
	require.NoError(t, err)
	assert.Len(t, paid, 1)
}
