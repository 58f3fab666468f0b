// Package postgres provides the production implementation of the ledger
// store on PostgreSQL. Each ChangeSet is applied inside one database
// transaction; account and bill updates carry optimistic version checks so a
// lost update surfaces as a concurrency conflict instead of silently
// overwriting.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bankledger/internal/common"
	"bankledger/internal/interfaces"
	"bankledger/internal/models"
	"bankledger/internal/money"
)

const uniqueViolation = "23505"

// PostgresLedgerStore implements interfaces.LedgerStore on PostgreSQL.
type PostgresLedgerStore struct {
	db *sql.DB
}

// NewPostgresLedgerStore wraps an open database handle.
func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*PostgresLedgerStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return NewPostgresLedgerStore(db), nil
}

// Close closes the underlying database handle.
func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

// EnsureSchema creates the ledger tables if they do not exist.
func (p *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		first_name  TEXT NOT NULL,
		last_name   TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		role        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS account_types (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL UNIQUE,
		description     TEXT NOT NULL DEFAULT '',
		minimum_balance NUMERIC(19,2) NOT NULL,
		interest_rate   NUMERIC(9,6) NOT NULL,
		monthly_fee     NUMERIC(19,2) NOT NULL,
		currency        CHAR(3) NOT NULL
	);
	CREATE TABLE IF NOT EXISTS accounts (
		id              TEXT PRIMARY KEY,
		account_number  TEXT NOT NULL UNIQUE,
		user_id         TEXT NOT NULL REFERENCES users(id),
		account_type_id TEXT NOT NULL REFERENCES account_types(id),
		balance         NUMERIC(19,2) NOT NULL,
		currency        CHAR(3) NOT NULL,
		active          BOOLEAN NOT NULL,
		opened_at       TIMESTAMPTZ NOT NULL,
		closed_at       TIMESTAMPTZ,
		version         BIGINT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS bills (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		name       TEXT NOT NULL,
		category   TEXT NOT NULL,
		amount     NUMERIC(19,2) NOT NULL,
		currency   CHAR(3) NOT NULL,
		due_date   TIMESTAMPTZ NOT NULL,
		status     TEXT NOT NULL,
		account_id TEXT,
		paid_at    TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		version    BIGINT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS transactions (
		id            TEXT PRIMARY KEY,
		account_id    TEXT NOT NULL REFERENCES accounts(id),
		type          TEXT NOT NULL,
		amount        NUMERIC(19,2) NOT NULL,
		currency      CHAR(3) NOT NULL,
		balance_after NUMERIC(19,2) NOT NULL,
		bill_id       TEXT,
		description   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_bills_user ON bills(user_id, status);`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const accountColumns = `id, account_number, user_id, account_type_id, balance, currency, active, opened_at, closed_at, version`

func scanAccount(row *sql.Row) (*models.Account, error) {
	var acct models.Account
	var balance decimal.Decimal
	var closedAt sql.NullTime
	err := row.Scan(&acct.ID, &acct.AccountNumber, &acct.UserID, &acct.AccountTypeID,
		&balance, &acct.Currency, &acct.Active, &acct.OpenedAt, &closedAt, &acct.Version)
	if err != nil {
		return nil, err
	}
	acct.Balance = money.Money{Amount: balance, Currency: acct.Currency}
	if closedAt.Valid {
		t := closedAt.Time
		acct.ClosedAt = &t
	}
	return &acct, nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	acct, err := scanAccount(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (p *PostgresLedgerStore) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	acct, err := scanAccount(p.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: number %s", common.ErrAccountNotFound, number)
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (p *PostgresLedgerStore) GetAccountType(ctx context.Context, id string) (*models.AccountType, error) {
	const query = `SELECT id, name, description, minimum_balance, interest_rate, monthly_fee, currency
	FROM account_types WHERE id = $1`

	var accountType models.AccountType
	var minBalance, monthlyFee decimal.Decimal
	var currency string
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&accountType.ID, &accountType.Name, &accountType.Description,
		&minBalance, &accountType.InterestRate, &monthlyFee, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountTypeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	accountType.MinimumBalance = money.Money{Amount: minBalance, Currency: currency}
	accountType.MonthlyFee = money.Money{Amount: monthlyFee, Currency: currency}
	return &accountType, nil
}

func (p *PostgresLedgerStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, first_name, last_name, email, role, created_at FROM users WHERE id = $1`

	var user models.User
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

const billColumns = `id, user_id, name, category, amount, currency, due_date, status, account_id, paid_at, created_at, version`

func scanBill(scan func(dest ...any) error) (*models.Bill, error) {
	var bill models.Bill
	var amount decimal.Decimal
	var currency string
	var accountID sql.NullString
	var paidAt sql.NullTime
	err := scan(&bill.ID, &bill.UserID, &bill.Name, &bill.Category, &amount, &currency,
		&bill.DueDate, &bill.Status, &accountID, &paidAt, &bill.CreatedAt, &bill.Version)
	if err != nil {
		return nil, err
	}
	bill.Amount = money.Money{Amount: amount, Currency: currency}
	if accountID.Valid {
		bill.AccountID = accountID.String
	}
	if paidAt.Valid {
		t := paidAt.Time
		bill.PaidAt = &t
	}
	return &bill, nil
}

func (p *PostgresLedgerStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	bill, err := scanBill(p.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrBillNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (p *PostgresLedgerStore) listBills(ctx context.Context, query string, args ...any) ([]models.Bill, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		bill, err := scanBill(rows.Scan)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *bill)
	}
	return bills, rows.Err()
}

func (p *PostgresLedgerStore) ListBillsByUser(ctx context.Context, userID string, status models.BillStatus) ([]models.Bill, error) {
	if status == "" {
		return p.listBills(ctx,
			`SELECT `+billColumns+` FROM bills WHERE user_id = $1 ORDER BY due_date`, userID)
	}
	return p.listBills(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = $1 AND status = $2 ORDER BY due_date`,
		userID, string(status))
}

func (p *PostgresLedgerStore) ListPendingBillsDueBefore(ctx context.Context, t time.Time) ([]models.Bill, error) {
	return p.listBills(ctx,
		`SELECT `+billColumns+` FROM bills WHERE status = $1 AND due_date < $2 ORDER BY due_date`,
		string(models.BillPending), t)
}

func (p *PostgresLedgerStore) ListTransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	const query = `SELECT id, account_id, type, amount, currency, balance_after, bill_id, description, created_at
	FROM transactions WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := p.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var amount, balanceAfter decimal.Decimal
		var currency string
		var billID sql.NullString
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Type, &amount, &currency,
			&balanceAfter, &billID, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Amount = money.Money{Amount: amount, Currency: currency}
		tx.BalanceAfter = money.Money{Amount: balanceAfter, Currency: currency}
		if billID.Valid {
			tx.BillID = billID.String
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Commit applies the ChangeSet inside one database transaction.
func (p *PostgresLedgerStore) Commit(ctx context.Context, change interfaces.ChangeSet) error {
	if change.Empty() {
		return nil
	}
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	for _, acct := range change.CreateAccounts {
		if err = p.insertAccount(ctx, dbTx, acct); err != nil {
			return err
		}
	}
	for _, acct := range change.SaveAccounts {
		if err = p.updateAccount(ctx, dbTx, acct); err != nil {
			return err
		}
	}
	for _, bill := range change.CreateBills {
		if err = p.insertBill(ctx, dbTx, bill); err != nil {
			return err
		}
	}
	if change.SaveBill != nil {
		if err = p.updateBill(ctx, dbTx, *change.SaveBill); err != nil {
			return err
		}
	}
	for _, tx := range change.Transactions {
		if err = p.insertTransaction(ctx, dbTx, tx); err != nil {
			return err
		}
	}
	err = dbTx.Commit()
	return err
}

func (p *PostgresLedgerStore) insertAccount(ctx context.Context, dbTx *sql.Tx, acct models.Account) error {
	const query = `INSERT INTO accounts (` + accountColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err := dbTx.ExecContext(ctx, query, acct.ID, acct.AccountNumber, acct.UserID,
		acct.AccountTypeID, acct.Balance.Amount, acct.Currency, acct.Active,
		acct.OpenedAt, acct.ClosedAt, acct.Version)
	return translateUnique(err, "account "+acct.ID)
}

func (p *PostgresLedgerStore) updateAccount(ctx context.Context, dbTx *sql.Tx, acct models.Account) error {
	const query = `UPDATE accounts
	SET balance = $1, active = $2, closed_at = $3, version = $4
	WHERE id = $5 AND version = $6`

	res, err := dbTx.ExecContext(ctx, query, acct.Balance.Amount, acct.Active,
		acct.ClosedAt, acct.Version, acct.ID, acct.Version-1)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: account %s", common.ErrConcurrencyConflict, acct.ID)
	}
	return nil
}

func (p *PostgresLedgerStore) insertBill(ctx context.Context, dbTx *sql.Tx, bill models.Bill) error {
	const query = `INSERT INTO bills (` + billColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := dbTx.ExecContext(ctx, query, bill.ID, bill.UserID, bill.Name, bill.Category,
		bill.Amount.Amount, bill.Amount.Currency, bill.DueDate, string(bill.Status),
		nullString(bill.AccountID), bill.PaidAt, bill.CreatedAt, bill.Version)
	return translateUnique(err, "bill "+bill.ID)
}

func (p *PostgresLedgerStore) updateBill(ctx context.Context, dbTx *sql.Tx, bill models.Bill) error {
	const query = `UPDATE bills
	SET status = $1, account_id = $2, paid_at = $3, version = $4
	WHERE id = $5 AND version = $6`

	res, err := dbTx.ExecContext(ctx, query, string(bill.Status), nullString(bill.AccountID),
		bill.PaidAt, bill.Version, bill.ID, bill.Version-1)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: bill %s", common.ErrConcurrencyConflict, bill.ID)
	}
	return nil
}

func (p *PostgresLedgerStore) insertTransaction(ctx context.Context, dbTx *sql.Tx, tx models.Transaction) error {
	const query = `INSERT INTO transactions (id, account_id, type, amount, currency, balance_after, bill_id, description, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err := dbTx.ExecContext(ctx, query, tx.ID, tx.AccountID, string(tx.Type),
		tx.Amount.Amount, tx.Amount.Currency, tx.BalanceAfter.Amount,
		nullString(tx.BillID), tx.Description, tx.CreatedAt)
	return translateUnique(err, "transaction "+tx.ID)
}

func translateUnique(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrDuplicateEntry, what)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
