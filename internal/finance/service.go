package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/shopspring/decimal"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements finance operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates a finance service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// ListAccounts returns accounts oldest first.
func (s *Service) ListAccounts(ctx context.Context, udb *db.UserDB) ([]Account, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, name, account_type, balance, currency, created_at
		FROM fin_accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// GetAccount returns a single account.
func (s *Service) GetAccount(ctx context.Context, udb *db.UserDB, id string) (*Account, error) {
	row := udb.DB().QueryRowContext(ctx, `
		SELECT id, name, account_type, balance, currency, created_at
		FROM fin_accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "account not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account.
func (s *Service) CreateAccount(ctx context.Context, udb *db.UserDB, name, accountType string, balance decimal.Decimal, currency string) (*Account, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidArgument, "account name is required")
	}
	if accountType == "" {
		accountType = AccountChecking
	}
	if currency == "" {
		currency = "USD"
	}
	now := s.clock.Now()
	a := Account{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      accountType,
		Balance:   balance,
		Currency:  currency,
		CreatedAt: now,
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO fin_accounts (id, name, account_type, balance, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Type, a.Balance.String(), a.Currency, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &a, nil
}

// DeleteAccount removes an account. Its transactions keep their account_id
// but no longer affect any balance.
func (s *Service) DeleteAccount(ctx context.Context, udb *db.UserDB, id string) error {
	res, err := udb.DB().ExecContext(ctx, `DELETE FROM fin_accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "account not found")
	}
	return nil
}

// ListTransactions returns transactions newest date first.
func (s *Service) ListTransactions(ctx context.Context, udb *db.UserDB) ([]Transaction, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, account_id, tx_type, amount, category, description, tx_date, created_at
		FROM fin_transactions ORDER BY tx_date DESC, created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// CreateTransaction inserts a transaction and adjusts the target account
// balance in the same SQL transaction. Expenses decrease, income increases.
// When AccountID is empty the target is the first checking account, and
// failing that the oldest account. A failed insert leaves every balance
// unchanged.
func (s *Service) CreateTransaction(ctx context.Context, udb *db.UserDB, in Transaction) (*Transaction, error) {
	if in.Type != TxExpense && in.Type != TxIncome {
		return nil, errs.New(errs.InvalidArgument, "transaction type must be expense or income")
	}
	if in.Amount.IsNegative() {
		return nil, errs.New(errs.InvalidArgument, "amount must not be negative")
	}
	if in.Date == "" {
		in.Date = s.clock.Now().UTC().Format("2006-01-02")
	}
	in.ID = uuid.NewString()
	in.CreatedAt = s.clock.Now()

	tx, err := udb.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	target, err := resolveTargetAccount(ctx, tx, in.AccountID)
	if err != nil && !errors.Is(err, errNoAccounts) {
		return nil, err
	}
	if target != nil {
		in.AccountID = target.ID
		delta := in.Amount
		if in.Type == TxExpense {
			delta = delta.Neg()
		}
		newBalance := target.Balance.Add(delta)
		if _, err := tx.ExecContext(ctx,
			`UPDATE fin_accounts SET balance = ? WHERE id = ?`,
			newBalance.String(), target.ID); err != nil {
			return nil, fmt.Errorf("adjust balance: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fin_transactions (id, account_id, tx_type, amount, category, description, tx_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.AccountID, in.Type, in.Amount.String(), in.Category,
		in.Description, in.Date, in.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &in, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect
// atomically.
func (s *Service) DeleteTransaction(ctx context.Context, udb *db.UserDB, id string) error {
	tx, err := udb.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT account_id, tx_type, amount FROM fin_transactions WHERE id = ?`, id)
	var accountID, txType, amountStr string
	if err := row.Scan(&accountID, &txType, &amountStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.New(errs.NotFound, "transaction not found")
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	if accountID != "" {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", amountStr, err)
		}
		delta := amount
		if txType == TxExpense {
			delta = delta.Neg()
		}
		// Reverse the original effect.
		var balanceStr string
		err = tx.QueryRowContext(ctx,
			`SELECT balance FROM fin_accounts WHERE id = ?`, accountID).Scan(&balanceStr)
		if err == nil {
			balance, perr := decimal.NewFromString(balanceStr)
			if perr != nil {
				return fmt.Errorf("parse balance %q: %w", balanceStr, perr)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE fin_accounts SET balance = ? WHERE id = ?`,
				balance.Sub(delta).String(), accountID); err != nil {
				return fmt.Errorf("reverse balance: %w", err)
			}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load account: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fin_transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

var errNoAccounts = errors.New("no accounts")

// resolveTargetAccount picks the account a transaction applies to: the
// named account when set, else the first checking account, else the oldest
// account. Returns errNoAccounts when none exist.
func resolveTargetAccount(ctx context.Context, tx *sql.Tx, accountID string) (*Account, error) {
	var row *sql.Row
	if accountID != "" {
		row = tx.QueryRowContext(ctx, `
			SELECT id, name, account_type, balance, currency, created_at
			FROM fin_accounts WHERE id = ?`, accountID)
		a, err := scanAccount(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.FailedPrecondition, "transaction account does not exist")
		}
		if err != nil {
			return nil, err
		}
		return &a, nil
	}

	row = tx.QueryRowContext(ctx, `
		SELECT id, name, account_type, balance, currency, created_at
		FROM fin_accounts WHERE account_type = ? ORDER BY created_at, id LIMIT 1`, AccountChecking)
	a, err := scanAccount(row)
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	row = tx.QueryRowContext(ctx, `
		SELECT id, name, account_type, balance, currency, created_at
		FROM fin_accounts ORDER BY created_at, id LIMIT 1`)
	a, err = scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNoAccounts
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccount(r interface{ Scan(...any) error }) (Account, error) {
	var a Account
	var balanceStr string
	var createdAt int64
	err := r.Scan(&a.ID, &a.Name, &a.Type, &balanceStr, &a.Currency, &createdAt)
	if err != nil {
		return Account{}, err
	}
	a.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return Account{}, fmt.Errorf("parse balance %q: %w", balanceStr, err)
	}
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return a, nil
}

func scanTransaction(r interface{ Scan(...any) error }) (Transaction, error) {
	var t Transaction
	var amountStr string
	var createdAt int64
	err := r.Scan(&t.ID, &t.AccountID, &t.Type, &amountStr, &t.Category,
		&t.Description, &t.Date, &createdAt)
	if err != nil {
		return Transaction{}, err
	}
	t.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}
