package finance

// Goals, bills, investments, loans, and the ledger are plain CRUD with no
// derived state beyond what the types carry.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/shopspring/decimal"
)

// ListGoals returns savings goals oldest first.
func (s *Service) ListGoals(ctx context.Context, udb *db.UserDB) ([]Goal, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, name, target_amount, saved_amount, due_date, created_at
		FROM fin_goals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []Goal{}
	for rows.Next() {
		var g Goal
		var target, saved string
		var createdAt int64
		if err := rows.Scan(&g.ID, &g.Name, &target, &saved, &g.DueDate, &createdAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("parse target %q: %w", target, err)
		}
		if g.SavedAmount, err = decimal.NewFromString(saved); err != nil {
			return nil, fmt.Errorf("parse saved %q: %w", saved, err)
		}
		g.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateGoal inserts a new savings goal.
func (s *Service) CreateGoal(ctx context.Context, udb *db.UserDB, in Goal) (*Goal, error) {
	if in.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "goal name is required")
	}
	in.ID = uuid.NewString()
	in.CreatedAt = s.clock.Now()
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO fin_goals (id, name, target_amount, saved_amount, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.TargetAmount.String(), in.SavedAmount.String(),
		in.DueDate, in.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &in, nil
}

// UpdateGoalSaved sets the saved amount on a goal.
func (s *Service) UpdateGoalSaved(ctx context.Context, udb *db.UserDB, id string, saved decimal.Decimal) error {
	res, err := udb.DB().ExecContext(ctx,
		`UPDATE fin_goals SET saved_amount = ? WHERE id = ?`, saved.String(), id)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "goal not found")
	}
	return nil
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, udb *db.UserDB, id string) error {
	return deleteByID(ctx, udb, "fin_goals", "goal", id)
}

// ListBills returns bills ordered by due day.
func (s *Service) ListBills(ctx context.Context, udb *db.UserDB) ([]Bill, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, name, amount, due_day, category, autopay, paid, created_at
		FROM fin_bills ORDER BY due_day, id`)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	out := []Bill{}
	for rows.Next() {
		var b Bill
		var amount string
		var autopay, paid int
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.Name, &amount, &b.DueDay, &b.Category, &autopay, &paid, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse bill amount %q: %w", amount, err)
		}
		b.Autopay = autopay != 0
		b.Paid = paid != 0
		b.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBill inserts a new bill. DueDay is clamped to [1, 28] so every
// month has the day.
func (s *Service) CreateBill(ctx context.Context, udb *db.UserDB, in Bill) (*Bill, error) {
	if in.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "bill name is required")
	}
	if in.DueDay < 1 {
		in.DueDay = 1
	}
	if in.DueDay > 28 {
		in.DueDay = 28
	}
	in.ID = uuid.NewString()
	in.CreatedAt = s.clock.Now()
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO fin_bills (id, name, amount, due_day, category, autopay, paid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Amount.String(), in.DueDay, in.Category,
		boolToInt(in.Autopay), boolToInt(in.Paid), in.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	return &in, nil
}

// SetBillPaid toggles a bill's paid flag.
func (s *Service) SetBillPaid(ctx context.Context, udb *db.UserDB, id string, paid bool) error {
	res, err := udb.DB().ExecContext(ctx,
		`UPDATE fin_bills SET paid = ? WHERE id = ?`, boolToInt(paid), id)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "bill not found")
	}
	return nil
}

// DeleteBill removes a bill.
func (s *Service) DeleteBill(ctx context.Context, udb *db.UserDB, id string) error {
	return deleteByID(ctx, udb, "fin_bills", "bill", id)
}

// ListInvestments returns held positions oldest first.
func (s *Service) ListInvestments(ctx context.Context, udb *db.UserDB) ([]Investment, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, name, symbol, units, cost_basis, current_value, created_at
		FROM fin_investments ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	out := []Investment{}
	for rows.Next() {
		var v Investment
		var units, basis, value string
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.Name, &v.Symbol, &units, &basis, &value, &createdAt); err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		if v.Units, err = decimal.NewFromString(units); err != nil {
			return nil, fmt.Errorf("parse units %q: %w", units, err)
		}
		if v.CostBasis, err = decimal.NewFromString(basis); err != nil {
			return nil, fmt.Errorf("parse cost basis %q: %w", basis, err)
		}
		if v.CurrentValue, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("parse current value %q: %w", value, err)
		}
		v.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateInvestment inserts a new position.
func (s *Service) CreateInvestment(ctx context.Context, udb *db.UserDB, in Investment) (*Investment, error) {
	if in.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "investment name is required")
	}
	in.ID = uuid.NewString()
	in.CreatedAt = s.clock.Now()
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO fin_investments (id, name, symbol, units, cost_basis, current_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Symbol, in.Units.String(), in.CostBasis.String(),
		in.CurrentValue.String(), in.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("create investment: %w", err)
	}
	return &in, nil
}

// DeleteInvestment removes a position.
func (s *Service) DeleteInvestment(ctx context.Context, udb *db.UserDB, id string) error {
	return deleteByID(ctx, udb, "fin_investments", "investment", id)
}

// ListLoans returns loans oldest first.
func (s *Service) ListLoans(ctx context.Context, udb *db.UserDB) ([]Loan, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, name, principal, remaining, rate, monthly_payment, created_at
		FROM fin_loans ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	out := []Loan{}
	for rows.Next() {
		var l Loan
		var principal, remaining, rate, payment string
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.Name, &principal, &remaining, &rate, &payment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		if l.Principal, err = decimal.NewFromString(principal); err != nil {
			return nil, fmt.Errorf("parse principal %q: %w", principal, err)
		}
		if l.Remaining, err = decimal.NewFromString(remaining); err != nil {
			return nil, fmt.Errorf("parse remaining %q: %w", remaining, err)
		}
		if l.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("parse rate %q: %w", rate, err)
		}
		if l.MonthlyPayment, err = decimal.NewFromString(payment); err != nil {
			return nil, fmt.Errorf("parse payment %q: %w", payment, err)
		}
		l.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateLoan inserts a new loan. Remaining defaults to the principal.
func (s *Service) CreateLoan(ctx context.Context, udb *db.UserDB, in Loan) (*Loan, error) {
	if in.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "loan name is required")
	}
	if in.Remaining.IsZero() {
		in.Remaining = in.Principal
	}
	in.ID = uuid.NewString()
	in.CreatedAt = s.clock.Now()
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO fin_loans (id, name, principal, remaining, rate, monthly_payment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Principal.String(), in.Remaining.String(),
		in.Rate.String(), in.MonthlyPayment.String(), in.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return &in, nil
}

// DeleteLoan removes a loan.
func (s *Service) DeleteLoan(ctx context.Context, udb *db.UserDB, id string) error {
	return deleteByID(ctx, udb, "fin_loans", "loan", id)
}

// ListLedger returns ledger entries in date order.
func (s *Service) ListLedger(ctx context.Context, udb *db.UserDB) ([]LedgerEntry, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, entry_date, account, description, debit, credit, created_at
		FROM fin_ledger ORDER BY entry_date, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	out := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		var debit, credit string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Date, &e.Account, &e.Description, &debit, &credit, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if e.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("parse debit %q: %w", debit, err)
		}
		if e.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("parse credit %q: %w", credit, err)
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateLedgerEntry inserts a ledger line.
func (s *Service) CreateLedgerEntry(ctx context.Context, udb *db.UserDB, in LedgerEntry) (*LedgerEntry, error) {
	if in.Date == "" {
		in.Date = s.clock.Now().UTC().Format("2006-01-02")
	}
	in.ID = uuid.NewString()
	in.CreatedAt = s.clock.Now()
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO fin_ledger (id, entry_date, account, description, debit, credit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Date, in.Account, in.Description, in.Debit.String(),
		in.Credit.String(), in.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	return &in, nil
}

// DeleteLedgerEntry removes a ledger line.
func (s *Service) DeleteLedgerEntry(ctx context.Context, udb *db.UserDB, id string) error {
	return deleteByID(ctx, udb, "fin_ledger", "ledger entry", id)
}

func deleteByID(ctx context.Context, udb *db.UserDB, table, noun, id string) error {
	res, err := udb.DB().ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", noun, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, noun+" not found")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
