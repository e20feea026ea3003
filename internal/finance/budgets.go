package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/shopspring/decimal"
)

// ListBudgets returns budgets with their derived spend for the current
// period. Spent is never stored.
func (s *Service) ListBudgets(ctx context.Context, udb *db.UserDB) ([]Budget, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, category, amount, period, created_at
		FROM fin_budgets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []Budget{}
	for rows.Next() {
		var b Budget
		var amountStr string
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.Category, &amountStr, &b.Period, &createdAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse budget amount %q: %w", amountStr, err)
		}
		b.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	if len(out) == 0 {
		return out, nil
	}
	txs, err := s.ListTransactions(ctx, udb)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for i := range out {
		out[i].Spent = SpentForBudget(out[i], txs, now)
	}
	return out, nil
}

// SpentForBudget sums the expense transactions in the budget's current
// period that match the budget category.
func SpentForBudget(b Budget, txs []Transaction, now time.Time) decimal.Decimal {
	from, to := periodWindow(b.Period, now)
	spent := decimal.Zero
	for _, t := range txs {
		if t.Type != TxExpense {
			continue
		}
		if t.Date < from || t.Date > to {
			continue
		}
		if MatchesBudgetCategory(t.Category, b.Category) {
			spent = spent.Add(t.Amount)
		}
	}
	return spent
}

func periodWindow(period string, now time.Time) (from, to string) {
	now = now.UTC()
	const layout = "2006-01-02"
	switch period {
	case "weekly":
		// Week starts Monday.
		offset := (int(now.Weekday()) + 6) % 7
		start := now.AddDate(0, 0, -offset)
		return start.Format(layout), start.AddDate(0, 0, 6).Format(layout)
	case "yearly":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start.Format(layout), start.AddDate(1, 0, -1).Format(layout)
	default: // monthly
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format(layout), start.AddDate(0, 1, -1).Format(layout)
	}
}

// CreateBudget inserts a new budget.
func (s *Service) CreateBudget(ctx context.Context, udb *db.UserDB, category string, amount decimal.Decimal, period string) (*Budget, error) {
	if category == "" {
		return nil, errs.New(errs.InvalidArgument, "budget category is required")
	}
	if amount.IsNegative() {
		return nil, errs.New(errs.InvalidArgument, "budget amount must not be negative")
	}
	if period == "" {
		period = "monthly"
	}
	now := s.clock.Now()
	b := Budget{
		ID:        uuid.NewString(),
		Category:  category,
		Amount:    amount,
		Period:    period,
		Spent:     decimal.Zero,
		CreatedAt: now,
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO fin_budgets (id, category, amount, period, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Category, b.Amount.String(), b.Period, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	return &b, nil
}

// DeleteBudget removes a budget.
func (s *Service) DeleteBudget(ctx context.Context, udb *db.UserDB, id string) error {
	res, err := udb.DB().ExecContext(ctx, `DELETE FROM fin_budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "budget not found")
	}
	return nil
}
