package finance

import (
	"context"
	"testing"
	"time"

	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, name string) (*Service, *db.UserDB) {
	t.Helper()
	svc := NewService()
	svc.SetClock(fixedClock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)})
	udb, err := testdb.NewUserDBInMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { udb.DB().Close() })
	return svc, udb
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMatchesBudgetCategory(t *testing.T) {
	// Legacy aliases.
	assert.True(t, MatchesBudgetCategory("food", "Food & Dining"))
	assert.True(t, MatchesBudgetCategory("transport", "Transportation"))
	assert.True(t, MatchesBudgetCategory("fun", "Entertainment"))
	assert.True(t, MatchesBudgetCategory("bills", "Bills & Utilities"))

	// Exact and case-insensitive.
	assert.True(t, MatchesBudgetCategory("Groceries", "Groceries"))
	assert.True(t, MatchesBudgetCategory("Groceries", "groceries"))

	// Unrelated categories never match.
	assert.False(t, MatchesBudgetCategory("food", "Transportation"))
	assert.False(t, MatchesBudgetCategory("rent", "Food & Dining"))
	assert.False(t, MatchesBudgetCategory("", "Food & Dining"))
}

func TestMatchesBudgetCategoryNeverCrossesAliases(t *testing.T) {
	aliases := []string{"food", "transport", "fun", "bills"}
	targets := []string{"Food & Dining", "Transportation", "Entertainment", "Bills & Utilities"}
	rapid.Check(t, func(t *rapid.T) {
		i := rapid.IntRange(0, 3).Draw(t, "alias")
		j := rapid.IntRange(0, 3).Draw(t, "target")
		got := MatchesBudgetCategory(aliases[i], targets[j])
		assert.Equal(t, i == j, got)
	})
}

func TestExpenseAdjustsDefaultCheckingBalance(t *testing.T) {
	svc, udb := newTestService(t, "fin-expense")
	ctx := context.Background()

	// Savings created first; checking must still win as the default.
	_, err := svc.CreateAccount(ctx, udb, "Savings", AccountSavings, dec("1000"), "USD")
	require.NoError(t, err)
	checking, err := svc.CreateAccount(ctx, udb, "Checking", AccountChecking, dec("200"), "USD")
	require.NoError(t, err)

	tx, err := svc.CreateTransaction(ctx, udb, Transaction{
		Type:     TxExpense,
		Amount:   dec("50"),
		Category: "food",
		Date:     "2026-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, checking.ID, tx.AccountID)

	got, err := svc.GetAccount(ctx, udb, checking.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("150")), "expected 150, got %s", got.Balance)

	// Income flows back in.
	_, err = svc.CreateTransaction(ctx, udb, Transaction{
		Type: TxIncome, Amount: dec("25.50"), Date: "2026-03-15",
	})
	require.NoError(t, err)
	got, err = svc.GetAccount(ctx, udb, checking.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("175.50")))
}

func TestFailedTransactionLeavesBalanceUnchanged(t *testing.T) {
	svc, udb := newTestService(t, "fin-atomic")
	ctx := context.Background()

	acct, err := svc.CreateAccount(ctx, udb, "Checking", AccountChecking, dec("200"), "USD")
	require.NoError(t, err)

	// Naming an account that does not exist fails before any write lands.
	_, err = svc.CreateTransaction(ctx, udb, Transaction{
		AccountID: "missing",
		Type:      TxExpense,
		Amount:    dec("50"),
	})
	require.Error(t, err)
	assert.Equal(t, errs.FailedPrecondition, errs.CodeOf(err))

	_, err = svc.CreateTransaction(ctx, udb, Transaction{Type: "transfer", Amount: dec("50")})
	require.Error(t, err)

	got, err := svc.GetAccount(ctx, udb, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("200")), "failed creates must not move money")

	txs, err := svc.ListTransactions(ctx, udb)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestDeleteTransactionReversesBalance(t *testing.T) {
	svc, udb := newTestService(t, "fin-reverse")
	ctx := context.Background()

	acct, err := svc.CreateAccount(ctx, udb, "Checking", AccountChecking, dec("100"), "USD")
	require.NoError(t, err)

	tx, err := svc.CreateTransaction(ctx, udb, Transaction{Type: TxExpense, Amount: dec("40")})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, udb, tx.ID))

	got, err := svc.GetAccount(ctx, udb, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("100")))
}

func TestNoAccountsStillRecordsTransaction(t *testing.T) {
	svc, udb := newTestService(t, "fin-noacct")
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, udb, Transaction{Type: TxExpense, Amount: dec("10")})
	require.NoError(t, err)
	assert.Empty(t, tx.AccountID)
}

func TestBudgetSpentDerivation(t *testing.T) {
	svc, udb := newTestService(t, "fin-budget")
	ctx := context.Background()

	_, err := svc.CreateBudget(ctx, udb, "Food & Dining", dec("300"), "monthly")
	require.NoError(t, err)

	// One legacy-tagged expense, one exact, one unrelated, one outside the
	// current month.
	for _, tc := range []struct{ category, date, amount string }{
		{"food", "2026-03-02", "20"},
		{"Food & Dining", "2026-03-10", "35.25"},
		{"rent", "2026-03-10", "900"},
		{"food", "2026-02-28", "15"},
	} {
		_, err := svc.CreateTransaction(ctx, udb, Transaction{
			Type: TxExpense, Amount: dec(tc.amount), Category: tc.category, Date: tc.date,
		})
		require.NoError(t, err)
	}

	budgets, err := svc.ListBudgets(ctx, udb)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].Spent.Equal(dec("55.25")), "got %s", budgets[0].Spent)
}

func TestGoalAndBillLifecycle(t *testing.T) {
	svc, udb := newTestService(t, "fin-plan")
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, udb, Goal{Name: "Hajj fund", TargetAmount: dec("8000")})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateGoalSaved(ctx, udb, g.ID, dec("1200")))
	goals, err := svc.ListGoals(ctx, udb)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].SavedAmount.Equal(dec("1200")))

	b, err := svc.CreateBill(ctx, udb, Bill{Name: "Internet", Amount: dec("60"), DueDay: 31})
	require.NoError(t, err)
	assert.Equal(t, 28, b.DueDay, "due day clamps into every month")
	require.NoError(t, svc.SetBillPaid(ctx, udb, b.ID, true))
	bills, err := svc.ListBills(ctx, udb)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Paid)

	assert.Equal(t, errs.NotFound, errs.CodeOf(svc.DeleteBill(ctx, udb, "nope")))
}
