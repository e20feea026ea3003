// Package finance implements the finance module: accounts, transactions,
// budgets, goals, bills, investments, loans, and a double-entry style
// ledger. All money amounts are decimals stored as strings.
package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxExpense = "expense"
	TxIncome  = "income"
)

// Account types.
const (
	AccountChecking   = "checking"
	AccountSavings    = "savings"
	AccountCredit     = "credit"
	AccountCash       = "cash"
	AccountInvestment = "investment"
)

// Account is a money account with a running balance.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Transaction is one income or expense entry. AccountID may be empty; the
// default account resolution picks the target at write time.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Budget is a per-category spending cap. Spent is derived at read time.
type Budget struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Period    string          `json:"period"`
	Spent     decimal.Decimal `json:"spent"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Goal is a savings goal.
type Goal struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	SavedAmount  decimal.Decimal `json:"savedAmount"`
	DueDate      string          `json:"dueDate"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Bill is a recurring monthly bill.
type Bill struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	DueDay    int             `json:"dueDay"`
	Category  string          `json:"category"`
	Autopay   bool            `json:"autopay"`
	Paid      bool            `json:"paid"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Investment is a held position.
type Investment struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	Units        decimal.Decimal `json:"units"`
	CostBasis    decimal.Decimal `json:"costBasis"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Loan is an outstanding loan.
type Loan struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Principal      decimal.Decimal `json:"principal"`
	Remaining      decimal.Decimal `json:"remaining"`
	Rate           decimal.Decimal `json:"rate"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// LedgerEntry is one debit/credit line.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Account     string          `json:"account"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	CreatedAt   time.Time       `json:"createdAt"`
}
