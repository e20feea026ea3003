package finance

import "strings"

// legacyAliases maps short category identifiers from older data to the
// display categories budgets were created with.
var legacyAliases = map[string]string{
	"food":      "Food & Dining",
	"transport": "Transportation",
	"fun":       "Entertainment",
	"bills":     "Bills & Utilities",
}

// MatchesBudgetCategory reports whether a transaction category counts
// against a budget category. Matching is layered: exact match, then the
// legacy alias table, then case-insensitive comparison.
func MatchesBudgetCategory(txCategory, budgetCategory string) bool {
	if txCategory == budgetCategory {
		return true
	}
	if alias, ok := legacyAliases[txCategory]; ok && alias == budgetCategory {
		return true
	}
	return strings.EqualFold(txCategory, budgetCategory)
}
