package calculator

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hisaabdost/backend/internal/models"
)

// BudgetLevel is how close spending is to a budget's limit.
type BudgetLevel string

const (
	LevelOK       BudgetLevel = "ok"
	LevelWarning  BudgetLevel = "warning"
	LevelExceeded BudgetLevel = "exceeded"
)

var (
	// WarningPercent is where a budget turns to warning.
	WarningPercent = decimal.NewFromInt(80)
	// ExceededPercent is where a budget turns to exceeded.
	ExceededPercent = decimal.NewFromInt(100)

	hundred = decimal.NewFromInt(100)
)

// BudgetStatus is spending against one budget for its month.
type BudgetStatus struct {
	BudgetID    string          `json:"budget_id"`
	Category    string          `json:"category"`
	Month       string          `json:"month"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed decimal.Decimal `json:"percent_used"`
	Level       BudgetLevel     `json:"level"`
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

func categoryKey(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// SpendingByCategory sums the month's expenses per category, largest first.
func SpendingByCategory(expenses []*models.Expense, month string) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	var order []string
	for _, e := range expenses {
		if MonthOf(e.SpentAt) != month {
			continue
		}
		key := categoryKey(e.Category)
		t, ok := totals[key]
		if !ok {
			t = &CategoryTotal{Category: strings.TrimSpace(e.Category)}
			totals[key] = t
			order = append(order, key)
		}
		t.Total = t.Total.Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, key := range order {
		out = append(out, *totals[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out
}

// Level classifies a percentage of a budget used.
func Level(percent decimal.Decimal) BudgetLevel {
	switch {
	case percent.GreaterThanOrEqual(ExceededPercent):
		return LevelExceeded
	case percent.GreaterThanOrEqual(WarningPercent):
		return LevelWarning
	default:
		return LevelOK
	}
}

// BudgetStatuses computes the status of every budget set for month.
// Categories are matched case-insensitively. A zero limit with any spending is
// reported as 100% used.
func BudgetStatuses(budgets []*models.Budget, expenses []*models.Expense, month string) ([]BudgetStatus, error) {
	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}

	spent := make(map[string]decimal.Decimal)
	for _, t := range SpendingByCategory(expenses, month) {
		spent[categoryKey(t.Category)] = t.Total
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		s := spent[categoryKey(b.Category)]

		var percent decimal.Decimal
		switch {
		case b.Limit.IsPositive():
			percent = s.Div(b.Limit).Mul(hundred).Round(2)
		case s.IsPositive():
			percent = hundred
		}

		statuses = append(statuses, BudgetStatus{
			BudgetID:    b.ID,
			Category:    b.Category,
			Month:       month,
			Limit:       b.Limit,
			Spent:       s,
			Remaining:   b.Limit.Sub(s),
			PercentUsed: percent,
			Level:       Level(percent),
		})
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].PercentUsed.GreaterThan(statuses[j].PercentUsed)
	})
	return statuses, nil
}
