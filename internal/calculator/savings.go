package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/hisaabdost/backend/internal/models"
)

// Savings is one month's income minus its expenses.
type Savings struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Saved    decimal.Decimal `json:"saved"`
	// Rate is Saved as a percentage of Income, zero when there is no income.
	Rate decimal.Decimal `json:"rate"`
}

// MonthlySavings computes the savings of month.
func MonthlySavings(income []*models.Income, expenses []*models.Expense, month string) (Savings, error) {
	if _, err := ParseMonth(month); err != nil {
		return Savings{}, err
	}

	s := Savings{Month: month}
	for _, in := range income {
		if in.Month == month {
			s.Income = s.Income.Add(in.Amount)
		}
	}
	for _, e := range expenses {
		if MonthOf(e.SpentAt) == month {
			s.Expenses = s.Expenses.Add(e.Amount)
		}
	}
	s.Saved = s.Income.Sub(s.Expenses)
	if s.Income.IsPositive() {
		s.Rate = s.Saved.Div(s.Income).Mul(hundred).Round(2)
	}
	return s, nil
}

// WalletBalance sums deposits and withdrawals.
func WalletBalance(entries []*models.WalletEntry) decimal.Decimal {
	var total decimal.Decimal
	for _, e := range entries {
		total = total.Add(e.Signed())
	}
	return total
}
