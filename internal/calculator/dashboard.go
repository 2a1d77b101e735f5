package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisaabdost/backend/internal/models"
)

// Records are the lists of one context a dashboard is built from.
type Records struct {
	Expenses []*models.Expense
	Budgets  []*models.Budget
	Income   []*models.Income
	Goals    []*models.Goal
	Loans    []*models.Loan
	Wallet   []*models.WalletEntry
}

// Dashboard is the analytics view of one month.
type Dashboard struct {
	Month         string          `json:"month"`
	Savings       Savings         `json:"savings"`
	ByCategory    []CategoryTotal `json:"by_category"`
	Budgets       []BudgetStatus  `json:"budgets"`
	Goals         []GoalProgress  `json:"goals"`
	Loans         LoanSummary     `json:"loans"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	Alerts        []Alert         `json:"alerts"`
}

// BuildDashboard computes the dashboard of month as of now.
func BuildDashboard(r Records, month string, now time.Time) (*Dashboard, error) {
	savings, err := MonthlySavings(r.Income, r.Expenses, month)
	if err != nil {
		return nil, err
	}
	budgets, err := BudgetStatuses(r.Budgets, r.Expenses, month)
	if err != nil {
		return nil, err
	}
	loans := SummarizeLoans(r.Loans, now)

	return &Dashboard{
		Month:         month,
		Savings:       savings,
		ByCategory:    SpendingByCategory(r.Expenses, month),
		Budgets:       budgets,
		Goals:         GoalsProgress(r.Goals, now),
		Loans:         loans,
		WalletBalance: WalletBalance(r.Wallet),
		Alerts:        Alerts(budgets, loans),
	}, nil
}
