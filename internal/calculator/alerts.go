package calculator

import (
	"fmt"

	"github.com/hisaabdost/backend/internal/models"
)

// AlertKind names what triggered an alert.
type AlertKind string

const (
	AlertBudgetWarning  AlertKind = "budget_warning"
	AlertBudgetExceeded AlertKind = "budget_exceeded"
	AlertLoanOverdue    AlertKind = "loan_overdue"
)

// Alert is a notification trigger. Delivery is someone else's job.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	RefID   string    `json:"ref_id"`
	Message string    `json:"message"`
}

// Alerts derives alerts from budget levels and overdue loans.
func Alerts(budgets []BudgetStatus, loans LoanSummary) []Alert {
	alerts := []Alert{}
	for _, b := range budgets {
		switch b.Level {
		case LevelExceeded:
			alerts = append(alerts, Alert{
				Kind:    AlertBudgetExceeded,
				RefID:   b.BudgetID,
				Message: fmt.Sprintf("%s budget exceeded: %s of %s spent", b.Category, b.Spent.StringFixed(2), b.Limit.StringFixed(2)),
			})
		case LevelWarning:
			alerts = append(alerts, Alert{
				Kind:    AlertBudgetWarning,
				RefID:   b.BudgetID,
				Message: fmt.Sprintf("%s budget at %s%%", b.Category, b.PercentUsed.StringFixed(0)),
			})
		}
	}
	for _, l := range loans.Overdue {
		verb := "owes you"
		if l.Direction == models.LoanBorrowed {
			verb = "is owed"
		}
		alerts = append(alerts, Alert{
			Kind:    AlertLoanOverdue,
			RefID:   l.LoanID,
			Message: fmt.Sprintf("%s %s %s (overdue)", l.Counterparty, verb, l.Outstanding.StringFixed(2)),
		})
	}
	return alerts
}
