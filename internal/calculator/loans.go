package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisaabdost/backend/internal/models"
)

// LoanSummary totals outstanding loans by direction.
type LoanSummary struct {
	Lent     decimal.Decimal `json:"lent"`
	Borrowed decimal.Decimal `json:"borrowed"`
	// Net is positive when others owe more than is owed to them.
	Net     decimal.Decimal `json:"net"`
	Overdue []OverdueLoan   `json:"overdue"`
}

// OverdueLoan is an unpaid loan past its due date.
type OverdueLoan struct {
	LoanID       string               `json:"loan_id"`
	Counterparty string               `json:"counterparty"`
	Direction    models.LoanDirection `json:"direction"`
	Outstanding  decimal.Decimal      `json:"outstanding"`
	DueAt        int64                `json:"due_at"`
}

// SummarizeLoans totals outstanding amounts and lists overdue loans as of now.
func SummarizeLoans(loans []*models.Loan, now time.Time) LoanSummary {
	s := LoanSummary{Overdue: []OverdueLoan{}}
	for _, l := range loans {
		out := l.Outstanding()
		if !out.IsPositive() {
			continue
		}
		switch l.Direction {
		case models.LoanLent:
			s.Lent = s.Lent.Add(out)
		case models.LoanBorrowed:
			s.Borrowed = s.Borrowed.Add(out)
		}
		if l.DueAt != 0 && l.DueAt < now.Unix() {
			s.Overdue = append(s.Overdue, OverdueLoan{
				LoanID:       l.ID,
				Counterparty: l.Counterparty,
				Direction:    l.Direction,
				Outstanding:  out,
				DueAt:        l.DueAt,
			})
		}
	}
	s.Net = s.Lent.Sub(s.Borrowed)
	return s
}
