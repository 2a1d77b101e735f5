package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisaabdost/backend/internal/models"
)

// GoalProgress is how far a savings goal has come.
type GoalProgress struct {
	GoalID    string          `json:"goal_id"`
	Title     string          `json:"title"`
	Target    decimal.Decimal `json:"target"`
	Saved     decimal.Decimal `json:"saved"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   decimal.Decimal `json:"percent"`
	Completed bool            `json:"completed"`
	// MonthsLeft counts started months until the deadline; zero without one.
	MonthsLeft int `json:"months_left"`
	// RequiredMonthly is what must be saved each month to finish on time.
	RequiredMonthly decimal.Decimal `json:"required_monthly"`
	Overdue         bool            `json:"overdue"`
}

// ProgressOf computes a goal's progress as of now.
func ProgressOf(g *models.Goal, now time.Time) GoalProgress {
	p := GoalProgress{
		GoalID: g.ID,
		Title:  g.Title,
		Target: g.TargetAmount,
		Saved:  g.SavedAmount,
	}

	p.Remaining = decimal.Max(g.TargetAmount.Sub(g.SavedAmount), decimal.Zero)
	p.Completed = !p.Remaining.IsPositive()
	if g.TargetAmount.IsPositive() {
		p.Percent = decimal.Min(g.SavedAmount.Div(g.TargetAmount).Mul(hundred), hundred).Round(2)
	} else {
		p.Percent = hundred
	}
	if p.Completed || g.Deadline == 0 {
		return p
	}

	deadline := time.Unix(g.Deadline, 0).UTC()
	now = now.UTC()
	if !deadline.After(now) {
		p.Overdue = true
		p.RequiredMonthly = p.Remaining
		return p
	}

	p.MonthsLeft = monthsBetween(now, deadline)
	p.RequiredMonthly = p.Remaining.Div(decimal.NewFromInt(int64(p.MonthsLeft))).RoundUp(2)
	return p
}

// monthsBetween counts the calendar months from from to to, at least one.
func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if to.Day() > from.Day() {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}

// GoalsProgress computes progress for every goal, in input order.
func GoalsProgress(goals []*models.Goal, now time.Time) []GoalProgress {
	out := make([]GoalProgress, len(goals))
	for i, g := range goals {
		out[i] = ProgressOf(g, now)
	}
	return out
}
