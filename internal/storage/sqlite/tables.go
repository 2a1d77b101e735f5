package sqlite

import "github.com/hisaabdost/backend/internal/models"

// Amounts are decimal.Decimal, which stores as TEXT and scans back losslessly.

var expensesTable = table[models.Expense]{
	name:    "expenses",
	columns: []string{"amount", "category", "description", "spent_at"},
	scope:   func(r *models.Expense) *models.Scope { return &r.Scope },
	fields: func(r *models.Expense) []any {
		return []any{&r.Amount, &r.Category, &r.Description, &r.SpentAt}
	},
	values: func(r *models.Expense) []any {
		return []any{r.Amount, r.Category, r.Description, r.SpentAt}
	},
}

var budgetsTable = table[models.Budget]{
	name:    "budgets",
	columns: []string{"category", "limit_amount", "month"},
	scope:   func(r *models.Budget) *models.Scope { return &r.Scope },
	fields: func(r *models.Budget) []any {
		return []any{&r.Category, &r.Limit, &r.Month}
	},
	values: func(r *models.Budget) []any {
		return []any{r.Category, r.Limit, r.Month}
	},
}

var incomeTable = table[models.Income]{
	name:    "income",
	columns: []string{"month", "amount", "source"},
	scope:   func(r *models.Income) *models.Scope { return &r.Scope },
	fields: func(r *models.Income) []any {
		return []any{&r.Month, &r.Amount, &r.Source}
	},
	values: func(r *models.Income) []any {
		return []any{r.Month, r.Amount, r.Source}
	},
}

var goalsTable = table[models.Goal]{
	name:    "goals",
	columns: []string{"title", "target_amount", "saved_amount", "deadline"},
	scope:   func(r *models.Goal) *models.Scope { return &r.Scope },
	fields: func(r *models.Goal) []any {
		return []any{&r.Title, &r.TargetAmount, &r.SavedAmount, &r.Deadline}
	},
	values: func(r *models.Goal) []any {
		return []any{r.Title, r.TargetAmount, r.SavedAmount, r.Deadline}
	},
}

var loansTable = table[models.Loan]{
	name:    "loans",
	columns: []string{"counterparty", "direction", "amount", "repaid", "due_at"},
	scope:   func(r *models.Loan) *models.Scope { return &r.Scope },
	fields: func(r *models.Loan) []any {
		return []any{&r.Counterparty, (*string)(&r.Direction), &r.Amount, &r.Repaid, &r.DueAt}
	},
	values: func(r *models.Loan) []any {
		return []any{r.Counterparty, string(r.Direction), r.Amount, r.Repaid, r.DueAt}
	},
}

var walletTable = table[models.WalletEntry]{
	name:    "wallet_entries",
	columns: []string{"type", "amount", "note", "occurred_at"},
	scope:   func(r *models.WalletEntry) *models.Scope { return &r.Scope },
	fields: func(r *models.WalletEntry) []any {
		return []any{(*string)(&r.Type), &r.Amount, &r.Note, &r.OccurredAt}
	},
	values: func(r *models.WalletEntry) []any {
		return []any{string(r.Type), r.Amount, r.Note, r.OccurredAt}
	},
}
