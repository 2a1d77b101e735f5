package models

import "github.com/shopspring/decimal"

// Scope is embedded in every context-scoped record.
type Scope struct {
	ID string `json:"id"`

	// OwnerUserID is set on personal records only.
	OwnerUserID string `json:"owner_user_id,omitempty"`

	// GroupID is set on group records only.
	GroupID string `json:"group_id,omitempty"`

	// CreatedBy is the user who created the record.
	CreatedBy string `json:"created_by"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// RecordScope returns the embedded scope so generic code can stamp and check it.
func (s *Scope) RecordScope() *Scope { return s }

// IsPersonal reports whether the record belongs to a personal context.
func (s Scope) IsPersonal() bool { return s.OwnerUserID != "" && s.GroupID == "" }

// IsStamped reports whether exactly one owner is set.
func (s Scope) IsStamped() bool {
	return (s.OwnerUserID == "") != (s.GroupID == "")
}

// Expense is a single spend, entered manually or from a receipt.
type Expense struct {
	Scope
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	// SpentAt is the Unix timestamp of the purchase.
	SpentAt int64 `json:"spent_at"`
}

// Budget is a spending limit for one category in one month.
type Budget struct {
	Scope
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	// Month is formatted as "2006-01".
	Month string `json:"month"`
}

// Income is the income recorded for one month.
type Income struct {
	Scope
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Source string          `json:"source"`
}

// Goal is a savings goal.
type Goal struct {
	Scope
	Title        string          `json:"title"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	// Deadline is a Unix timestamp, zero when the goal has none.
	Deadline int64 `json:"deadline"`
}

// LoanDirection says who owes whom.
type LoanDirection string

const (
	// LoanLent is money given to the counterparty.
	LoanLent LoanDirection = "lent"
	// LoanBorrowed is money taken from the counterparty.
	LoanBorrowed LoanDirection = "borrowed"
)

// Loan tracks money lent to or borrowed from someone outside the app.
type Loan struct {
	Scope
	Counterparty string          `json:"counterparty"`
	Direction    LoanDirection   `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	Repaid       decimal.Decimal `json:"repaid"`
	// DueAt is a Unix timestamp, zero when open-ended.
	DueAt int64 `json:"due_at"`
}

// Outstanding is the part of the loan not yet repaid, never negative.
func (l Loan) Outstanding() decimal.Decimal {
	out := l.Amount.Sub(l.Repaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// WalletEntryType is the direction of a wallet movement.
type WalletEntryType string

const (
	WalletDeposit    WalletEntryType = "deposit"
	WalletWithdrawal WalletEntryType = "withdrawal"
)

// WalletEntry is a cash movement in or out of the wallet.
type WalletEntry struct {
	Scope
	Type       WalletEntryType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	OccurredAt int64           `json:"occurred_at"`
}

// Signed returns the amount with withdrawals negated.
func (w WalletEntry) Signed() decimal.Decimal {
	if w.Type == WalletWithdrawal {
		return w.Amount.Neg()
	}
	return w.Amount
}
