// Package models defines the core domain models for Hisaab Dost.
//
// # Ownership
//
// Every financial record (expense, budget, monthly income, goal, loan, wallet entry)
// embeds a Scope. A Scope belongs to exactly one context:
//   - Personal: OwnerUserID is set and GroupID is empty
//   - Group: GroupID is set and OwnerUserID is empty
//
// CreatedBy is kept for attribution on both kinds of records but never decides visibility.
//
// # Identifiers
//
// IDs are UUID strings generated by the storage layer. Relationships use ID strings
// rather than pointers, and timestamps are Unix seconds.
//
// # Money
//
// Amounts use decimal.Decimal so that sums and thresholds never pick up float noise.
package models
