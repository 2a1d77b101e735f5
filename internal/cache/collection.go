// Package cache holds the per-user read-through caches and the stale signal
// that tells readers a cached collection must be refetched.
package cache

import "fmt"

// Collection names one cached query result.
type Collection string

const (
	Expenses Collection = "expenses"
	Budgets  Collection = "budgets"
	Income   Collection = "income"
	Wallet   Collection = "wallet"
	Goals    Collection = "goals"
	Loans    Collection = "loans"
	Profile  Collection = "profile"
	Members  Collection = "members"

	// Groups is the user's list of active memberships. It does not depend on
	// the active context and is not part of ContextScoped.
	Groups Collection = "groups"
)

var contextScoped = [...]Collection{
	Expenses,
	Budgets,
	Income,
	Wallet,
	Goals,
	Loans,
	Profile,
	Members,
}

// ContextScoped returns every collection whose contents depend on the active
// context. A context switch invalidates all of them.
func ContextScoped() []Collection {
	out := make([]Collection, len(contextScoped))
	copy(out, contextScoped[:])
	return out
}

// IsContextScoped reports whether c is in ContextScoped.
func (c Collection) IsContextScoped() bool {
	for _, s := range contextScoped {
		if s == c {
			return true
		}
	}
	return false
}

// Key is the cache key of a user's collection.
func Key(userID string, c Collection) string {
	return fmt.Sprintf("hisaab:%s:%s", userID, c)
}
