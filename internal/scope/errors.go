package scope

import "errors"

var (
	// ErrUnauthenticated means there is no valid user session.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotMember means the user is not an active member of the group.
	ErrNotMember = errors.New("not an active member of this group")

	// ErrTransient marks failures worth retrying (connectivity, busy database).
	ErrTransient = errors.New("temporarily unavailable")

	// ErrScopeViolation is a programming error: a read or write without a valid
	// scope, or with a scope that does not match the active context.
	ErrScopeViolation = errors.New("scope violation")
)
