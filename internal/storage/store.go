// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
)

// ErrNotFound is returned when a row does not exist or is outside the caller's scope.
// The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUsersByIDs omits users that don't exist.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// ProfileStore persists the per-user profile holding the active context.
type ProfileStore interface {
	// EnsureProfile creates a personal-context profile if the user has none.
	EnsureProfile(ctx context.Context, userID string) error

	// GetProfile returns ErrNotFound when the user has no profile yet.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// SetActiveContext updates exactly the active context column in one statement.
	// groupID nil switches to personal. For a group, the write only happens when
	// the user is an active member; otherwise scope.ErrNotMember is returned.
	SetActiveContext(ctx context.Context, userID string, groupID *string) error
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	// CreateGroup inserts the group and an active owner membership for group.CreatedBy.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups the user actively belongs to, ordered by name.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// ListMemberships returns the user's active memberships.
	ListMemberships(ctx context.Context, userID string) ([]*models.Membership, error)

	// GetMembership returns the membership row whatever its state, or ErrNotFound.
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)

	// ListGroupMemberships returns the active memberships of a group, ordered by join time.
	ListGroupMemberships(ctx context.Context, groupID string) ([]*models.Membership, error)

	// UpsertMembership adds the user to the group or reactivates their row.
	UpsertMembership(ctx context.Context, m *models.Membership) error

	// DeactivateMembership marks the membership inactive.
	DeactivateMembership(ctx context.Context, groupID, userID string) error
}

// RecordStore stores one kind of context-scoped record. Every method takes the
// predicate of the caller's context; rows outside it are invisible.
type RecordStore[T any] interface {
	List(ctx context.Context, p scope.Predicate) ([]*T, error)
	Get(ctx context.Context, p scope.Predicate, id string) (*T, error)

	// Insert stamps the record with the predicate and assigns ID and timestamps.
	Insert(ctx context.Context, p scope.Predicate, record *T) error

	// Update overwrites the record's data fields. Scope fields are never changed.
	Update(ctx context.Context, p scope.Predicate, record *T) error

	Delete(ctx context.Context, p scope.Predicate, id string) error
}

// Store is everything the application persists.
type Store interface {
	UserStore
	ProfileStore
	GroupStore

	Expenses() RecordStore[models.Expense]
	Budgets() RecordStore[models.Budget]
	Income() RecordStore[models.Income]
	Goals() RecordStore[models.Goal]
	Loans() RecordStore[models.Loan]
	Wallet() RecordStore[models.WalletEntry]

	// Close releases any resources held by the store.
	Close() error
}
