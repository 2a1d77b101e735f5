// Package session owns each signed-in user's active context: the ContextStore
// that reads it, the Switcher that changes it, and the Scoped record stores
// that read and write under it.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

// Backend is the part of storage.Store the session layer reads and writes.
type Backend interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SetActiveContext(ctx context.Context, userID string, groupID *string) error
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)
	ListGroupMemberships(ctx context.Context, groupID string) ([]*models.Membership, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

var _ Backend = (storage.Store)(nil)

// transient wraps a backend failure as retryable. Errors that already carry a
// classification keep it.
func transient(op string, err error) error {
	switch {
	case errors.Is(err, scope.ErrTransient),
		errors.Is(err, scope.ErrNotMember),
		errors.Is(err, scope.ErrUnauthenticated),
		errors.Is(err, scope.ErrScopeViolation),
		errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to %s: %w", op, err)
	default:
		return fmt.Errorf("failed to %s: %w: %w", op, scope.ErrTransient, err)
	}
}

// requireActiveMember returns ErrNotMember unless userID actively belongs to groupID.
func requireActiveMember(ctx context.Context, b Backend, groupID, userID string) error {
	m, err := b.GetMembership(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: group %s", scope.ErrNotMember, groupID)
	}
	if err != nil {
		return transient("check membership", err)
	}
	if !m.IsActive {
		return fmt.Errorf("%w: group %s", scope.ErrNotMember, groupID)
	}
	return nil
}
