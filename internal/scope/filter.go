package scope

import (
	"fmt"

	"github.com/hisaabdost/backend/internal/models"
)

// Predicate selects exactly the rows of one context, as seen by one user.
//
// Personal: owner_user_id = user AND group_id IS NULL.
// Group:    group_id = G, and the user must be an active member of G.
//
// Predicates are only built by Filter or, for administrative tooling, Impersonate.
type Predicate struct {
	userID  string
	groupID string
	admin   bool
}

// Filter builds the predicate for the given active context.
func Filter(c Context, userID string) (Predicate, error) {
	if userID == "" {
		return Predicate{}, ErrUnauthenticated
	}
	switch c.Mode {
	case Personal:
		return Predicate{userID: userID}, nil
	case Group:
		if c.GroupID == "" {
			return Predicate{}, fmt.Errorf("%w: group context without group id", ErrScopeViolation)
		}
		return Predicate{userID: userID, groupID: c.GroupID}, nil
	default:
		return Predicate{}, fmt.Errorf("%w: context not loaded", ErrScopeViolation)
	}
}

// Impersonate builds a predicate acting as userID on either the user's personal
// space (groupID empty) or groupID. It exists for migration and seeding tools,
// which stamp records for other users; request handlers must use Filter.
func Impersonate(userID, groupID string) (Predicate, error) {
	if userID == "" {
		return Predicate{}, fmt.Errorf("%w: impersonation without user", ErrScopeViolation)
	}
	return Predicate{userID: userID, groupID: groupID, admin: true}, nil
}

// UserID is the viewing (or acting) user.
func (p Predicate) UserID() string { return p.userID }

// GroupID is the group of a group predicate, empty for personal ones.
func (p Predicate) GroupID() string { return p.groupID }

func (p Predicate) IsPersonal() bool { return p.groupID == "" }

// IsAdmin reports whether the predicate came from Impersonate.
func (p Predicate) IsAdmin() bool { return p.admin }

// Context returns the context the predicate selects.
func (p Predicate) Context() Context {
	if p.IsPersonal() {
		return PersonalContext()
	}
	return GroupContext(p.groupID)
}

// Key identifies the selected rows for cache entries.
func (p Predicate) Key() string {
	if p.IsPersonal() {
		return "personal:" + p.userID
	}
	return "group:" + p.groupID
}

// Validate rejects the zero Predicate, which would otherwise select nothing
// or, worse, be rendered without a user.
func (p Predicate) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("%w: empty predicate", ErrScopeViolation)
	}
	return nil
}

// Matches reports whether the record belongs to the predicate's context.
// Membership is not checked here; storage checks it.
func (p Predicate) Matches(s models.Scope) bool {
	if !s.IsStamped() {
		return false
	}
	if p.IsPersonal() {
		return s.OwnerUserID == p.userID && s.GroupID == ""
	}
	return s.GroupID == p.groupID && s.OwnerUserID == ""
}

// Check returns ErrScopeViolation unless the record matches the predicate.
func (p Predicate) Check(s models.Scope) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.Matches(s) {
		return fmt.Errorf("%w: record %q is outside %s", ErrScopeViolation, s.ID, p.Context())
	}
	return nil
}

// Stamp writes the predicate's identity fields onto a new record.
// A record that already carries a different context is rejected.
func (p Predicate) Stamp(s *models.Scope) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if s.OwnerUserID != "" || s.GroupID != "" {
		if !p.Matches(*s) {
			return fmt.Errorf("%w: record stamped for another context", ErrScopeViolation)
		}
	}
	if p.IsPersonal() {
		s.OwnerUserID = p.userID
		s.GroupID = ""
	} else {
		s.OwnerUserID = ""
		s.GroupID = p.groupID
	}
	if s.CreatedBy == "" || !p.admin {
		s.CreatedBy = p.userID
	}
	return nil
}
