package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

// ContextStore exposes one user's active context and group list.
//
// Reads never write to the backend. The only writer is the Switcher, which
// calls commit after the profile has been persisted.
type ContextStore struct {
	userID  string
	backend Backend

	mu     sync.Mutex
	active scope.Context
	stale  bool
	// generation changes on every commit or stale mark, so a fetch that
	// started before one of those never overwrites the newer state.
	generation uint64

	groups  []*models.Group
	members map[string][]models.Member

	observers map[int]func(scope.Context)
	nextObs   int
}

// NewContextStore creates an unloaded store for userID.
func NewContextStore(userID string, backend Backend) *ContextStore {
	return &ContextStore{
		userID:    userID,
		backend:   backend,
		members:   make(map[string][]models.Member),
		observers: make(map[int]func(scope.Context)),
	}
}

// UserID is the user whose context this is.
func (s *ContextStore) UserID() string { return s.userID }

// Cached returns the last known context without fetching. It is Unloaded until
// the first successful fetch or commit.
func (s *ContextStore) Cached() scope.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ActiveContext returns the cached context, fetching the profile when the
// context is unloaded or stale. A user without a profile is in personal mode.
//
// On fetch failure the previous value is returned together with an error
// wrapping scope.ErrTransient. The previous value is Unloaded if there was none.
func (s *ContextStore) ActiveContext(ctx context.Context) (scope.Context, error) {
	s.mu.Lock()
	if s.active.IsLoaded() && !s.stale {
		c := s.active
		s.mu.Unlock()
		return c, nil
	}
	gen := s.generation
	prev := s.active
	s.mu.Unlock()

	var next scope.Context
	profile, err := s.backend.GetProfile(ctx, s.userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		next = scope.PersonalContext()
	case err != nil:
		return prev, transient("load active context", err)
	default:
		next = scope.FromActiveContextID(profile.ActiveContextID)
	}

	s.mu.Lock()
	if s.generation != gen {
		// Committed or marked stale while we were fetching.
		if s.active.IsLoaded() && !s.stale {
			next = s.active
		}
		s.mu.Unlock()
		return next, nil
	}
	changed := s.active != next
	s.active = next
	s.stale = false
	s.mu.Unlock()

	if changed {
		s.notify(next)
	}
	return next, nil
}

// Memberships returns the groups the user actively belongs to, ordered by name.
// The list is loaded once and kept until a groups stale event.
func (s *ContextStore) Memberships(ctx context.Context) ([]*models.Group, error) {
	s.mu.Lock()
	if s.groups != nil {
		groups := s.groups
		s.mu.Unlock()
		return groups, nil
	}
	gen := s.generation
	s.mu.Unlock()

	groups, err := s.backend.ListGroupsForUser(ctx, s.userID)
	if err != nil {
		return nil, transient("list memberships", err)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	if groups == nil {
		groups = []*models.Group{}
	}

	s.mu.Lock()
	if s.generation == gen {
		s.groups = groups
	}
	s.mu.Unlock()
	return groups, nil
}

// Members lists the active members of groupID joined with their user summaries.
// groupID must be the active context. Members whose user record is missing are
// kept with Known=false.
func (s *ContextStore) Members(ctx context.Context, groupID string) ([]models.Member, error) {
	active, err := s.ActiveContext(ctx)
	if err != nil {
		return nil, err
	}
	if active.Mode != scope.Group || active.GroupID != groupID {
		return nil, fmt.Errorf("%w: members of %s requested while %s is active", scope.ErrScopeViolation, groupID, active)
	}
	if err := requireActiveMember(ctx, s.backend, groupID, s.userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if cached, ok := s.members[groupID]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	gen := s.generation
	s.mu.Unlock()

	rows, err := s.backend.ListGroupMemberships(ctx, groupID)
	if err != nil {
		return nil, transient("list group members", err)
	}
	ids := make([]string, len(rows))
	for i, m := range rows {
		ids[i] = m.UserID
	}
	users, err := s.backend.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, transient("load member profiles", err)
	}
	members := JoinMembers(rows, users)

	s.mu.Lock()
	if s.generation == gen {
		s.members[groupID] = members
	}
	s.mu.Unlock()
	return members, nil
}

// JoinMembers merges membership rows with user records by user id. Every row
// is kept; rows without a user get an "unknown user" summary.
func JoinMembers(rows []*models.Membership, users map[string]*models.User) []models.Member {
	members := make([]models.Member, 0, len(rows))
	for _, m := range rows {
		member := models.Member{Membership: *m}
		if u, ok := users[m.UserID]; ok && u != nil {
			member.User = u.Summary()
			member.Known = true
		} else {
			member.User = models.UserSummary{ID: m.UserID, DisplayName: "unknown user"}
		}
		members = append(members, member)
	}
	return members
}

// Subscribe calls fn whenever the active context value changes.
func (s *ContextStore) Subscribe(fn func(scope.Context)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
		})
	}
}

func (s *ContextStore) observed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers) > 0
}

// commit records a persisted context.
func (s *ContextStore) commit(c scope.Context) {
	s.mu.Lock()
	s.generation++
	changed := s.active != c
	s.active = c
	s.stale = false
	s.members = make(map[string][]models.Member)
	s.mu.Unlock()

	if changed {
		s.notify(c)
	}
}

// invalidate handles a stale event for one of the store's collections.
func (s *ContextStore) invalidate(c cache.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	switch c {
	case cache.Profile:
		s.stale = true
	case cache.Groups:
		s.groups = nil
	case cache.Members:
		s.members = make(map[string][]models.Member)
	}
}

func (s *ContextStore) notify(c scope.Context) {
	s.mu.Lock()
	fns := make([]func(scope.Context), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
