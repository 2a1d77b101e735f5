package session

import (
	"context"
	"sync"
	"time"

	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/metrics"
	"github.com/hisaabdost/backend/internal/scope"
)

// Session is one user's ContextStore and Switcher.
type Session struct {
	Store    *ContextStore
	Switcher *Switcher

	lastUsed time.Time
}

// Manager keeps a Session per user and routes stale events to them.
type Manager struct {
	backend Backend
	cache   cache.Store
	inv     *cache.Invalidator
	metrics *metrics.Metrics
	ttl     time.Duration
	idle    time.Duration
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	lastSweep time.Time
	cancels   []func()
}

// Options configures a Manager. Zero values are usable.
type Options struct {
	// CacheTTL bounds how long a cached collection is served. Zero means no expiry.
	CacheTTL time.Duration
	// SessionIdle is how long an unused session is kept. Zero keeps sessions
	// for the life of the manager.
	SessionIdle time.Duration
	Metrics     *metrics.Metrics
}

// NewManager creates a manager over backend, caching record lists in store and
// publishing stale events through inv.
func NewManager(backend Backend, store cache.Store, inv *cache.Invalidator, opts Options) *Manager {
	m := &Manager{
		backend:  backend,
		cache:    store,
		inv:      inv,
		metrics:  opts.Metrics,
		ttl:      opts.CacheTTL,
		idle:     opts.SessionIdle,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	if opts.Metrics != nil && inv.OnInvalidate == nil {
		inv.OnInvalidate = func(c cache.Collection) { opts.Metrics.Invalidated(string(c)) }
	}
	for _, c := range []cache.Collection{cache.Profile, cache.Groups, cache.Members} {
		m.cancels = append(m.cancels, inv.Signal().Subscribe(c, m.route))
	}
	return m
}

// Close stops routing stale events.
func (m *Manager) Close() {
	for _, cancel := range m.cancels {
		cancel()
	}
}

// Invalidator returns the invalidator used for stale events.
func (m *Manager) Invalidator() *cache.Invalidator { return m.inv }

// Session returns userID's session, creating it on first use.
func (m *Manager) Session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	if s, ok := m.sessions[userID]; ok {
		s.lastUsed = now
		return s
	}
	store := NewContextStore(userID, m.backend)
	s := &Session{
		Store:    store,
		Switcher: NewSwitcher(store, m.backend, m.inv, m.metrics),
		lastUsed: now,
	}
	m.sessions[userID] = s
	return s
}

// sweep drops sessions unused for longer than m.idle, at most once per half
// idle period. Sessions with observers are kept. A dropped user's next call
// starts a fresh session that reloads the profile. Callers hold m.mu.
func (m *Manager) sweep(now time.Time) {
	if m.idle <= 0 || now.Sub(m.lastSweep) < m.idle/2 {
		return
	}
	m.lastSweep = now
	for id, s := range m.sessions {
		if now.Sub(s.lastUsed) > m.idle && !s.Store.observed() {
			delete(m.sessions, id)
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Filter returns the predicate for userID's active context. For a group
// context the user's membership is checked against the backend first, so a
// removed member gets scope.ErrNotMember rather than the group's data.
func (m *Manager) Filter(ctx context.Context, userID string) (scope.Predicate, error) {
	if userID == "" {
		return scope.Predicate{}, scope.ErrUnauthenticated
	}
	active, err := m.Session(userID).Store.ActiveContext(ctx)
	if err != nil {
		return scope.Predicate{}, err
	}
	p, err := scope.Filter(active, userID)
	if err != nil {
		return scope.Predicate{}, err
	}
	if !p.IsPersonal() {
		if err := requireActiveMember(ctx, m.backend, p.GroupID(), userID); err != nil {
			return scope.Predicate{}, err
		}
	}
	return p, nil
}

// Audience returns the users who can see records selected by p.
func (m *Manager) Audience(ctx context.Context, p scope.Predicate) ([]string, error) {
	if p.IsPersonal() {
		return []string{p.UserID()}, nil
	}
	rows, err := m.backend.ListGroupMemberships(ctx, p.GroupID())
	if err != nil {
		return nil, transient("list group members", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

func (m *Manager) route(e cache.Event) {
	m.mu.Lock()
	s, ok := m.sessions[e.UserID]
	m.mu.Unlock()
	if ok {
		s.Store.invalidate(e.Collection)
	}
}
