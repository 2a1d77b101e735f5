package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
	"github.com/hisaabdost/backend/internal/storage/sqlite"
)

// flakyBackend fails selected calls of an otherwise real backend.
type flakyBackend struct {
	Backend

	mu             sync.Mutex
	failGetProfile bool
	failSetContext bool
}

var errUnreachable = errors.New("connection reset by peer")

func (f *flakyBackend) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	fail := f.failGetProfile
	f.mu.Unlock()
	if fail {
		return nil, errUnreachable
	}
	return f.Backend.GetProfile(ctx, userID)
}

func (f *flakyBackend) SetActiveContext(ctx context.Context, userID string, groupID *string) error {
	f.mu.Lock()
	fail := f.failSetContext
	f.mu.Unlock()
	if fail {
		return errUnreachable
	}
	return f.Backend.SetActiveContext(ctx, userID, groupID)
}

type fixture struct {
	t        *testing.T
	db       *sqlite.SQLiteStore
	backend  *flakyBackend
	signal   *cache.Signal
	manager  *Manager
	expenses *Scoped[models.Expense]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backend := &flakyBackend{Backend: db}
	signal := cache.NewSignal()
	lists := cache.NewMemory()
	inv := cache.NewInvalidator(lists, signal, nil, "test")
	m := NewManager(backend, lists, inv, Options{})
	t.Cleanup(m.Close)

	return &fixture{
		t:        t,
		db:       db,
		backend:  backend,
		signal:   signal,
		manager:  m,
		expenses: NewScoped[models.Expense](m, cache.Expenses, db.Expenses()),
	}
}

func (f *fixture) user(email string) string {
	f.t.Helper()
	u := models.NewUser(email, email, "hash")
	if err := f.db.CreateUser(context.Background(), u); err != nil {
		f.t.Fatalf("CreateUser failed: %v", err)
	}
	return u.ID
}

func (f *fixture) group(name, owner string, members ...string) string {
	f.t.Helper()
	ctx := context.Background()
	g := &models.Group{Name: name, CreatedBy: owner}
	if err := f.db.CreateGroup(ctx, g); err != nil {
		f.t.Fatalf("CreateGroup failed: %v", err)
	}
	for _, m := range members {
		if err := f.db.UpsertMembership(ctx, &models.Membership{GroupID: g.ID, UserID: m, Role: models.RoleMember}); err != nil {
			f.t.Fatalf("UpsertMembership failed: %v", err)
		}
	}
	return g.ID
}

func (f *fixture) addExpense(userID, category string) *models.Expense {
	f.t.Helper()
	e := &models.Expense{Amount: decimal.NewFromInt(10), Category: category}
	if err := f.expenses.Create(context.Background(), userID, e); err != nil {
		f.t.Fatalf("Create expense failed: %v", err)
	}
	return e
}

func (f *fixture) listExpenses(userID string) []*models.Expense {
	f.t.Helper()
	list, err := f.expenses.List(context.Background(), userID)
	if err != nil {
		f.t.Fatalf("List expenses failed: %v", err)
	}
	return list
}

// recordStale counts stale events per collection for userID.
func (f *fixture) recordStale(userID string) func() map[cache.Collection]int {
	var mu sync.Mutex
	counts := map[cache.Collection]int{}
	for _, c := range append(cache.ContextScoped(), cache.Groups) {
		cancel := f.signal.Subscribe(c, func(e cache.Event) {
			if e.UserID != userID {
				return
			}
			mu.Lock()
			counts[e.Collection]++
			mu.Unlock()
		})
		f.t.Cleanup(cancel)
	}
	return func() map[cache.Collection]int {
		mu.Lock()
		defer mu.Unlock()
		out := make(map[cache.Collection]int, len(counts))
		for k, v := range counts {
			out[k] = v
		}
		return out
	}
}

func TestSwitchToGroup_ListsOnlyGroupRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)

	f.addExpense(alice, "personal")
	sess := f.manager.Session(alice)
	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}
	shared := f.addExpense(alice, "shared")

	list := f.listExpenses(alice)
	if len(list) != 1 || list[0].ID != shared.ID {
		t.Fatalf("Expected only the group expense, got %d rows", len(list))
	}
	for _, e := range list {
		if e.GroupID != g1 || e.OwnerUserID != "" {
			t.Errorf("Expense %s is not scoped to %s: %+v", e.ID, g1, e.Scope)
		}
	}
}

func TestSwitchToPersonal_ListsOnlyPersonalRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)
	sess := f.manager.Session(alice)

	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}
	f.addExpense(alice, "shared")
	if err := sess.Switcher.SwitchToPersonal(ctx); err != nil {
		t.Fatalf("SwitchToPersonal failed: %v", err)
	}
	own := f.addExpense(alice, "personal")

	list := f.listExpenses(alice)
	if len(list) != 1 || list[0].ID != own.ID {
		t.Fatalf("Expected only the personal expense, got %d rows", len(list))
	}
	if list[0].OwnerUserID != alice || list[0].GroupID != "" {
		t.Errorf("Personal expense scoped wrong: %+v", list[0].Scope)
	}
}

func TestSwitch_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)
	stale := f.recordStale(alice)
	sess := f.manager.Session(alice)

	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("first switch failed: %v", err)
	}
	f.addExpense(alice, "shared")
	first := f.listExpenses(alice)

	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("second switch failed: %v", err)
	}
	second := f.listExpenses(alice)

	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Errorf("Lists differ after repeated switch: %d vs %d rows", len(first), len(second))
	}
	active, _ := sess.Store.ActiveContext(ctx)
	if active != scope.GroupContext(g1) {
		t.Errorf("Expected %s, got %s", scope.GroupContext(g1), active)
	}

	counts := stale()
	for _, c := range cache.ContextScoped() {
		// Two switches, plus one expenses event from the write in between.
		want := 2
		if c == cache.Expenses {
			want = 3
		}
		if counts[c] != want {
			t.Errorf("%s: expected %d stale events, got %d", c, want, counts[c])
		}
	}
}

func TestSwitchToGroup_NonMemberFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	bob := f.user("bob@example.com")
	g1 := f.group("G1", alice)
	stale := f.recordStale(bob)
	sess := f.manager.Session(bob)

	before, err := sess.Store.ActiveContext(ctx)
	if err != nil {
		t.Fatalf("ActiveContext failed: %v", err)
	}

	err = sess.Switcher.SwitchToGroup(ctx, g1)
	if !errors.Is(err, scope.ErrNotMember) {
		t.Fatalf("Expected ErrNotMember, got %v", err)
	}

	after, _ := sess.Store.ActiveContext(ctx)
	if after != before {
		t.Errorf("Context changed from %s to %s", before, after)
	}
	profile, _ := f.db.GetProfile(ctx, bob)
	if profile.ActiveContextID != nil {
		t.Errorf("Profile persisted %q", *profile.ActiveContextID)
	}
	if n := len(stale()); n != 0 {
		t.Errorf("Expected no invalidation, got %v", stale())
	}
}

func TestSwitch_InvalidatesEveryContextScopedCollection(t *testing.T) {
	for _, coll := range cache.ContextScoped() {
		t.Run(string(coll), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			alice := f.user("alice@example.com")
			g1 := f.group("G1", alice)
			sess := f.manager.Session(alice)

			var got []cache.Event
			cancel := f.signal.Subscribe(coll, func(e cache.Event) { got = append(got, e) })
			defer cancel()

			if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
				t.Fatalf("SwitchToGroup failed: %v", err)
			}
			if len(got) != 1 || got[0].UserID != alice {
				t.Fatalf("Expected one stale event for %s after SwitchToGroup, got %v", coll, got)
			}

			if err := sess.Switcher.SwitchToPersonal(ctx); err != nil {
				t.Fatalf("SwitchToPersonal failed: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Expected a second stale event for %s after SwitchToPersonal, got %d", coll, len(got))
			}
		})
	}
}

func TestSwitch_DropsCachedLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)
	sess := f.manager.Session(alice)

	f.addExpense(alice, "personal")
	if n := len(f.listExpenses(alice)); n != 1 {
		t.Fatalf("Expected 1 personal expense, got %d", n)
	}
	var cached envelope[models.Expense]
	if ok, _ := f.manager.cache.Get(ctx, cache.Key(alice, cache.Expenses), &cached); !ok {
		t.Fatal("Expected the list to be cached")
	}

	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}
	if ok, _ := f.manager.cache.Get(ctx, cache.Key(alice, cache.Expenses), &cached); ok {
		t.Error("Expected the cached list to be dropped by the switch")
	}
	if n := len(f.listExpenses(alice)); n != 0 {
		t.Errorf("Expected no group expenses, got %d", n)
	}
}

func TestScenario_PersonalThenGroupThenPersonal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user("a@example.com")
	g1 := f.group("G1", a)
	sess := f.manager.Session(a)

	originals := map[string]bool{}
	for _, cat := range []string{"food", "fuel", "rent"} {
		e := f.addExpense(a, cat)
		if e.OwnerUserID != a || e.GroupID != "" {
			t.Fatalf("Personal expense scoped wrong: %+v", e.Scope)
		}
		originals[e.ID] = true
	}

	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}
	if n := len(f.listExpenses(a)); n != 0 {
		t.Fatalf("Expected 0 expenses in G1, got %d", n)
	}

	shared := f.addExpense(a, "groceries")
	if shared.GroupID != g1 || shared.OwnerUserID != "" {
		t.Fatalf("Group expense scoped wrong: %+v", shared.Scope)
	}

	if err := sess.Switcher.SwitchToPersonal(ctx); err != nil {
		t.Fatalf("SwitchToPersonal failed: %v", err)
	}
	list := f.listExpenses(a)
	if len(list) != 3 {
		t.Fatalf("Expected the original 3 expenses, got %d", len(list))
	}
	for _, e := range list {
		if !originals[e.ID] {
			t.Errorf("Unexpected expense %s in personal list", e.ID)
		}
	}
}

func TestScenario_RemovedMemberFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user("owner@example.com")
	b := f.user("b@example.com")
	g2 := f.group("G2", owner, b)
	sess := f.manager.Session(b)

	if err := sess.Switcher.SwitchToGroup(ctx, g2); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}
	f.addExpense(b, "shared")
	if n := len(f.listExpenses(b)); n != 1 {
		t.Fatalf("Expected 1 group expense, got %d", n)
	}

	// Removed in another session; the device still has G2 active and cached.
	if err := f.db.DeactivateMembership(ctx, g2, b); err != nil {
		t.Fatalf("DeactivateMembership failed: %v", err)
	}

	list, err := f.expenses.List(ctx, b)
	if !errors.Is(err, scope.ErrNotMember) {
		t.Fatalf("Expected ErrNotMember, got %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no rows, got %d", len(list))
	}

	active, _ := sess.Store.ActiveContext(ctx)
	if active.IsPersonal() {
		t.Error("Context must not fall back to personal")
	}
	if err := f.expenses.Create(ctx, b, &models.Expense{Amount: decimal.NewFromInt(1), Category: "x"}); !errors.Is(err, scope.ErrNotMember) {
		t.Errorf("Expected write to fail with ErrNotMember, got %v", err)
	}
}

func TestSwitch_ConcurrentSwitchesEndInOneTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)

	// A second device: its own manager over the same database.
	lists := cache.NewMemory()
	device2 := NewManager(f.backend, lists, cache.NewInvalidator(lists, cache.NewSignal(), nil, "device2"), Options{})
	defer device2.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := f.manager.Session(alice).Switcher.SwitchToGroup(ctx, g1); err != nil {
				t.Errorf("SwitchToGroup failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := device2.Session(alice).Switcher.SwitchToPersonal(ctx); err != nil {
				t.Errorf("SwitchToPersonal failed: %v", err)
			}
		}()
	}
	wg.Wait()

	profile, err := f.db.GetProfile(ctx, alice)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	final := scope.FromActiveContextID(profile.ActiveContextID)
	if final != scope.GroupContext(g1) && final != scope.PersonalContext() {
		t.Fatalf("Unexpected final context %s", final)
	}

	// Both devices reconcile with the stored value once told the profile is stale.
	for _, m := range []*Manager{f.manager, device2} {
		m.Session(alice).Store.invalidate(cache.Profile)
		got, err := m.Session(alice).Store.ActiveContext(ctx)
		if err != nil {
			t.Fatalf("ActiveContext failed: %v", err)
		}
		if got != final {
			t.Errorf("Device sees %s, stored %s", got, final)
		}
	}
}

func TestSwitch_PersistFailureChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)
	stale := f.recordStale(alice)
	sess := f.manager.Session(alice)

	if _, err := sess.Store.ActiveContext(ctx); err != nil {
		t.Fatalf("ActiveContext failed: %v", err)
	}
	f.backend.mu.Lock()
	f.backend.failSetContext = true
	f.backend.mu.Unlock()

	err := sess.Switcher.SwitchToGroup(ctx, g1)
	if !errors.Is(err, scope.ErrTransient) {
		t.Fatalf("Expected ErrTransient, got %v", err)
	}
	if got := sess.Store.Cached(); got != scope.PersonalContext() {
		t.Errorf("Expected personal context to remain, got %s", got)
	}
	if n := len(stale()); n != 0 {
		t.Errorf("Expected no invalidation after failed persist, got %v", stale())
	}
}

func TestActiveContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)

	t.Run("starts unloaded and loads personal", func(t *testing.T) {
		store := NewContextStore(alice, f.backend)
		if store.Cached().IsLoaded() {
			t.Fatal("Expected unloaded context before first fetch")
		}
		got, err := store.ActiveContext(ctx)
		if err != nil {
			t.Fatalf("ActiveContext failed: %v", err)
		}
		if got != scope.PersonalContext() {
			t.Errorf("Expected personal, got %s", got)
		}
	})

	t.Run("missing profile is personal", func(t *testing.T) {
		store := NewContextStore("no-such-user", f.backend)
		got, err := store.ActiveContext(ctx)
		if err != nil {
			t.Fatalf("ActiveContext failed: %v", err)
		}
		if got != scope.PersonalContext() {
			t.Errorf("Expected personal, got %s", got)
		}
	})

	t.Run("fetch failure keeps previous value", func(t *testing.T) {
		store := NewContextStore(alice, f.backend)
		if err := f.db.SetActiveContext(ctx, alice, &g1); err != nil {
			t.Fatalf("SetActiveContext failed: %v", err)
		}
		if _, err := store.ActiveContext(ctx); err != nil {
			t.Fatalf("ActiveContext failed: %v", err)
		}

		f.backend.mu.Lock()
		f.backend.failGetProfile = true
		f.backend.mu.Unlock()
		defer func() {
			f.backend.mu.Lock()
			f.backend.failGetProfile = false
			f.backend.mu.Unlock()
		}()

		store.invalidate(cache.Profile)
		got, err := store.ActiveContext(ctx)
		if !errors.Is(err, scope.ErrTransient) {
			t.Fatalf("Expected ErrTransient, got %v", err)
		}
		if got != scope.GroupContext(g1) {
			t.Errorf("Expected previous value %s, got %s", scope.GroupContext(g1), got)
		}
	})

	t.Run("fetch failure before first load is unloaded", func(t *testing.T) {
		f.backend.mu.Lock()
		f.backend.failGetProfile = true
		f.backend.mu.Unlock()
		defer func() {
			f.backend.mu.Lock()
			f.backend.failGetProfile = false
			f.backend.mu.Unlock()
		}()

		store := NewContextStore(alice, f.backend)
		got, err := store.ActiveContext(ctx)
		if !errors.Is(err, scope.ErrTransient) {
			t.Fatalf("Expected ErrTransient, got %v", err)
		}
		if got.IsLoaded() {
			t.Errorf("Expected unloaded, got %s", got)
		}
	})
}

func TestContextStore_Subscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)
	sess := f.manager.Session(alice)

	var seen []scope.Context
	cancel := sess.Store.Subscribe(func(c scope.Context) { seen = append(seen, c) })

	if _, err := sess.Store.ActiveContext(ctx); err != nil {
		t.Fatalf("ActiveContext failed: %v", err)
	}
	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}
	// Same value again: no notification.
	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}
	cancel()
	if err := sess.Switcher.SwitchToPersonal(ctx); err != nil {
		t.Fatalf("SwitchToPersonal failed: %v", err)
	}

	want := []scope.Context{scope.PersonalContext(), scope.GroupContext(g1)}
	if len(seen) != len(want) {
		t.Fatalf("Expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}

func TestMemberships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	f.group("Zeta", alice)
	f.group("Alpha", alice)
	sess := f.manager.Session(alice)

	groups, err := sess.Store.Memberships(ctx)
	if err != nil {
		t.Fatalf("Memberships failed: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "Alpha" {
		t.Fatalf("Expected [Alpha Zeta], got %d groups", len(groups))
	}

	f.group("Beta", alice)
	groups, _ = sess.Store.Memberships(ctx)
	if len(groups) != 2 {
		t.Errorf("Expected cached list of 2, got %d", len(groups))
	}

	f.manager.Invalidator().Invalidate(ctx, alice, cache.Groups)
	groups, _ = sess.Store.Memberships(ctx)
	if len(groups) != 3 || groups[1].Name != "Beta" {
		t.Errorf("Expected refreshed list [Alpha Beta Zeta], got %d groups", len(groups))
	}
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	bob := f.user("bob@example.com")
	g1 := f.group("G1", alice, bob)
	other := f.group("Other", alice)
	sess := f.manager.Session(alice)

	t.Run("requires the group to be active", func(t *testing.T) {
		_, err := sess.Store.Members(ctx, g1)
		if !errors.Is(err, scope.ErrScopeViolation) {
			t.Errorf("Expected ErrScopeViolation, got %v", err)
		}
	})

	if err := sess.Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}

	t.Run("joins users", func(t *testing.T) {
		members, err := sess.Store.Members(ctx, g1)
		if err != nil {
			t.Fatalf("Members failed: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("Expected 2 members, got %d", len(members))
		}
		for _, m := range members {
			if !m.Known || m.User.ID != m.Membership.UserID || m.User.Email == "" {
				t.Errorf("Member not joined: %+v", m)
			}
		}
	})

	t.Run("other group is rejected", func(t *testing.T) {
		_, err := sess.Store.Members(ctx, other)
		if !errors.Is(err, scope.ErrScopeViolation) {
			t.Errorf("Expected ErrScopeViolation, got %v", err)
		}
	})
}

func TestJoinMembers_KeepsUnknownUsers(t *testing.T) {
	rows := []*models.Membership{
		{GroupID: "g", UserID: "u1", Role: models.RoleOwner, IsActive: true},
		{GroupID: "g", UserID: "ghost", Role: models.RoleMember, IsActive: true},
	}
	users := map[string]*models.User{
		"u1": {ID: "u1", Email: "u1@example.com", DisplayName: "Uzma"},
	}

	members := JoinMembers(rows, users)
	if len(members) != 2 {
		t.Fatalf("Expected both rows kept, got %d", len(members))
	}
	if !members[0].Known || members[0].User.DisplayName != "Uzma" {
		t.Errorf("Expected known member, got %+v", members[0])
	}
	if members[1].Known || members[1].User.ID != "ghost" || members[1].User.DisplayName != "unknown user" {
		t.Errorf("Expected unknown member placeholder, got %+v", members[1])
	}
	if members[1].Membership.Role != models.RoleMember {
		t.Errorf("Membership row altered: %+v", members[1].Membership)
	}
}

func TestScoped_GroupWriteInvalidatesAllMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	bob := f.user("bob@example.com")
	g1 := f.group("G1", alice, bob)

	for _, u := range []string{alice, bob} {
		if err := f.manager.Session(u).Switcher.SwitchToGroup(ctx, g1); err != nil {
			t.Fatalf("SwitchToGroup failed: %v", err)
		}
	}
	if n := len(f.listExpenses(bob)); n != 0 {
		t.Fatalf("Expected empty group list, got %d", n)
	}

	f.addExpense(alice, "shared")
	if n := len(f.listExpenses(bob)); n != 1 {
		t.Errorf("Expected bob to see alice's group expense, got %d", n)
	}
}

// pausingExpenses holds List after its backend read until resume is closed.
type pausingExpenses struct {
	storage.RecordStore[models.Expense]
	read   chan struct{}
	resume chan struct{}
}

func (p *pausingExpenses) List(ctx context.Context, pred scope.Predicate) ([]*models.Expense, error) {
	items, err := p.RecordStore.List(ctx, pred)
	close(p.read)
	<-p.resume
	return items, err
}

func TestScoped_InvalidationDuringReadIsNotOverwritten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	bob := f.user("bob@example.com")
	g1 := f.group("G1", alice, bob)

	for _, u := range []string{alice, bob} {
		if err := f.manager.Session(u).Switcher.SwitchToGroup(ctx, g1); err != nil {
			t.Fatalf("SwitchToGroup failed: %v", err)
		}
	}

	slow := &pausingExpenses{
		RecordStore: f.db.Expenses(),
		read:        make(chan struct{}),
		resume:      make(chan struct{}),
	}
	bobReader := NewScoped[models.Expense](f.manager, cache.Expenses, slow)

	done := make(chan []*models.Expense, 1)
	go func() {
		list, err := bobReader.List(ctx, bob)
		if err != nil {
			t.Errorf("List failed: %v", err)
		}
		done <- list
	}()

	<-slow.read
	f.addExpense(alice, "shared")
	close(slow.resume)

	if n := len(<-done); n != 0 {
		t.Fatalf("Expected the in-flight read to predate the write, got %d", n)
	}
	if n := len(f.listExpenses(bob)); n != 1 {
		t.Errorf("Expected the write to be visible after invalidation, got %d", n)
	}
}

func TestScoped_ListWithKeepsOnePredicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user("alice@example.com")
	g1 := f.group("G1", alice)

	f.addExpense(alice, "mine")
	p, err := f.manager.Filter(ctx, alice)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if err := f.manager.Session(alice).Switcher.SwitchToGroup(ctx, g1); err != nil {
		t.Fatalf("SwitchToGroup failed: %v", err)
	}

	list, err := f.expenses.ListWith(ctx, p)
	if err != nil {
		t.Fatalf("ListWith failed: %v", err)
	}
	if len(list) != 1 || list[0].Category != "mine" {
		t.Errorf("Expected the personal list resolved before the switch, got %+v", list)
	}
	if n := len(f.listExpenses(alice)); n != 0 {
		t.Errorf("Expected an empty group list after the switch, got %d", n)
	}

	if _, err := f.expenses.ListWith(ctx, scope.Predicate{}); !errors.Is(err, scope.ErrScopeViolation) {
		t.Errorf("Expected ErrScopeViolation for the zero predicate, got %v", err)
	}
}

func TestManager_DropsIdleSessions(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	lists := cache.NewMemory()
	m := NewManager(db, lists, cache.NewInvalidator(lists, cache.NewSignal(), nil, "test"), Options{SessionIdle: time.Minute})
	t.Cleanup(m.Close)

	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	alice := m.Session("alice")
	m.Session("bob")
	watched := m.Session("carol")
	cancel := watched.Store.Subscribe(func(scope.Context) {})
	defer cancel()

	now = now.Add(50 * time.Second)
	if m.Session("alice") != alice {
		t.Fatal("Expected the active session to be reused")
	}

	now = now.Add(40 * time.Second)
	m.Session("dave")
	if n := m.Len(); n != 3 {
		t.Fatalf("Expected bob's idle session to be dropped, got %d sessions", n)
	}

	now = now.Add(2 * time.Minute)
	m.Session("dave")
	if n := m.Len(); n != 2 {
		t.Errorf("Expected only dave and the observed session, got %d sessions", n)
	}
	if m.Session("alice") == alice {
		t.Error("Expected a fresh session after eviction")
	}
}

func TestManager_ZeroIdleKeepsSessions(t *testing.T) {
	f := newFixture(t)
	f.manager.Session("alice")
	f.manager.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	f.manager.Session("bob")
	if n := f.manager.Len(); n != 2 {
		t.Errorf("Expected both sessions kept, got %d", n)
	}
}
