package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/metrics"
	"github.com/hisaabdost/backend/internal/scope"
)

// Switcher changes one user's active context.
//
// A switch persists the profile, commits the new value to the ContextStore and
// only then marks every context-scoped collection stale. If persisting fails,
// nothing local changes. Switches through one Switcher run one at a time.
type Switcher struct {
	store   *ContextStore
	backend Backend
	inv     *cache.Invalidator
	metrics *metrics.Metrics

	mu sync.Mutex
}

// NewSwitcher creates the switcher for store's user. m may be nil.
func NewSwitcher(store *ContextStore, backend Backend, inv *cache.Invalidator, m *metrics.Metrics) *Switcher {
	return &Switcher{store: store, backend: backend, inv: inv, metrics: m}
}

// SwitchToGroup makes groupID the active context. The caller must be an active
// member; otherwise scope.ErrNotMember is returned and nothing changes.
func (w *Switcher) SwitchToGroup(ctx context.Context, groupID string) error {
	if groupID == "" {
		return fmt.Errorf("%w: empty group id", scope.ErrNotMember)
	}
	err := w.switchTo(ctx, scope.GroupContext(groupID))
	w.metrics.ContextSwitch(scope.Group.String(), err)
	return err
}

// SwitchToPersonal makes the user's personal space the active context.
func (w *Switcher) SwitchToPersonal(ctx context.Context) error {
	err := w.switchTo(ctx, scope.PersonalContext())
	w.metrics.ContextSwitch(scope.Personal.String(), err)
	return err
}

func (w *Switcher) switchTo(ctx context.Context, target scope.Context) error {
	userID := w.store.UserID()
	if userID == "" {
		return scope.ErrUnauthenticated
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if target.Mode == scope.Group {
		// Advisory; SetActiveContext checks membership again in the same statement.
		if err := requireActiveMember(ctx, w.backend, target.GroupID, userID); err != nil {
			slog.Warn("Context switch rejected", "user_id", userID, "target", target.String(), "error", err)
			return err
		}
	}

	if err := w.backend.SetActiveContext(ctx, userID, target.ActiveContextID()); err != nil {
		slog.Error("Failed to persist active context", "user_id", userID, "target", target.String(), "error", err)
		return transient("persist active context", err)
	}

	w.store.commit(target)
	// The profile is already written; finish invalidating even if the caller goes away.
	w.inv.InvalidateContext(context.WithoutCancel(ctx), userID)

	slog.Info("Active context switched", "user_id", userID, "context", target.String())
	return nil
}
