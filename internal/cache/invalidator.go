package cache

import (
	"context"
	"log/slog"
)

// Invalidator marks cached collections stale: it drops the cached values,
// notifies local subscribers and relays the event to other instances.
type Invalidator struct {
	store  Store
	signal *Signal
	relay  Relay
	origin string

	// OnInvalidate is called once per invalidated collection. Optional.
	OnInvalidate func(Collection)
}

// NewInvalidator creates an invalidator. relay may be nil.
func NewInvalidator(store Store, signal *Signal, relay Relay, origin string) *Invalidator {
	return &Invalidator{store: store, signal: signal, relay: relay, origin: origin}
}

// Signal returns the local signal events are published on.
func (inv *Invalidator) Signal() *Signal { return inv.signal }

// Invalidate marks the given collections of userID stale.
//
// Cache and relay failures are logged and do not fail the call: cache entries
// record the context they were built for, so a surviving entry is never served
// under a different context.
func (inv *Invalidator) Invalidate(ctx context.Context, userID string, colls ...Collection) {
	if len(colls) == 0 {
		return
	}

	keys := make([]string, len(colls))
	for i, c := range colls {
		keys[i] = Key(userID, c)
	}
	// Bumping first turns away lists read before this call and written back after it.
	if err := inv.store.Bump(ctx, keys...); err != nil {
		slog.Warn("Failed to bump cached collection versions", "user_id", userID, "error", err)
	}
	if err := inv.store.Delete(ctx, keys...); err != nil {
		slog.Warn("Failed to drop cached collections", "user_id", userID, "error", err)
	}

	for _, c := range colls {
		e := Event{UserID: userID, Collection: c, Origin: inv.origin}
		inv.signal.Publish(e)
		if inv.relay != nil {
			if err := inv.relay.Publish(ctx, e); err != nil {
				slog.Warn("Failed to relay stale event", "user_id", userID, "collection", c, "error", err)
			}
		}
		if inv.OnInvalidate != nil {
			inv.OnInvalidate(c)
		}
	}
}

// InvalidateContext marks every context-scoped collection of userID stale.
func (inv *Invalidator) InvalidateContext(ctx context.Context, userID string) {
	inv.Invalidate(ctx, userID, ContextScoped()...)
}

// InvalidateUsers marks the given collections stale for each user.
func (inv *Invalidator) InvalidateUsers(ctx context.Context, userIDs []string, colls ...Collection) {
	for _, id := range userIDs {
		inv.Invalidate(ctx, id, colls...)
	}
}
