package session

import (
	"context"
	"log/slog"

	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

// Scoped reads and writes one record kind under the caller's active context,
// serving lists from the read-through cache.
type Scoped[T any] struct {
	m       *Manager
	coll    cache.Collection
	records storage.RecordStore[T]
}

// NewScoped binds a record store to its cached collection.
func NewScoped[T any](m *Manager, coll cache.Collection, records storage.RecordStore[T]) *Scoped[T] {
	return &Scoped[T]{m: m, coll: coll, records: records}
}

// Collection is the cached collection this store feeds.
func (s *Scoped[T]) Collection() cache.Collection { return s.coll }

// envelope is a cached list tagged with the predicate it was read under and
// the key's version at the time of the read.
type envelope[T any] struct {
	Scope   string `json:"scope"`
	Version int64  `json:"version"`
	Items   []*T   `json:"items"`
}

// List returns the records of userID's active context.
func (s *Scoped[T]) List(ctx context.Context, userID string) ([]*T, error) {
	p, err := s.m.Filter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ListWith(ctx, p)
}

// ListWith returns the records selected by p, a predicate from Manager.Filter.
// Callers reading several collections for one response resolve p once so every
// list comes from the same context.
//
// The key's version is read before the backend. An invalidation that lands
// while the read is in flight bumps it, so the list written back is never
// served.
func (s *Scoped[T]) ListWith(ctx context.Context, p scope.Predicate) ([]*T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := cache.Key(p.UserID(), s.coll)

	version, verr := s.m.cache.Version(ctx, key)
	if verr != nil {
		slog.Warn("Cache version read failed, bypassing cache", "key", key, "error", verr)
	} else {
		var cached envelope[T]
		ok, err := s.m.cache.Get(ctx, key, &cached)
		if err != nil {
			slog.Warn("Cache read failed", "key", key, "error", err)
		}
		if ok && err == nil && cached.Scope == p.Key() && cached.Version == version {
			return cached.Items, nil
		}
	}

	items, err := s.records.List(ctx, p)
	if err != nil {
		return nil, transient("list "+string(s.coll), err)
	}
	if verr != nil {
		return items, nil
	}
	if err := s.m.cache.Set(ctx, key, envelope[T]{Scope: p.Key(), Version: version, Items: items}, s.m.ttl); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
	return items, nil
}

// Get returns one record of userID's active context.
func (s *Scoped[T]) Get(ctx context.Context, userID, id string) (*T, error) {
	p, err := s.m.Filter(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.Get(ctx, p, id)
	if err != nil {
		return nil, transient("get "+string(s.coll), err)
	}
	return rec, nil
}

// Create stamps record with userID's active context and stores it.
func (s *Scoped[T]) Create(ctx context.Context, userID string, record *T) error {
	p, err := s.m.Filter(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.records.Insert(ctx, p, record); err != nil {
		return transient("create "+string(s.coll), err)
	}
	s.invalidate(ctx, p)
	return nil
}

// Update overwrites a record of userID's active context.
func (s *Scoped[T]) Update(ctx context.Context, userID string, record *T) error {
	p, err := s.m.Filter(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.records.Update(ctx, p, record); err != nil {
		return transient("update "+string(s.coll), err)
	}
	s.invalidate(ctx, p)
	return nil
}

// Delete removes a record of userID's active context.
func (s *Scoped[T]) Delete(ctx context.Context, userID, id string) error {
	p, err := s.m.Filter(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, p, id); err != nil {
		return transient("delete "+string(s.coll), err)
	}
	s.invalidate(ctx, p)
	return nil
}

// invalidate marks the collection stale for everyone who can see p's rows.
func (s *Scoped[T]) invalidate(ctx context.Context, p scope.Predicate) {
	ctx = context.WithoutCancel(ctx)
	users, err := s.m.Audience(ctx, p)
	if err != nil {
		// The writer at least must not read its own stale list.
		slog.Warn("Failed to resolve audience, invalidating writer only", "collection", s.coll, "error", err)
		users = []string{p.UserID()}
	}
	s.m.inv.InvalidateUsers(ctx, users, s.coll)
}
