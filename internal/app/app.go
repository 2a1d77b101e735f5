// Package app wires storage, the read-through cache and the session manager
// from a Config. The server and the admin CLI share it so a context switch
// made from either one invalidates the same caches.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/config"
	"github.com/hisaabdost/backend/internal/metrics"
	"github.com/hisaabdost/backend/internal/session"
	"github.com/hisaabdost/backend/internal/storage/sqlite"
)

// App holds the long-lived components.
type App struct {
	Config   *config.Config
	Store    *sqlite.SQLiteStore
	Sessions *session.Manager
	Metrics  *metrics.Metrics

	rdb   *redis.Client
	relay *cache.RedisRelay
}

// New opens the database and, when REDIS_ADDR is set, connects to Redis for
// the shared cache and the stale-event relay. Without Redis the cache is
// in-memory and events stay inside the process.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	a := &App{Config: cfg, Store: store, Metrics: metrics.New()}

	var lists cache.Store = cache.NewMemory()
	var relay cache.Relay
	if cfg.UseRedis() {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			a.rdb.Close()
			store.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		lists = cache.NewRedis(a.rdb)
		a.relay = cache.NewRedisRelay(a.rdb, cfg.InstanceID)
		relay = a.relay
		slog.Info("Redis cache enabled", "addr", cfg.RedisAddr, "instance_id", cfg.InstanceID)
	} else {
		slog.Info("Using in-memory cache")
	}

	inv := cache.NewInvalidator(lists, cache.NewSignal(), relay, cfg.InstanceID)
	a.Sessions = session.NewManager(store, lists, inv, session.Options{
		CacheTTL:    cfg.CacheTTL,
		SessionIdle: cfg.SessionIdle,
		Metrics:     a.Metrics,
	})
	return a, nil
}

// Listen relays stale events from other instances until ctx is done.
// It returns immediately when Redis is not configured.
func (a *App) Listen(ctx context.Context) error {
	if a.relay == nil {
		return nil
	}
	return a.relay.Listen(ctx, a.Sessions.Invalidator().Signal())
}

// Close releases the database and the Redis connection.
func (a *App) Close() error {
	a.Sessions.Close()
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			slog.Warn("Failed to close Redis client", "error", err)
		}
	}
	return a.Store.Close()
}
