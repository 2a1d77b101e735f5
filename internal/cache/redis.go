package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// StaleChannel is the pub/sub channel stale events are relayed on.
const StaleChannel = "hisaab:stale"

// Redis is a Store backed by a Redis server.
type Redis struct {
	rdb *redis.Client
}

var _ Store = (*Redis)(nil)

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, dest)
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, b, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// versionKey holds the generation counter of key. It has no expiry: a reset
// counter could match a version read before the reset.
func versionKey(key string) string { return key + ":v" }

func (r *Redis) Version(ctx context.Context, key string) (int64, error) {
	v, err := r.rdb.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *Redis) Bump(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, versionKey(k))
		}
		return nil
	})
	return err
}

// Relay carries stale events between server instances.
type Relay interface {
	Publish(ctx context.Context, e Event) error
}

// RedisRelay publishes stale events on StaleChannel and feeds events from
// other instances into a local Signal.
type RedisRelay struct {
	rdb    *redis.Client
	origin string
}

var _ Relay = (*RedisRelay)(nil)

// NewRedisRelay creates a relay identified by origin (the instance id).
func NewRedisRelay(rdb *redis.Client, origin string) *RedisRelay {
	return &RedisRelay{rdb: rdb, origin: origin}
}

func (r *RedisRelay) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, StaleChannel, b).Err()
}

// Listen forwards remote events to signal until ctx is done.
// Events this instance published itself are skipped.
func (r *RedisRelay) Listen(ctx context.Context, signal *Signal) error {
	sub := r.rdb.Subscribe(ctx, StaleChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", StaleChannel, err)
	}
	slog.Info("Listening for stale events", "channel", StaleChannel, "origin", r.origin)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				slog.Warn("Dropping malformed stale event", "error", err)
				continue
			}
			if e.Origin == r.origin {
				continue
			}
			signal.Publish(e)
		}
	}
}
