package cache

import (
	"context"
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to REDIS_TEST_ADDR or skips the test.
func newTestRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisStore(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	store := NewRedis(newTestRedis(t))

	key := Key("redis-test", Expenses)
	c.Cleanup(func() { store.Delete(ctx, key) })

	c.Assert(store.Set(ctx, key, map[string]int{"n": 3}, time.Minute), qt.IsNil)
	var out map[string]int
	ok, err := store.Get(ctx, key, &out)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(out["n"], qt.Equals, 3)

	c.Assert(store.Delete(ctx, key), qt.IsNil)
	ok, err = store.Get(ctx, key, &out)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestRedisVersion(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rdb := newTestRedis(t)
	store := NewRedis(rdb)

	key := Key("redis-version-test", Expenses)
	c.Cleanup(func() { rdb.Del(ctx, versionKey(key)) })
	rdb.Del(ctx, versionKey(key))

	v, err := store.Version(ctx, key)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, int64(0))

	c.Assert(store.Bump(ctx, key), qt.IsNil)
	c.Assert(store.Bump(ctx, key), qt.IsNil)
	v, err = store.Version(ctx, key)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, int64(2))
}

func TestRedisRelay(t *testing.T) {
	c := qt.New(t)
	rdb := newTestRedis(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	signal := NewSignal()
	received := make(chan Event, 1)
	signal.Subscribe(Profile, func(e Event) {
		select {
		case received <- e:
		default:
		}
	})

	listener := NewRedisRelay(rdb, "node-b")
	go listener.Listen(ctx, signal)

	publisher := NewRedisRelay(rdb, "node-a")
	// Retry until the listener's subscription is in place.
	for {
		c.Assert(publisher.Publish(ctx, Event{UserID: "u1", Collection: Profile, Origin: "node-a"}), qt.IsNil)
		select {
		case e := <-received:
			c.Assert(e.UserID, qt.Equals, "u1")
			c.Assert(e.Origin, qt.Equals, "node-a")
			return
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			c.Fatal("timed out waiting for relayed event")
		}
	}
}
