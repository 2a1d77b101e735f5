package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/hisaabdost/backend/internal/config"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
)

func TestNewWithoutRedis(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	a, err := New(ctx, &config.Config{
		DBPath:     filepath.Join(c.TempDir(), "app.db"),
		CacheTTL:   time.Minute,
		InstanceID: "test",
	})
	c.Assert(err, qt.IsNil)
	defer a.Close()

	// Listen has nothing to relay without Redis.
	c.Assert(a.Listen(ctx), qt.IsNil)

	user := models.NewUser("ayesha@example.com", "Ayesha", "hash")
	c.Assert(a.Store.CreateUser(ctx, user), qt.IsNil)

	active, err := a.Sessions.Session(user.ID).Store.ActiveContext(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(active, qt.Equals, scope.PersonalContext())
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, &config.Config{
		DBPath:     filepath.Join(c.TempDir(), "app.db"),
		RedisAddr:  "127.0.0.1:1",
		InstanceID: "test",
	})
	c.Assert(err, qt.ErrorMatches, "failed to connect to Redis at 127.0.0.1:1: .*")
}
