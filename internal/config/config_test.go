package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(c *qt.C) {
	for key := range defaults {
		c.Setenv(key, "")
		os.Unsetenv(key)
	}
	c.Setenv("CONFIG_FILE", "")
	os.Unsetenv("CONFIG_FILE")
	// Keep a stray .env in the working directory from leaking in.
	c.Chdir(c.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	c := qt.New(t)
	clearEnv(c)

	cfg, err := Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, 8080)
	c.Assert(cfg.DBPath, qt.Equals, "./data/hisaab.db")
	c.Assert(cfg.TokenTTL, qt.Equals, 24*time.Hour)
	c.Assert(cfg.CacheTTL, qt.Equals, 5*time.Minute)
	c.Assert(cfg.SessionIdle, qt.Equals, 30*time.Minute)
	c.Assert(cfg.LogLevel, qt.Equals, "info")
	c.Assert(cfg.UseRedis(), qt.IsFalse)
	c.Assert(cfg.InstanceID, qt.Not(qt.Equals), "")
	c.Assert(cfg.Addr(), qt.Equals, ":8080")
	c.Assert(cfg.RequireSecret(), qt.ErrorIs, ErrMissingSecret)
}

func TestLoad_Environment(t *testing.T) {
	c := qt.New(t)
	clearEnv(c)

	c.Setenv("PORT", "9090")
	c.Setenv("JWT_SECRET", "s3cret")
	c.Setenv("TOKEN_TTL", "1h")
	c.Setenv("REDIS_ADDR", "localhost:6379")
	c.Setenv("REDIS_DB", "2")
	c.Setenv("INSTANCE_ID", "node-1")

	cfg, err := Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, 9090)
	c.Assert(cfg.TokenTTL, qt.Equals, time.Hour)
	c.Assert(cfg.RedisDB, qt.Equals, 2)
	c.Assert(cfg.UseRedis(), qt.IsTrue)
	c.Assert(cfg.InstanceID, qt.Equals, "node-1")
	c.Assert(cfg.RequireSecret(), qt.IsNil)
}

func TestLoad_ConfigFile(t *testing.T) {
	c := qt.New(t)
	clearEnv(c)

	file := filepath.Join(c.TempDir(), "hisaab.yaml")
	err := os.WriteFile(file, []byte("port: 7070\ndb_path: /tmp/h.db\ncache_ttl: 30s\n"), 0o600)
	c.Assert(err, qt.IsNil)

	c.Setenv("CONFIG_FILE", file)
	c.Setenv("DB_PATH", "/var/lib/hisaab.db")

	cfg, err := Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, 7070)
	c.Assert(cfg.CacheTTL, qt.Equals, 30*time.Second)
	c.Assert(cfg.DBPath, qt.Equals, "/var/lib/hisaab.db")
}

func TestLoad_Invalid(t *testing.T) {
	c := qt.New(t)
	clearEnv(c)

	c.Setenv("TOKEN_TTL", "0s")
	_, err := Load()
	c.Assert(err, qt.ErrorMatches, "invalid TOKEN_TTL.*")
}
