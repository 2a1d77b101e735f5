// Package shared holds the context passed to all CLI commands.
package shared

import (
	"context"

	"github.com/hisaabdost/backend/internal/app"
	"github.com/hisaabdost/backend/internal/config"
	"github.com/hisaabdost/backend/pkg/logging"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// DBPath overrides DB_PATH.
	DBPath string
	// LogLevel overrides LOG_LEVEL.
	LogLevel string
}

// Config loads the configuration with the flag overrides applied.
func (c *Context) Config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.DBPath != "" {
		cfg.DBPath = c.DBPath
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	logging.Setup(cfg.LogLevel)
	return cfg, nil
}

// Open wires the application the same way the server does, so cache
// invalidations reach running servers through Redis when it is configured.
func (c *Context) Open(ctx context.Context) (*app.App, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}
