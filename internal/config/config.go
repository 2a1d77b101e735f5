// Package config loads server and CLI settings from the environment, an
// optional .env file and an optional YAML file named by CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port          int           `mapstructure:"PORT"`
	DBPath        string        `mapstructure:"DB_PATH"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	SessionIdle   time.Duration `mapstructure:"SESSION_IDLE"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	InstanceID    string        `mapstructure:"INSTANCE_ID"`
}

var defaults = map[string]any{
	"PORT":           8080,
	"DB_PATH":        "./data/hisaab.db",
	"JWT_SECRET":     "",
	"TOKEN_TTL":      "24h",
	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"CACHE_TTL":      "5m",
	"SESSION_IDLE":   "30m",
	"LOG_LEVEL":      "info",
	"INSTANCE_ID":    "",
}

// ErrMissingSecret is returned when JWT_SECRET is required but not set.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// Load reads .env (if present), CONFIG_FILE (if set) and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	v.BindEnv("CONFIG_FILE")
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL %s", c.TokenTTL)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid CACHE_TTL %s", c.CacheTTL)
	}
	if c.SessionIdle < 0 {
		return fmt.Errorf("invalid SESSION_IDLE %s", c.SessionIdle)
	}
	return nil
}

// RequireSecret fails when no JWT secret is configured. The server needs one;
// the admin CLI does not.
func (c *Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UseRedis reports whether a Redis server is configured.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}
