// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config is the server configuration
type Config struct {
	Addr        string        `env:"CHARSHEET_ADDR" envDefault:":8080"`
	Storage     string        `env:"CHARSHEET_STORAGE" envDefault:"memory"`
	RedisURL    string        `env:"CHARSHEET_REDIS_URL" envDefault:"redis://localhost:6379"`
	Campaign    string        `env:"CHARSHEET_CAMPAIGN"`
	SQLitePath  string        `env:"CHARSHEET_SQLITE_PATH" envDefault:"charsheet.db"`
	GMPin       string        `env:"CHARSHEET_GM_PIN"`
	CatalogPath string        `env:"CHARSHEET_CATALOG_PATH"`
	SessionTTL  time.Duration `env:"CHARSHEET_SESSION_TTL" envDefault:"24h"`
	LogLevel    string        `env:"CHARSHEET_LOG_LEVEL" envDefault:"info"`
}

// Load reads the given .env files, if present, and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return Parse(nil)
}

// Parse reads configuration from environ, or from the process
// environment when environ is nil.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values env cannot check by type alone
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("CHARSHEET_STORAGE must be memory, redis or sqlite, got %q", c.Storage)
	}
	if c.SessionTTL <= 0 {
		return errors.New("CHARSHEET_SESSION_TTL must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("CHARSHEET_LOG_LEVEL: %w", err)
	}
	return level, nil
}
