package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/charsheet/internal/dependencies/clock"
	"github.com/mcoot/charsheet/internal/dependencies/random"
	"github.com/mcoot/charsheet/internal/live"
	"github.com/mcoot/charsheet/internal/rules"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/auth"
	"github.com/mcoot/charsheet/internal/services/roster"
	"github.com/mcoot/charsheet/internal/services/stats"
	"github.com/mcoot/charsheet/internal/storage"
	"github.com/mcoot/charsheet/internal/storage/memory"
	redisstorage "github.com/mcoot/charsheet/internal/storage/redis"
	"github.com/mcoot/charsheet/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Rules
	Catalog *rules.Catalog
	Engine  *stats.Engine

	// Services
	AuthService      *auth.Service
	AccessController *access.Controller
	RosterController *roster.Controller
	Hub              *live.Hub

	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// AccessConfig holds the GM PIN. An empty PIN disables GM login.
	AccessConfig access.Config
	// CatalogPath is a directory holding catalog.yaml and roster.yaml (optional)
	// If empty, the built-in catalog is used
	CatalogPath string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	store, err := openStorage(storageType, cfg, clk, logger)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app, err := newWithDependencies(store, clk, rnd, catalog, authCfg, cfg.AccessConfig, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	app.StorageType = storageType
	return app, nil
}

func openStorage(storageType string, cfg Config, clk clock.Clock, logger *slog.Logger) (storage.Storage, error) {
	switch storageType {
	case StorageTypeMemory:
		return memory.NewWithLogger(clk, logger), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig, logger)
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(cfg.SQLitePath, clk, logger)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

func loadCatalog(path string) (*rules.Catalog, error) {
	if path == "" {
		return rules.Default()
	}
	catalog, err := rules.LoadDir(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog from %s: %w", path, err)
	}
	return catalog, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	catalog *rules.Catalog,
	authCfg auth.Config,
	accessCfg access.Config,
	logger *slog.Logger,
) (*App, error) {
	accessController, err := access.NewController(store, accessCfg, logger)
	if err != nil {
		return nil, err
	}

	authService := auth.New(store, clk, rnd, authCfg)
	rosterController := roster.NewController(store, accessController, catalog, logger)
	hub := live.NewHub(logger)

	// Streams die with the session that opened them
	authService.OnSignOut(hub.SignOut)

	return &App{
		Storage:          store,
		StorageType:      StorageTypeMemory,
		Clock:            clk,
		Random:           rnd,
		Catalog:          catalog,
		Engine:           stats.New(catalog),
		AuthService:      authService,
		AccessController: accessController,
		RosterController: rosterController,
		Hub:              hub,
		logger:           logger,
	}, nil
}

// Start runs the live hub and feeds it from storage until Close is called
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})

	go a.Hub.Run()
	go func() {
		defer close(a.done)
		if err := live.Follow(ctx, a.Storage, a.Hub, a.logger); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("live feed stopped", slog.String("error", err.Error()))
		}
	}()
}

// Close stops the live feed and releases storage
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}
	a.Hub.Close()
	return a.Storage.Close()
}
