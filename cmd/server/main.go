package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/charsheet/internal/api"
	"github.com/mcoot/charsheet/internal/config"
	"github.com/mcoot/charsheet/internal/factory"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/auth"
	redisstorage "github.com/mcoot/charsheet/internal/storage/redis"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, _ := cfg.Level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	factoryCfg := factory.Config{
		AuthConfig:   auth.Config{SessionDuration: cfg.SessionTTL},
		AccessConfig: access.Config{GMPin: cfg.GMPin},
		CatalogPath:  cfg.CatalogPath,
		Logger:       logger,
		StorageType:  cfg.Storage,
		SQLitePath:   cfg.SQLitePath,
	}
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.Campaign = cfg.Campaign
		factoryCfg.RedisConfig = &redisCfg
	}
	if cfg.GMPin == "" {
		logger.Warn("CHARSHEET_GM_PIN is not set - GM login is disabled")
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app.Start(ctx)
	go sweepSessions(ctx, app.AuthService)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		Storage:          app.Storage,
		StorageKind:      app.StorageType,
		AuthService:      app.AuthService,
		AccessController: app.AccessController,
		Roster:           app.RosterController,
		Engine:           app.Engine,
		Catalog:          app.Catalog,
		Hub:              app.Hub,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = cfg.Addr
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.StorageType))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Close live streams first so Shutdown does not wait on them
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to close storage", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	cancel()
	os.Exit(exitCode)
}

// sweepSessions drops expired sessions, which also closes their streams
func sweepSessions(ctx context.Context, authService *auth.Service) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			authService.CleanExpiredSessions()
		case <-ctx.Done():
			return
		}
	}
}
