package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/charsheet/internal/api/handler"
	"github.com/mcoot/charsheet/internal/api/middleware"
	"github.com/mcoot/charsheet/internal/live"
	"github.com/mcoot/charsheet/internal/rules"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/auth"
	"github.com/mcoot/charsheet/internal/services/roster"
	"github.com/mcoot/charsheet/internal/services/stats"
	"github.com/mcoot/charsheet/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	Storage          storage.Storage
	StorageKind      string
	AuthService      *auth.Service
	AccessController *access.Controller
	Roster           roster.ControllerInterface
	Engine           *stats.Engine
	Catalog          *rules.Catalog
	Hub              *live.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	identityHandler := handler.NewIdentityHandler(cfg.AuthService)
	characterHandler := handler.NewCharacterHandler(cfg.Roster, cfg.Engine)
	adminHandler := handler.NewAdminHandler(cfg.Roster, cfg.AccessController)
	catalogHandler := handler.NewCatalogHandler(cfg.Catalog)
	healthHandler := handler.NewHealthHandler(cfg.Storage, cfg.StorageKind, cfg.Hub, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService, cfg.AccessController)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Identity routes (no auth required for signing in)
	api.HandleFunc("/identity/guest", identityHandler.Guest).Methods(http.MethodPost)
	api.HandleFunc("/identity/register", identityHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/identity/login", identityHandler.Login).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Everything else requires a session
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/identity/logout", identityHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/identity/me", identityHandler.Me).Methods(http.MethodGet)

	// Character routes
	protected.HandleFunc("/characters", characterHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/characters/{id}", characterHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/characters/{id}/sheet", characterHandler.Sheet).Methods(http.MethodGet)
	protected.HandleFunc("/characters/{id}/edits", characterHandler.Edit).Methods(http.MethodPost)
	protected.HandleFunc("/characters/{id}/claim", characterHandler.Claim).Methods(http.MethodPost)
	protected.HandleFunc("/characters/{id}/assignment", characterHandler.Assign).Methods(http.MethodPut)
	protected.HandleFunc("/characters/{id}/disabled", characterHandler.SetDisabled).Methods(http.MethodPut)

	// GM routes
	protected.HandleFunc("/admin/seed", adminHandler.Seed).Methods(http.MethodPost)
	protected.HandleFunc("/admin/gm", adminHandler.ClaimGM).Methods(http.MethodPost)
	protected.HandleFunc("/users", adminHandler.Users).Methods(http.MethodGet)

	protected.HandleFunc("/catalog", catalogHandler.Get).Methods(http.MethodGet)

	// Live snapshot streams
	if cfg.Hub != nil {
		eventsHandler := handler.NewEventsHandler(cfg.Hub, cfg.Logger)
		protected.HandleFunc("/events", eventsHandler.SSE).Methods(http.MethodGet)
		protected.HandleFunc("/ws", eventsHandler.WebSocket).Methods(http.MethodGet)
	}

	return r
}
