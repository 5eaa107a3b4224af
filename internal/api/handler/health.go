package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/charsheet/internal/api/response"
	"github.com/mcoot/charsheet/internal/live"
	"github.com/mcoot/charsheet/internal/storage"
)

// HealthHandler reports whether storage is reachable
type HealthHandler struct {
	storage     storage.Storage
	storageKind string
	hub         *live.Hub
	logger      *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Storage, storageKind string, hub *live.Hub, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage:     store,
		storageKind: storageKind,
		hub:         hub,
		logger:      logger,
	}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{Status: "ok", Storage: h.storageKind}
	if h.hub != nil {
		resp.LiveClients = h.hub.ClientCount()
	}

	n, err := h.storage.CountCharacters(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		resp.Status = "degraded"
		response.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Characters = n
	response.JSON(w, http.StatusOK, resp)
}
