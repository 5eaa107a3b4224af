package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/charsheet/internal/api/middleware"
	"github.com/mcoot/charsheet/internal/live"
)

// EventsHandler streams roster snapshots to signed-in clients
type EventsHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *live.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// SSE handles GET /api/v1/events
func (h *EventsHandler) SSE(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	live.ServeSSE(w, r, h.hub, session.UserID, session.Token)
}

// WebSocket handles GET /api/v1/ws
func (h *EventsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	live.ServeWS(w, r, h.hub, session.UserID, session.Token, h.logger)
}
