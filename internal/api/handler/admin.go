package handler

import (
	"net/http"

	"github.com/mcoot/charsheet/internal/api/middleware"
	"github.com/mcoot/charsheet/internal/api/request"
	"github.com/mcoot/charsheet/internal/api/response"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/roster"
)

// AdminHandler handles GM endpoints
type AdminHandler struct {
	roster roster.ControllerInterface
	access *access.Controller
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(rosterController roster.ControllerInterface, accessController *access.Controller) *AdminHandler {
	return &AdminHandler{
		roster: rosterController,
		access: accessController,
	}
}

// Seed handles POST /api/v1/admin/seed
func (h *AdminHandler) Seed(w http.ResponseWriter, r *http.Request) {
	var req request.SeedRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	n, err := h.roster.Seed(r.Context(), middleware.GetViewer(r.Context()), req.Force)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.Created(w, response.Seeded{Seeded: n})
}

// ClaimGM handles POST /api/v1/admin/gm
func (h *AdminHandler) ClaimGM(w http.ResponseWriter, r *http.Request) {
	var req request.ClaimGMRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	session := middleware.MustGetSession(r.Context())
	if err := h.access.ClaimGM(r.Context(), session.UserID, req.PIN); err != nil {
		WriteError(w, err)
		return
	}

	viewer, err := h.access.Viewer(r.Context(), &session.User)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Me{
		User:   response.UserFromModel(&session.User),
		Viewer: viewer,
	})
}

// Users handles GET /api/v1/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.roster.Users(r.Context(), middleware.GetViewer(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UsersFromModel(users))
}
