package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/charsheet/internal/api/middleware"
	"github.com/mcoot/charsheet/internal/api/request"
	"github.com/mcoot/charsheet/internal/api/response"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/services/roster"
	"github.com/mcoot/charsheet/internal/services/sheet"
	"github.com/mcoot/charsheet/internal/services/stats"
)

// CharacterHandler handles character endpoints
type CharacterHandler struct {
	roster roster.ControllerInterface
	engine *stats.Engine
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(rosterController roster.ControllerInterface, engine *stats.Engine) *CharacterHandler {
	return &CharacterHandler{
		roster: rosterController,
		engine: engine,
	}
}

// List handles GET /api/v1/characters
func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	chars, err := h.roster.List(r.Context(), middleware.GetViewer(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	if chars == nil {
		chars = []*model.Character{}
	}
	response.JSON(w, http.StatusOK, response.Characters{Characters: chars})
}

// Get handles GET /api/v1/characters/{id}
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.roster.Get(r.Context(), middleware.GetViewer(r.Context()), characterID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Sheet handles GET /api/v1/characters/{id}/sheet
// The auto query parameter lists weapons to roll with full auto.
func (h *CharacterHandler) Sheet(w http.ResponseWriter, r *http.Request) {
	c, err := h.roster.Get(r.Context(), middleware.GetViewer(r.Context()), characterID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.engine.Sheet(c, parseFullAuto(r.URL.Query().Get("auto"))))
}

// Edit handles POST /api/v1/characters/{id}/edits
func (h *CharacterHandler) Edit(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	edit, err := sheet.DecodeEnvelope(body)
	if err != nil {
		if errors.Is(err, model.ErrUnknownEdit) {
			WriteError(w, err)
			return
		}
		WriteError(w, NewInvalidRequestError("invalid edit: "+err.Error()))
		return
	}

	c, err := h.roster.Edit(r.Context(), middleware.GetViewer(r.Context()), characterID(r), edit)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Claim handles POST /api/v1/characters/{id}/claim
func (h *CharacterHandler) Claim(w http.ResponseWriter, r *http.Request) {
	c, err := h.roster.Claim(r.Context(), middleware.GetViewer(r.Context()), characterID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Assign handles PUT /api/v1/characters/{id}/assignment
func (h *CharacterHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req request.AssignRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	var uid *model.UserID
	if req.UserID != nil && *req.UserID != "" {
		id := model.UserID(*req.UserID)
		uid = &id
	}

	c, err := h.roster.Assign(r.Context(), middleware.GetViewer(r.Context()), characterID(r), uid)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// SetDisabled handles PUT /api/v1/characters/{id}/disabled
func (h *CharacterHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	var req request.DisabledRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	viewer := middleware.GetViewer(r.Context())
	var c *model.Character
	var err error
	if req.Disabled == nil {
		c, err = h.roster.ToggleDisabled(r.Context(), viewer, characterID(r))
	} else {
		c, err = h.roster.SetDisabled(r.Context(), viewer, characterID(r), *req.Disabled)
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

func characterID(r *http.Request) model.CharacterID {
	return model.CharacterID(mux.Vars(r)["id"])
}

func parseFullAuto(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	out := map[string]bool{}
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = true
		}
	}
	return out
}
