package handler

import (
	"net/http"

	"github.com/mcoot/charsheet/internal/api/middleware"
	"github.com/mcoot/charsheet/internal/api/request"
	"github.com/mcoot/charsheet/internal/api/response"
	"github.com/mcoot/charsheet/internal/services/auth"
)

// IdentityHandler handles sign-in and session endpoints
type IdentityHandler struct {
	authService *auth.Service
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(authService *auth.Service) *IdentityHandler {
	return &IdentityHandler{
		authService: authService,
	}
}

// Guest handles POST /api/v1/identity/guest
func (h *IdentityHandler) Guest(w http.ResponseWriter, r *http.Request) {
	var req request.GuestRequest
	// An empty body signs in an anonymous guest
	if !decodeBody(w, r, &req, true) {
		return
	}

	session, err := h.authService.SignInGuest(r.Context(), req.DisplayName, req.Email)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.AuthResponseFromSession(session))
}

// Register handles POST /api/v1/identity/register
func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Register(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/identity/login
func (h *IdentityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	if req.Username == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("username and password are required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/identity/logout
func (h *IdentityHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	h.authService.SignOut(session.Token)
	response.NoContent(w)
}

// Me handles GET /api/v1/identity/me
func (h *IdentityHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.Me{
		User:   response.UserFromModel(&session.User),
		Viewer: middleware.GetViewer(r.Context()),
	})
}
