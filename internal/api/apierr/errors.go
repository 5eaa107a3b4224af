package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/services/auth"
	"github.com/mcoot/charsheet/internal/storage"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeEmptyText          = "EMPTY_TEXT"
	CodeNegativeValue      = "NEGATIVE_VALUE"
	CodeIndexOutOfRange    = "INDEX_OUT_OF_RANGE"
	CodeDuplicateWeapon    = "DUPLICATE_WEAPON"
	CodeWeaponGear         = "WEAPON_GEAR"
	CodeUnknownAttribute   = "UNKNOWN_ATTRIBUTE"
	CodeUnknownEdit        = "UNKNOWN_EDIT"
	CodeAndroidStress      = "ANDROID_STRESS"
	CodeCharacterTaken     = "CHARACTER_TAKEN"
	CodeCharacterDisabled  = "CHARACTER_DISABLED"
	CodeAlreadyClaimed     = "ALREADY_CLAIMED"
	CodeRosterPopulated    = "ROSTER_POPULATED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotGM              = "NOT_GM"
	CodeInvalidPIN         = "INVALID_PIN"
	CodeGMAccessDisabled   = "GM_ACCESS_DISABLED"
	CodeCharacterNotFound  = "CHARACTER_NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeNotBootstrapped    = "NOT_BOOTSTRAPPED"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePartialAssignment  = "PARTIAL_ASSIGNMENT"
	CodeSyncFailed         = "SYNC_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// mapping is checked in order; the first match wins
var mapping = []struct {
	err    error
	status int
	code   string
	msg    string
}{
	// Validation
	{model.ErrEmptyText, http.StatusBadRequest, CodeEmptyText, "Text must not be empty"},
	{model.ErrNegativeValue, http.StatusBadRequest, CodeNegativeValue, "Value must not be negative"},
	{model.ErrIndexOutOfRange, http.StatusBadRequest, CodeIndexOutOfRange, "Track index out of range"},
	{model.ErrDuplicateWeapon, http.StatusConflict, CodeDuplicateWeapon, "Weapon is already held"},
	{model.ErrWeaponGear, http.StatusConflict, CodeWeaponGear, "That gear is a held weapon; remove the weapon instead"},
	{model.ErrUnknownAttribute, http.StatusBadRequest, CodeUnknownAttribute, "Unknown attribute"},
	{model.ErrUnknownEdit, http.StatusBadRequest, CodeUnknownEdit, "Unknown edit kind"},
	{model.ErrAndroidStress, http.StatusConflict, CodeAndroidStress, "Androids do not track stress"},
	{model.ErrCharacterTaken, http.StatusConflict, CodeCharacterTaken, "Character is already claimed"},
	{model.ErrCharacterDisabled, http.StatusConflict, CodeCharacterDisabled, "Character is disabled"},
	{model.ErrAlreadyClaimed, http.StatusConflict, CodeAlreadyClaimed, "You already hold a character"},
	{model.ErrRosterPopulated, http.StatusConflict, CodeRosterPopulated, "Roster already populated; pass force to overwrite"},

	// Authorization
	{model.ErrNotGM, http.StatusForbidden, CodeNotGM, "Only the GM can perform this action"},
	{model.ErrForbidden, http.StatusForbidden, CodeForbidden, "You may not access this character"},
	{model.ErrInvalidPIN, http.StatusForbidden, CodeInvalidPIN, "Invalid GM PIN"},
	{model.ErrGMAccessDisabled, http.StatusForbidden, CodeGMAccessDisabled, "GM PIN login is not configured"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password"},
	{auth.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired session"},
	{auth.ErrUsernameExists, http.StatusConflict, CodeUsernameExists, "Username already exists"},
	{auth.ErrMissingCredentials, http.StatusBadRequest, CodeInvalidRequest, "Username and password are required"},

	// Not found
	{model.ErrCharacterNotFound, http.StatusNotFound, CodeCharacterNotFound, "Character not found"},
	{model.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound, "User not found"},
	{model.ErrAppConfigNotFound, http.StatusNotFound, CodeNotBootstrapped, "No GM has been designated"},

	// Synchronization
	{model.ErrPartialAssignment, http.StatusInternalServerError, CodePartialAssignment, "Reassignment only partially applied; check the roster"},
	{storage.ErrSync, http.StatusInternalServerError, CodeSyncFailed, "Change could not be saved; try again"},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	for _, m := range mapping {
		if errors.Is(err, m.err) {
			return &httpError{m.status, APIError{m.code, m.msg}}
		}
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
