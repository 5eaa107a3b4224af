package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/services/auth"
	"github.com/mcoot/charsheet/internal/storage"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", model.ErrEmptyText, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("decode: %w", model.ErrUnknownEdit), http.StatusBadRequest},
		{"claim conflict", model.ErrCharacterTaken, http.StatusConflict},
		{"not gm", model.ErrNotGM, http.StatusForbidden},
		{"session", auth.ErrInvalidSession, http.StatusUnauthorized},
		{"not found", model.ErrCharacterNotFound, http.StatusNotFound},
		{"sync", storage.SyncError("put character", errors.New("down")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"invalid request", NewInvalidRequestError("bad"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestPartialAssignmentWinsOverSync(t *testing.T) {
	err := fmt.Errorf("%w: %w", model.ErrPartialAssignment, storage.SyncError("put character", errors.New("down")))

	rr := httptest.NewRecorder()
	WriteError(rr, err)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodePartialAssignment, resp.Error.Code)
}

func TestWriteErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, storage.SyncError("put character", errors.New("down")))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeSyncFailed, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "down")
}
