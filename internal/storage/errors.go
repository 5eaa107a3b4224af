package storage

import (
	"errors"
	"fmt"

	"github.com/mcoot/charsheet/internal/model"
)

// ErrSync marks a failed read or write against the backend
var ErrSync = errors.New("synchronization failed")

// ErrClosed is returned when subscribing to a closed backend
var ErrClosed = errors.New("storage closed")

// SyncError wraps a backend failure with ErrSync. Not-found errors are
// returned unchanged so callers can still match them.
func SyncError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrCharacterNotFound) ||
		errors.Is(err, model.ErrUserNotFound) ||
		errors.Is(err, model.ErrAppConfigNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrSync, err)
}
