package access

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
)

// Config holds configuration for GM bootstrap
type Config struct {
	// GMPin is the shared out-of-band secret for GM login. Empty disables it.
	GMPin string
}

// Controller resolves viewers from storage and designates the GM.
//
// GM designation is trust-on-first-use. The PIN is a soft gate, not access
// control, and two concurrent bootstraps race with the last write winning.
type Controller struct {
	storage storage.Storage
	pinHash []byte
	logger  *slog.Logger
}

// NewController creates a new access Controller. The PIN is hashed once
// so it is never held in memory in the clear.
func NewController(store storage.Storage, cfg Config, logger *slog.Logger) (*Controller, error) {
	c := &Controller{storage: store, logger: logger}
	if cfg.GMPin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.GMPin), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		c.pinHash = hash
	}
	return c, nil
}

// Viewer resolves the access state for user. A nil user is unauthenticated.
func (c *Controller) Viewer(ctx context.Context, user *model.User) (Viewer, error) {
	if user == nil {
		return Unauthenticated(), nil
	}

	cfg, err := c.appConfig(ctx)
	if err != nil {
		return Viewer{}, err
	}
	roster, err := c.storage.ListCharacters(ctx)
	if err != nil {
		return Viewer{}, storage.SyncError("list characters", err)
	}
	return Resolve(user, cfg, roster), nil
}

// ClaimGM designates uid as GM if pin matches the configured secret
func (c *Controller) ClaimGM(ctx context.Context, uid model.UserID, pin string) error {
	if uid == "" {
		return model.ErrForbidden
	}
	if c.pinHash == nil {
		return model.ErrGMAccessDisabled
	}
	if err := bcrypt.CompareHashAndPassword(c.pinHash, []byte(pin)); err != nil {
		c.logger.Warn("GM PIN rejected", slog.String("user_id", string(uid)))
		return model.ErrInvalidPIN
	}
	return c.Designate(ctx, uid)
}

// Designate writes uid as the campaign GM, replacing any previous one
func (c *Controller) Designate(ctx context.Context, uid model.UserID) error {
	gm := uid
	if err := c.storage.PutAppConfig(ctx, &model.AppConfig{GMUserID: &gm}); err != nil {
		return storage.SyncError("put app config", err)
	}
	c.logger.Info("GM designated", slog.String("user_id", string(uid)))
	return nil
}

// GM returns the designated GM, or nil before bootstrap
func (c *Controller) GM(ctx context.Context) (*model.UserID, error) {
	cfg, err := c.appConfig(ctx)
	if err != nil || cfg == nil {
		return nil, err
	}
	return cfg.GMUserID, nil
}

// appConfig returns nil when no config has been written yet
func (c *Controller) appConfig(ctx context.Context) (*model.AppConfig, error) {
	cfg, err := c.storage.GetAppConfig(ctx)
	if errors.Is(err, model.ErrAppConfigNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.SyncError("get app config", err)
	}
	return cfg, nil
}
