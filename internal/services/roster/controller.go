package roster

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/rules"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/sheet"
	"github.com/mcoot/charsheet/internal/storage"
)

// ControllerInterface is the roster surface used by the API
type ControllerInterface interface {
	List(ctx context.Context, v access.Viewer) ([]*model.Character, error)
	Get(ctx context.Context, v access.Viewer, id model.CharacterID) (*model.Character, error)
	Edit(ctx context.Context, v access.Viewer, id model.CharacterID, edit sheet.Edit) (*model.Character, error)
	Claim(ctx context.Context, v access.Viewer, id model.CharacterID) (*model.Character, error)
	Assign(ctx context.Context, v access.Viewer, id model.CharacterID, uid *model.UserID) (*model.Character, error)
	SetDisabled(ctx context.Context, v access.Viewer, id model.CharacterID, disabled bool) (*model.Character, error)
	ToggleDisabled(ctx context.Context, v access.Viewer, id model.CharacterID) (*model.Character, error)
	Seed(ctx context.Context, v access.Viewer, force bool) (int, error)
	Users(ctx context.Context, v access.Viewer) ([]*model.User, error)
}

// Controller orchestrates read-modify-write of character records.
// Every write replaces a whole record; concurrent edits are last-write-wins.
type Controller struct {
	storage storage.Storage
	access  *access.Controller
	catalog *rules.Catalog
	logger  *slog.Logger
}

var _ ControllerInterface = (*Controller)(nil)

// NewController creates a new roster Controller
func NewController(
	storage storage.Storage,
	accessController *access.Controller,
	catalog *rules.Catalog,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		access:  accessController,
		catalog: catalog,
		logger:  logger,
	}
}

// List returns the characters the viewer may see, sorted by name
func (c *Controller) List(ctx context.Context, v access.Viewer) ([]*model.Character, error) {
	if !v.IsAuthenticated() {
		return nil, model.ErrForbidden
	}

	all, err := c.storage.ListCharacters(ctx)
	if err != nil {
		return nil, storage.SyncError("list characters", err)
	}

	visible := make([]*model.Character, 0, len(all))
	for _, ch := range all {
		if v.CanView(ch.ID) {
			visible = append(visible, ch)
		}
	}
	model.SortCharactersByName(visible)
	return visible, nil
}

// Get returns one character if the viewer may see it
func (c *Controller) Get(ctx context.Context, v access.Viewer, id model.CharacterID) (*model.Character, error) {
	if !v.CanView(id) {
		return nil, model.ErrForbidden
	}
	return c.load(ctx, id)
}

// Edit applies a mutation rule to a character and writes the result.
// Edits that leave the record unchanged issue no write.
func (c *Controller) Edit(ctx context.Context, v access.Viewer, id model.CharacterID, edit sheet.Edit) (*model.Character, error) {
	if !v.CanEdit(id) {
		return nil, model.ErrForbidden
	}

	current, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := edit.Apply(current)
	if err != nil {
		return nil, err
	}
	if reflect.DeepEqual(current, next) {
		return current, nil
	}

	if err := c.put(ctx, next); err != nil {
		return nil, err
	}
	c.logger.Debug("character edited",
		slog.String("character_id", string(id)),
		slog.String("kind", edit.Kind()),
		slog.String("user_id", string(v.UserID)))
	return next, nil
}

// Claim assigns an unclaimed, enabled character to the viewer
func (c *Controller) Claim(ctx context.Context, v access.Viewer, id model.CharacterID) (*model.Character, error) {
	switch {
	case v.State == access.StatePlayerClaimed:
		return nil, model.ErrAlreadyClaimed
	case !v.CanClaim():
		return nil, model.ErrForbidden
	}

	roster, err := c.storage.ListCharacters(ctx)
	if err != nil {
		return nil, storage.SyncError("list characters", err)
	}
	next, err := PlanClaim(roster, id, v.UserID)
	if err != nil {
		return nil, err
	}

	if err := c.put(ctx, next); err != nil {
		return nil, err
	}
	c.logger.Info("character claimed",
		slog.String("character_id", string(id)),
		slog.String("user_id", string(v.UserID)))
	return next, nil
}

// Assign sets or clears the holder of a character. The previous holder of
// uid is cleared by a separate write; a failure after the first write
// leaves the roster partially updated and is reported, not rolled back.
func (c *Controller) Assign(ctx context.Context, v access.Viewer, id model.CharacterID, uid *model.UserID) (*model.Character, error) {
	if !v.CanAdminister() {
		return nil, model.ErrNotGM
	}

	if uid != nil {
		if _, err := c.storage.GetUser(ctx, *uid); err != nil {
			return nil, storage.SyncError("get user", err)
		}
	}

	roster, err := c.storage.ListCharacters(ctx)
	if err != nil {
		return nil, storage.SyncError("list characters", err)
	}
	writes, err := PlanAssignment(roster, id, uid)
	if err != nil {
		return nil, err
	}

	for i, w := range writes {
		if err := c.put(ctx, w); err != nil {
			if i == 0 {
				return nil, err
			}
			c.logger.Error("reassignment partially applied",
				slog.String("character_id", string(id)),
				slog.String("failed_character_id", string(w.ID)),
				slog.Any("user_id", uid),
				slog.Any("error", err))
			return nil, fmt.Errorf("%w: %w", model.ErrPartialAssignment, err)
		}
	}

	c.logger.Info("character assigned",
		slog.String("character_id", string(id)),
		slog.Any("user_id", uid),
		slog.Int("writes", len(writes)))
	return c.load(ctx, id)
}

// SetDisabled marks a character as unavailable for claiming
func (c *Controller) SetDisabled(ctx context.Context, v access.Viewer, id model.CharacterID, disabled bool) (*model.Character, error) {
	if !v.CanAdminister() {
		return nil, model.ErrNotGM
	}

	current, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Disabled == disabled {
		return current, nil
	}

	next := current.Clone()
	next.Disabled = disabled
	if err := c.put(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ToggleDisabled flips the disabled flag
func (c *Controller) ToggleDisabled(ctx context.Context, v access.Viewer, id model.CharacterID) (*model.Character, error) {
	if !v.CanAdminister() {
		return nil, model.ErrNotGM
	}
	current, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.SetDisabled(ctx, v, id, !current.Disabled)
}

// Seed writes the catalog's starting roster and designates the caller as
// GM. A populated roster is only overwritten when force is set. Once a GM
// exists only they may reseed.
func (c *Controller) Seed(ctx context.Context, v access.Viewer, force bool) (int, error) {
	if !v.IsAuthenticated() {
		return 0, model.ErrForbidden
	}

	gm, err := c.access.GM(ctx)
	if err != nil {
		return 0, err
	}
	if gm != nil && *gm != v.UserID {
		return 0, model.ErrNotGM
	}

	count, err := c.storage.CountCharacters(ctx)
	if err != nil {
		return 0, storage.SyncError("count characters", err)
	}
	if count > 0 && !force {
		return 0, model.ErrRosterPopulated
	}

	roster := c.catalog.InitialRoster()
	for _, ch := range roster {
		if err := c.put(ctx, ch); err != nil {
			return 0, err
		}
	}
	if err := c.access.Designate(ctx, v.UserID); err != nil {
		return 0, err
	}

	c.logger.Info("roster seeded",
		slog.Int("characters", len(roster)),
		slog.Bool("overwrote", count > 0),
		slog.String("gm", string(v.UserID)))
	return len(roster), nil
}

// Users lists every known identity for assignment
func (c *Controller) Users(ctx context.Context, v access.Viewer) ([]*model.User, error) {
	if !v.CanAdminister() {
		return nil, model.ErrNotGM
	}
	users, err := c.storage.ListUsers(ctx)
	if err != nil {
		return nil, storage.SyncError("list users", err)
	}
	return users, nil
}

func (c *Controller) load(ctx context.Context, id model.CharacterID) (*model.Character, error) {
	ch, err := c.storage.GetCharacter(ctx, id)
	if err != nil {
		return nil, storage.SyncError("get character", err)
	}
	return ch, nil
}

func (c *Controller) put(ctx context.Context, ch *model.Character) error {
	if err := c.storage.PutCharacter(ctx, ch); err != nil {
		return storage.SyncError("put character", err)
	}
	return nil
}
