package storage

import (
	"context"

	"github.com/mcoot/charsheet/internal/model"
)

// Storage defines the interface for data persistence and live feeds.
// Writes are whole-record overwrites; the last write wins.
type Storage interface {
	SnapshotSource

	// Character operations
	GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error)
	PutCharacter(ctx context.Context, c *model.Character) error
	CountCharacters(ctx context.Context) (int, error)

	// User operations
	PutUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, uid model.UserID) (*model.User, error)

	// Registered user operations
	PutRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error
	GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error)

	// App config operations
	PutAppConfig(ctx context.Context, cfg *model.AppConfig) error

	// Subscribe streams full snapshots of a collection, starting with the
	// current state. The subscription ends when ctx is cancelled or Close
	// is called.
	Subscribe(ctx context.Context, collection model.Collection) (*Subscription, error)

	Close() error
}

// SnapshotSource is the read side needed to build a snapshot
type SnapshotSource interface {
	ListCharacters(ctx context.Context) ([]*model.Character, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetAppConfig(ctx context.Context) (*model.AppConfig, error)
}
