package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/charsheet/internal/dependencies/clock"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
	"github.com/mcoot/charsheet/internal/storage/feed"
)

// Storage is an in-memory implementation of the storage interface.
// Records are copied on the way in and out.
type Storage struct {
	mu sync.RWMutex

	characters      map[model.CharacterID]*model.Character
	users           map[model.UserID]*model.User
	registeredUsers map[string]*model.RegisteredUser
	appConfig       *model.AppConfig

	feed *feed.Broker
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithLogger(clock.New(), nil)
}

// NewWithLogger creates an in-memory storage whose feed logs to logger
func NewWithLogger(clk clock.Clock, logger *slog.Logger) *Storage {
	s := &Storage{
		characters:      make(map[model.CharacterID]*model.Character),
		users:           make(map[model.UserID]*model.User),
		registeredUsers: make(map[string]*model.RegisteredUser),
	}
	s.feed = feed.New(s, clk, logger)
	return s
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Character operations

func (s *Storage) GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}
	return c.Clone(), nil
}

func (s *Storage) PutCharacter(ctx context.Context, c *model.Character) error {
	s.mu.Lock()
	s.characters[c.ID] = c.Clone()
	s.mu.Unlock()
	s.feed.Publish(ctx, model.CollectionCharacters)
	return nil
}

func (s *Storage) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Character, 0, len(s.characters))
	for _, c := range s.characters {
		out = append(out, c.Clone())
	}
	model.SortCharactersByName(out)
	return out, nil
}

func (s *Storage) CountCharacters(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.characters), nil
}

// User operations

func (s *Storage) PutUser(ctx context.Context, u *model.User) error {
	cp := *u
	s.mu.Lock()
	s.users[u.UID] = &cp
	s.mu.Unlock()
	s.feed.Publish(ctx, model.CollectionUsers)
	return nil
}

func (s *Storage) GetUser(ctx context.Context, uid model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *model.User) int {
		switch {
		case a.UID < b.UID:
			return -1
		case a.UID > b.UID:
			return 1
		}
		return 0
	})
	return out, nil
}

// Registered user operations

func (s *Storage) PutRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	cp := *ru
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredUsers[ru.Username] = &cp
	return nil
}

func (s *Storage) GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ru, ok := s.registeredUsers[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *ru
	return &cp, nil
}

// App config operations

func (s *Storage) GetAppConfig(ctx context.Context) (*model.AppConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.appConfig == nil {
		return nil, model.ErrAppConfigNotFound
	}
	return copyAppConfig(s.appConfig), nil
}

func (s *Storage) PutAppConfig(ctx context.Context, cfg *model.AppConfig) error {
	s.mu.Lock()
	s.appConfig = copyAppConfig(cfg)
	s.mu.Unlock()
	s.feed.Publish(ctx, model.CollectionConfig)
	return nil
}

// Subscriptions

func (s *Storage) Subscribe(ctx context.Context, collection model.Collection) (*storage.Subscription, error) {
	return s.feed.Subscribe(ctx, collection)
}

// Close ends all live subscriptions
func (s *Storage) Close() error {
	s.feed.Close()
	return nil
}

func copyAppConfig(cfg *model.AppConfig) *model.AppConfig {
	out := &model.AppConfig{}
	if cfg.GMUserID != nil {
		uid := *cfg.GMUserID
		out.GMUserID = &uid
	}
	return out
}
