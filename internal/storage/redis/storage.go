package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/charsheet/internal/dependencies/clock"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Every write bumps a per-collection version and publishes it; subscribers
// re-read the whole collection when notified.
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new Redis storage instance
func New(cfg Config, logger *slog.Logger) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   newKeyspace(cfg.Campaign),
		clock:  clock.New(),
		logger: logger,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Character operations

func (s *Storage) GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error) {
	data, err := s.client.Get(ctx, s.keys.character(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCharacterNotFound
		}
		return nil, err
	}

	var c model.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) PutCharacter(ctx context.Context, c *model.Character) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	key := s.keys.character(c.ID)

	// Use pipeline for atomic save + index update + notification
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, s.keys.characters(), key)
	return s.commit(ctx, pipe, model.CollectionCharacters)
}

func (s *Storage) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	chars, err := listIndexed[model.Character](ctx, s.client, s.keys.characters())
	if err != nil {
		return nil, err
	}
	model.SortCharactersByName(chars)
	return chars, nil
}

func (s *Storage) CountCharacters(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.keys.characters()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// User operations

func (s *Storage) PutUser(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}

	// Apply TTL only for guest users
	var ttl time.Duration
	if u.IsGuest {
		ttl = s.cfg.GuestUserTTL
	}

	key := s.keys.user(u.UID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, s.keys.users(), key)
	return s.commit(ctx, pipe, model.CollectionUsers)
}

func (s *Storage) GetUser(ctx context.Context, uid model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, s.keys.user(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := listIndexed[model.User](ctx, s.client, s.keys.users())
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b *model.User) int {
		switch {
		case a.UID < b.UID:
			return -1
		case a.UID > b.UID:
			return 1
		}
		return 0
	})
	return users, nil
}

// Registered user operations

func (s *Storage) PutRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	data, err := json.Marshal(ru)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keys.registeredUser(ru.Username), data, 0).Err()
}

func (s *Storage) GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error) {
	data, err := s.client.Get(ctx, s.keys.registeredUser(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var ru model.RegisteredUser
	if err := json.Unmarshal(data, &ru); err != nil {
		return nil, err
	}
	return &ru, nil
}

// App config operations

func (s *Storage) GetAppConfig(ctx context.Context) (*model.AppConfig, error) {
	data, err := s.client.Get(ctx, s.keys.appConfig()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAppConfigNotFound
		}
		return nil, err
	}

	var cfg model.AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Storage) PutAppConfig(ctx context.Context, cfg *model.AppConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.appConfig(), data, 0)
	return s.commit(ctx, pipe, model.CollectionConfig)
}

// commit bumps the collection version, runs the queued writes and
// announces the new version. Once Exec succeeds the write is durable, so a
// failed announcement is logged rather than returned; subscribers catch up
// on the next announced write.
func (s *Storage) commit(ctx context.Context, pipe redis.Pipeliner, collection model.Collection) error {
	version := pipe.Incr(ctx, s.keys.version(collection))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.keys.events(collection), version.Val()).Err(); err != nil {
		s.logger.Warn("redis change announcement failed",
			slog.String("collection", string(collection)),
			slog.Uint64("version", uint64(version.Val())),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// listIndexed fetches every record whose key is in the index SET
func listIndexed[T any](ctx context.Context, client *redis.Client, indexKey string) ([]*T, error) {
	keys, err := client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*T{}, nil
	}

	// Fetch all records in one round trip using MGET
	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Record may have expired
		}
		var rec T
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("decode %s member: %w", indexKey, err)
		}
		out = append(out, &rec)
	}
	return out, nil
}
