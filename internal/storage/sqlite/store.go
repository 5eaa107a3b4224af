// Package sqlite stores records as JSON documents in a single SQLite file.
// Live subscriptions are served in-process, so one server owns the file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mcoot/charsheet/internal/dependencies/clock"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
	"github.com/mcoot/charsheet/internal/storage/feed"
)

//go:embed schema.sql
var schema string

// registeredUsers is a private table partition, never streamed
const registeredUsers = "registered_users"

const appConfigID = "app"

// Store implements storage.Storage over SQLite
type Store struct {
	db    *sql.DB
	clock clock.Clock
	feed  *feed.Broker
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// Open opens (creating if needed) the database file at path
func Open(path string, clk clock.Clock, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{db: db, clock: clk}
	s.feed = feed.New(s, clk, logger)
	return s, nil
}

// Close ends live subscriptions and releases the database
func (s *Store) Close() error {
	s.feed.Close()
	return s.db.Close()
}

// Character operations

func (s *Store) GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error) {
	var c model.Character
	if err := s.get(ctx, model.CollectionCharacters, string(id), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCharacterNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) PutCharacter(ctx context.Context, c *model.Character) error {
	if err := s.put(ctx, model.CollectionCharacters, string(c.ID), c.Name, c); err != nil {
		return err
	}
	s.feed.Publish(ctx, model.CollectionCharacters)
	return nil
}

func (s *Store) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	return list[model.Character](ctx, s.db, model.CollectionCharacters)
}

func (s *Store) CountCharacters(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, string(model.CollectionCharacters),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count characters: %w", err)
	}
	return n, nil
}

// User operations

func (s *Store) PutUser(ctx context.Context, u *model.User) error {
	if err := s.put(ctx, model.CollectionUsers, string(u.UID), string(u.UID), u); err != nil {
		return err
	}
	s.feed.Publish(ctx, model.CollectionUsers)
	return nil
}

func (s *Store) GetUser(ctx context.Context, uid model.UserID) (*model.User, error) {
	var u model.User
	if err := s.get(ctx, model.CollectionUsers, string(uid), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	return list[model.User](ctx, s.db, model.CollectionUsers)
}

// Registered user operations

func (s *Store) PutRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	return s.put(ctx, registeredUsers, ru.Username, ru.Username, ru)
}

func (s *Store) GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error) {
	var ru model.RegisteredUser
	if err := s.get(ctx, registeredUsers, username, &ru); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &ru, nil
}

// App config operations

func (s *Store) GetAppConfig(ctx context.Context) (*model.AppConfig, error) {
	var cfg model.AppConfig
	if err := s.get(ctx, model.CollectionConfig, appConfigID, &cfg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAppConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) PutAppConfig(ctx context.Context, cfg *model.AppConfig) error {
	if err := s.put(ctx, model.CollectionConfig, appConfigID, appConfigID, cfg); err != nil {
		return err
	}
	s.feed.Publish(ctx, model.CollectionConfig)
	return nil
}

// Subscriptions

func (s *Store) Subscribe(ctx context.Context, collection model.Collection) (*storage.Subscription, error) {
	return s.feed.Subscribe(ctx, collection)
}

func (s *Store) get(ctx context.Context, collection model.Collection, id string, dst any) error {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM records WHERE collection = ? AND id = ?`, string(collection), id,
	).Scan(&body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, collection model.Collection, id, sortKey string, rec any) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO records (collection, id, sort_key, body, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET
    sort_key = excluded.sort_key,
    body = excluded.body,
    updated_at = excluded.updated_at`,
		string(collection), id, sortKey, string(body), s.clock.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func list[T any](ctx context.Context, db *sql.DB, collection model.Collection) ([]*T, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT body FROM records WHERE collection = ? ORDER BY sort_key, id`, string(collection),
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	out := []*T{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
