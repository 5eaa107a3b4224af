package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/charsheet/internal/dependencies/clock"
	"github.com/mcoot/charsheet/internal/dependencies/random"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
	ErrMissingCredentials = errors.New("username and password are required")
)

// tokenBytes is the entropy of a session token
const tokenBytes = 32

// Session represents an authenticated session
type Session struct {
	Token     string
	UserID    model.UserID
	User      model.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles authentication and session management
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	mu        sync.RWMutex
	sessions  map[string]*Session
	listeners []func(token string)

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		random:          random,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// SignInGuest creates an anonymous user and session. Both fields are optional.
func (s *Service) SignInGuest(ctx context.Context, displayName, email string) (*Session, error) {
	user := &model.User{
		UID:         model.UserID(s.random.ID()),
		DisplayName: optional(displayName),
		Email:       optional(email),
		IsGuest:     true,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.PutUser(ctx, user); err != nil {
		return nil, storage.SyncError("put user", err)
	}

	return s.createSession(user), nil
}

// Register creates a registered user account and session
func (s *Service) Register(ctx context.Context, username, password, displayName string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	// Check if username exists
	_, err := s.storage.GetRegisteredUserByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, storage.SyncError("get registered user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if displayName == "" {
		displayName = username
	}
	user := &model.User{
		UID:         model.UserID(s.random.ID()),
		DisplayName: optional(displayName),
		IsGuest:     false,
		CreatedAt:   now,
	}

	registered := &model.RegisteredUser{
		UID:          user.UID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	if err := s.storage.PutUser(ctx, user); err != nil {
		return nil, storage.SyncError("put user", err)
	}
	if err := s.storage.PutRegisteredUser(ctx, registered); err != nil {
		return nil, storage.SyncError("put registered user", err)
	}

	return s.createSession(user), nil
}

// Login authenticates a registered user and creates a session.
// The user record is rewritten so it exists even if it was lost.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	ru, err := s.storage.GetRegisteredUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storage.SyncError("get registered user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ru.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.storage.GetUser(ctx, ru.UID)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		user = &model.User{
			UID:         ru.UID,
			DisplayName: optional(ru.Username),
			CreatedAt:   ru.CreatedAt,
		}
	case err != nil:
		return nil, storage.SyncError("get user", err)
	}

	if err := s.storage.PutUser(ctx, user); err != nil {
		return nil, storage.SyncError("put user", err)
	}

	return s.createSession(user), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.SignOut(token)
		return nil, ErrInvalidSession
	}

	return session, nil
}

// SignOut removes a session and notifies listeners
func (s *Service) SignOut(token string) {
	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	listeners := s.listeners
	s.mu.Unlock()

	if !ok {
		return
	}
	for _, fn := range listeners {
		fn(token)
	}
}

// OnSignOut registers fn to run whenever a session ends
func (s *Service) OnSignOut(fn func(token string)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// GetUser returns the user for a session token
func (s *Service) GetUser(token string) (*model.User, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	user := session.User
	return &user, nil
}

// createSession creates a new session for a user
func (s *Service) createSession(user *model.User) *Session {
	token := "sess_" + s.random.Token(tokenBytes)
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		UserID:    user.UID,
		User:      *user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	var expired []string

	s.mu.RLock()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			expired = append(expired, token)
		}
	}
	s.mu.RUnlock()

	for _, token := range expired {
		s.SignOut(token)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
