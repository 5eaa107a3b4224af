package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/charsheet/internal/dependencies/mocks"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, DefaultConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	_ = s.storage.Close()
}

// SignInGuest tests

func (s *ServiceSuite) TestSignInGuestSucceeds() {
	s.random.QueueID("u-1")
	s.random.QueueToken("abc")

	session, err := s.service.SignInGuest(s.ctx, "Alice", "")
	s.Require().NoError(err)

	s.Equal("sess_abc", session.Token)
	s.Equal(model.UserID("u-1"), session.UserID)
	s.Equal("Alice", *session.User.DisplayName)
	s.Nil(session.User.Email)
	s.True(session.User.IsGuest)
}

func (s *ServiceSuite) TestSignInGuestPersistsUser() {
	session, _ := s.service.SignInGuest(s.ctx, "", "alice@example.com")

	user, err := s.storage.GetUser(s.ctx, session.UserID)
	s.Require().NoError(err)
	s.Nil(user.DisplayName)
	s.Equal("alice@example.com", user.Label())
}

func (s *ServiceSuite) TestSignInGuestSessionIsValid() {
	session, _ := s.service.SignInGuest(s.ctx, "Alice", "")

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.UserID, validated.UserID)
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	session, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Alice", session.User.Label())
	s.False(session.User.IsGuest)
}

func (s *ServiceSuite) TestRegisterDefaultsDisplayNameToUsername() {
	session, err := s.service.Register(s.ctx, "alice", "password123", "")
	s.Require().NoError(err)
	s.Equal("alice", session.User.Label())
}

func (s *ServiceSuite) TestRegisterPersistsRegistration() {
	_, _ = s.service.Register(s.ctx, "alice", "password123", "Alice")

	ru, err := s.storage.GetRegisteredUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", ru.Username)
	s.NotEmpty(ru.PasswordHash)
	s.NotEqual("password123", ru.PasswordHash) // Should be hashed
}

func (s *ServiceSuite) TestRegisterFailsIfUsernameExists() {
	_, _ = s.service.Register(s.ctx, "alice", "password123", "Alice")

	_, err := s.service.Register(s.ctx, "alice", "different", "Alice2")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterRequiresCredentials() {
	_, err := s.service.Register(s.ctx, "  ", "password123", "")
	s.ErrorIs(err, ErrMissingCredentials)

	_, err = s.service.Register(s.ctx, "alice", "", "")
	s.ErrorIs(err, ErrMissingCredentials)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	registered, _ := s.service.Register(s.ctx, "alice", "password123", "Alice")

	session, err := s.service.Login(s.ctx, "alice", "password123")
	s.Require().NoError(err)

	s.NotEqual(registered.Token, session.Token)
	s.Equal(registered.UserID, session.UserID)
	s.Equal("Alice", session.User.Label())
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	_, _ = s.service.Register(s.ctx, "alice", "password123", "Alice")

	_, err := s.service.Login(s.ctx, "alice", "wrongpassword")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownUser() {
	_, err := s.service.Login(s.ctx, "nobody", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// ValidateSession tests

func (s *ServiceSuite) TestValidateSessionFailsWithInvalidToken() {
	_, err := s.service.ValidateSession("invalid_token")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenExpired() {
	session, _ := s.service.SignInGuest(s.ctx, "Alice", "")

	// Advance time past expiration
	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

// SignOut tests

func (s *ServiceSuite) TestSignOutRemovesSession() {
	session, _ := s.service.SignInGuest(s.ctx, "Alice", "")

	s.service.SignOut(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestSignOutNotifiesListeners() {
	session, _ := s.service.SignInGuest(s.ctx, "Alice", "")
	var ended []string
	s.service.OnSignOut(func(token string) { ended = append(ended, token) })

	s.service.SignOut(session.Token)
	s.service.SignOut(session.Token)

	s.Equal([]string{session.Token}, ended)
}

func (s *ServiceSuite) TestSignOutNoopForUnknownToken() {
	called := false
	s.service.OnSignOut(func(string) { called = true })

	s.service.SignOut("unknown_token")
	s.False(called)
}

// GetUser tests

func (s *ServiceSuite) TestGetUserSucceeds() {
	session, _ := s.service.SignInGuest(s.ctx, "Alice", "")

	user, err := s.service.GetUser(session.Token)
	s.Require().NoError(err)
	s.Equal("Alice", user.Label())
}

func (s *ServiceSuite) TestGetUserFailsWithInvalidToken() {
	_, err := s.service.GetUser("invalid_token")
	s.ErrorIs(err, ErrInvalidSession)
}

// CleanExpiredSessions tests

func (s *ServiceSuite) TestCleanExpiredSessionsRemovesExpired() {
	session1, _ := s.service.SignInGuest(s.ctx, "Alice", "")
	var ended []string
	s.service.OnSignOut(func(token string) { ended = append(ended, token) })

	// Advance time so session1 expires
	s.clock.Advance(25 * time.Hour)

	// Create a new session (not expired)
	session2, _ := s.service.SignInGuest(s.ctx, "Bob", "")

	s.service.CleanExpiredSessions()

	// session1 should be gone
	s.Equal([]string{session1.Token}, ended)
	_, err := s.service.ValidateSession(session1.Token)
	s.ErrorIs(err, ErrInvalidSession)

	// session2 should still be valid
	_, err = s.service.ValidateSession(session2.Token)
	s.NoError(err)
}
