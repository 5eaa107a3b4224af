// Package storagetest holds the behaviour every storage backend must share
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
)

const waitTimeout = 2 * time.Second

// ConformanceSuite runs against any storage.Storage. Set NewStorage to a
// constructor returning an empty store.
type ConformanceSuite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

func (s *ConformanceSuite) SetupTest() {
	s.Storage = s.NewStorage(s.T())
	s.Ctx = context.Background()
}

func (s *ConformanceSuite) TearDownTest() {
	if s.Storage != nil {
		s.Require().NoError(s.Storage.Close())
	}
}

// Character builds a small consistent character
func Character(id model.CharacterID, name string) *model.Character {
	return &model.Character{
		ID:        id,
		Name:      name,
		Strength:  3,
		Agility:   4,
		Wits:      2,
		Empathy:   3,
		Health:    3,
		MaxHealth: 3,
		Skills:    map[string]int{"Ranged Combat": 2},
		Gear:      []string{"M4A3 Service Pistol", "Flashlight"},
		Weapons: []model.Weapon{
			{Name: "M4A3 Service Pistol", Bonus: 2, Damage: 1, Range: "Medium", Skill: model.SkillRangedCombat},
		},
		CriticalInjuries: []string{},
	}
}

// Next waits for the next snapshot on a subscription
func (s *ConformanceSuite) Next(sub *storage.Subscription) *model.Snapshot {
	select {
	case snap, ok := <-sub.Events():
		s.Require().True(ok, "subscription closed")
		return snap
	case <-time.After(waitTimeout):
		s.FailNow("timed out waiting for snapshot")
		return nil
	}
}

// Await reads snapshots until cond holds
func (s *ConformanceSuite) Await(sub *storage.Subscription, cond func(*model.Snapshot) bool) *model.Snapshot {
	deadline := time.After(waitTimeout)
	for {
		select {
		case snap, ok := <-sub.Events():
			s.Require().True(ok, "subscription closed")
			if cond(snap) {
				return snap
			}
		case <-deadline:
			s.FailNow("timed out waiting for matching snapshot")
			return nil
		}
	}
}

// Character tests

func (s *ConformanceSuite) TestPutAndGetCharacter() {
	c := Character("silva", "Silva")
	uid := model.UserID("user-1")
	c.AssignedUserID = &uid

	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, c))

	got, err := s.Storage.GetCharacter(s.Ctx, "silva")
	s.Require().NoError(err)
	s.Equal(c, got)
}

func (s *ConformanceSuite) TestGetCharacterNotFound() {
	_, err := s.Storage.GetCharacter(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *ConformanceSuite) TestPutCharacterOverwrites() {
	c := Character("silva", "Silva")
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, c))

	c.Stress = 5
	c.Gear = append(c.Gear, "Flare")
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, c))

	got, err := s.Storage.GetCharacter(s.Ctx, "silva")
	s.Require().NoError(err)
	s.Equal(5, got.Stress)
	s.Contains(got.Gear, "Flare")
}

func (s *ConformanceSuite) TestReturnedCharacterIsACopy() {
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, Character("silva", "Silva")))

	got, err := s.Storage.GetCharacter(s.Ctx, "silva")
	s.Require().NoError(err)
	got.Gear[0] = "changed"

	again, err := s.Storage.GetCharacter(s.Ctx, "silva")
	s.Require().NoError(err)
	s.Equal("M4A3 Service Pistol", again.Gear[0])
}

func (s *ConformanceSuite) TestListAndCountCharacters() {
	n, err := s.Storage.CountCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, Character("silva", "Silva")))
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, Character("chaplain", "Chaplain")))
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, Character("dante", "Dante")))

	n, err = s.Storage.CountCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Equal(3, n)

	chars, err := s.Storage.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(chars, 3)
	s.Equal("Chaplain", chars[0].Name)
	s.Equal("Dante", chars[1].Name)
	s.Equal("Silva", chars[2].Name)
}

// User tests

func (s *ConformanceSuite) TestPutAndGetUser() {
	name := "Ripley"
	u := &model.User{UID: "user-1", DisplayName: &name, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	s.Require().NoError(s.Storage.PutUser(s.Ctx, u))

	got, err := s.Storage.GetUser(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(u, got)

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Len(users, 1)
}

func (s *ConformanceSuite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ConformanceSuite) TestRegisteredUserByUsername() {
	ru := &model.RegisteredUser{UID: "user-1", Username: "ripley", PasswordHash: "hash", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.Require().NoError(s.Storage.PutRegisteredUser(s.Ctx, ru))

	got, err := s.Storage.GetRegisteredUserByUsername(s.Ctx, "ripley")
	s.Require().NoError(err)
	s.Equal(ru, got)

	_, err = s.Storage.GetRegisteredUserByUsername(s.Ctx, "hicks")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// App config tests

func (s *ConformanceSuite) TestAppConfigAbsentUntilWritten() {
	_, err := s.Storage.GetAppConfig(s.Ctx)
	s.ErrorIs(err, model.ErrAppConfigNotFound)

	gm := model.UserID("gm-1")
	s.Require().NoError(s.Storage.PutAppConfig(s.Ctx, &model.AppConfig{GMUserID: &gm}))

	cfg, err := s.Storage.GetAppConfig(s.Ctx)
	s.Require().NoError(err)
	s.True(cfg.IsGM("gm-1"))
}

// Subscription tests

func (s *ConformanceSuite) TestSubscribeDeliversInitialSnapshot() {
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, Character("silva", "Silva")))

	sub, err := s.Storage.Subscribe(s.Ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	defer sub.Close()

	snap := s.Next(sub)
	s.Equal(model.CollectionCharacters, snap.Collection)
	s.Contains(snap.Characters, model.CharacterID("silva"))
}

func (s *ConformanceSuite) TestSubscribeDeliversWrites() {
	sub, err := s.Storage.Subscribe(s.Ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	defer sub.Close()
	s.Empty(s.Next(sub).Characters)

	c := Character("silva", "Silva")
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, c))
	c.Stress = 7
	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, c))

	snap := s.Await(sub, func(snap *model.Snapshot) bool {
		got, ok := snap.Characters["silva"]
		return ok && got.Stress == 7
	})
	s.Len(snap.Characters, 1)
}

func (s *ConformanceSuite) TestSubscribeConfigAndUsers() {
	cfgSub, err := s.Storage.Subscribe(s.Ctx, model.CollectionConfig)
	s.Require().NoError(err)
	defer cfgSub.Close()
	s.Nil(s.Next(cfgSub).AppConfig)

	userSub, err := s.Storage.Subscribe(s.Ctx, model.CollectionUsers)
	s.Require().NoError(err)
	defer userSub.Close()
	s.Empty(s.Next(userSub).Users)

	gm := model.UserID("gm-1")
	s.Require().NoError(s.Storage.PutAppConfig(s.Ctx, &model.AppConfig{GMUserID: &gm}))
	s.Require().NoError(s.Storage.PutUser(s.Ctx, &model.User{UID: "gm-1"}))

	s.Await(cfgSub, func(snap *model.Snapshot) bool { return snap.AppConfig.IsGM("gm-1") })
	s.Await(userSub, func(snap *model.Snapshot) bool { return len(snap.Users) == 1 })
}

func (s *ConformanceSuite) TestSubscribeUnknownCollection() {
	_, err := s.Storage.Subscribe(s.Ctx, "dice")
	s.ErrorIs(err, storage.ErrUnknownCollection)
}

func (s *ConformanceSuite) TestCloseStopsDelivery() {
	sub, err := s.Storage.Subscribe(s.Ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	s.Next(sub)

	sub.Close()
	sub.Close()

	s.Require().NoError(s.Storage.PutCharacter(s.Ctx, Character("silva", "Silva")))
	s.drainUntilClosed(sub)
}

func (s *ConformanceSuite) TestContextCancelStopsDelivery() {
	ctx, cancel := context.WithCancel(s.Ctx)
	sub, err := s.Storage.Subscribe(ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	s.Next(sub)

	cancel()
	s.drainUntilClosed(sub)
}

// drainUntilClosed tolerates at most one in-flight snapshot before close
func (s *ConformanceSuite) drainUntilClosed(sub *storage.Subscription) {
	deadline := time.After(waitTimeout)
	received := 0
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				s.LessOrEqual(received, 1)
				return
			}
			received++
		case <-deadline:
			s.FailNow("subscription was not closed")
			return
		}
	}
}
