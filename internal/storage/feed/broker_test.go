package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/charsheet/internal/dependencies/mocks"
	"github.com/mcoot/charsheet/internal/model"
)

type stubSource struct {
	mu    sync.Mutex
	chars []*model.Character
	err   error
}

func (s *stubSource) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]*model.Character(nil), s.chars...), nil
}

func (s *stubSource) ListUsers(ctx context.Context) ([]*model.User, error) {
	return nil, nil
}

func (s *stubSource) GetAppConfig(ctx context.Context) (*model.AppConfig, error) {
	return nil, model.ErrAppConfigNotFound
}

func (s *stubSource) set(chars ...*model.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chars = chars
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type BrokerSuite struct {
	suite.Suite
	source *stubSource
	broker *Broker
	ctx    context.Context
}

func TestBrokerSuite(t *testing.T) {
	suite.Run(t, new(BrokerSuite))
}

func (s *BrokerSuite) SetupTest() {
	s.source = &stubSource{}
	s.broker = New(s.source, mocks.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), nil)
	s.ctx = context.Background()
}

func (s *BrokerSuite) TearDownTest() {
	s.broker.Close()
}

func (s *BrokerSuite) TestInitialSnapshot() {
	s.source.set(&model.Character{ID: "silva"})

	sub, err := s.broker.Subscribe(s.ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	defer sub.Close()

	snap := <-sub.Events()
	s.Equal(uint64(1), snap.Version)
	s.Contains(snap.Characters, model.CharacterID("silva"))
}

func (s *BrokerSuite) TestPublishCoalesces() {
	sub, err := s.broker.Subscribe(s.ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	defer sub.Close()

	s.source.set(&model.Character{ID: "a"})
	s.broker.Publish(s.ctx, model.CollectionCharacters)
	s.source.set(&model.Character{ID: "a"}, &model.Character{ID: "b"})
	s.broker.Publish(s.ctx, model.CollectionCharacters)

	snap := <-sub.Events()
	s.Len(snap.Characters, 2)
	s.Equal(uint64(3), snap.Version)
}

func (s *BrokerSuite) TestPublishFansOut() {
	first, err := s.broker.Subscribe(s.ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	defer first.Close()
	second, err := s.broker.Subscribe(s.ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	defer second.Close()
	<-first.Events()
	<-second.Events()

	s.source.set(&model.Character{ID: "a"})
	s.broker.Publish(s.ctx, model.CollectionCharacters)

	s.Len((<-first.Events()).Characters, 1)
	s.Len((<-second.Events()).Characters, 1)
}

func (s *BrokerSuite) TestPublishWithoutSubscribersSkipsLoad() {
	s.source.fail(errors.New("should not be read"))

	s.broker.Publish(s.ctx, model.CollectionCharacters)
}

func (s *BrokerSuite) TestLoadFailureGoesToErrors() {
	sub, err := s.broker.Subscribe(s.ctx, model.CollectionCharacters)
	s.Require().NoError(err)
	defer sub.Close()
	<-sub.Events()

	boom := errors.New("disk on fire")
	s.source.fail(boom)
	s.broker.Publish(s.ctx, model.CollectionCharacters)

	s.ErrorIs(<-sub.Errors(), boom)
}

func (s *BrokerSuite) TestCloseRemovesSubscriber() {
	sub, err := s.broker.Subscribe(s.ctx, model.CollectionUsers)
	s.Require().NoError(err)
	s.Equal(1, s.broker.Subscribers(model.CollectionUsers))

	sub.Close()

	s.Eventually(func() bool {
		return s.broker.Subscribers(model.CollectionUsers) == 0
	}, time.Second, 10*time.Millisecond)
}

func (s *BrokerSuite) TestSubscribeAfterCloseFails() {
	s.broker.Close()

	_, err := s.broker.Subscribe(s.ctx, model.CollectionCharacters)
	s.ErrorIs(err, ErrClosed)
}
