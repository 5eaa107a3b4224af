package live

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/storage"
	"github.com/mcoot/charsheet/internal/storage/memory"
	"github.com/mcoot/charsheet/internal/testutil"
)

func TestFollowStreamsStorageWrites(t *testing.T) {
	store := memory.New()
	defer store.Close()
	hub := newHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, store, hub, testutil.NopLogger()) }()

	client := NewClient("gm", "tok", "sse")
	require.True(t, hub.Register(client))

	require.NoError(t, store.PutCharacter(ctx, character("silva", "Silva", "")))
	gm := model.UserID("gm")
	require.NoError(t, store.PutAppConfig(ctx, &model.AppConfig{GMUserID: &gm}))

	assert.Eventually(t, func() bool {
		select {
		case msg := <-client.Messages():
			if msg.Event != EventCharacters {
				return false
			}
			var event RosterEvent
			require.NoError(t, json.Unmarshal(msg.Data, &event))
			return event.Viewer.State == access.StateGM && len(event.Characters) == 1
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestFollowEndsWhenStorageCloses(t *testing.T) {
	store := memory.New()
	hub := newHub(t)

	done := make(chan error, 1)
	go func() { done <- Follow(context.Background(), store, hub, testutil.NopLogger()) }()

	// let the subscriptions start
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, store.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after storage closed")
	}
}

// trackingStore records every subscription so a test can end one early
type trackingStore struct {
	storage.Storage

	mu   sync.Mutex
	subs map[model.Collection][]*storage.Subscription
}

func (s *trackingStore) Subscribe(ctx context.Context, collection model.Collection) (*storage.Subscription, error) {
	sub, err := s.Storage.Subscribe(ctx, collection)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[collection] = append(s.subs[collection], sub)
	return sub, nil
}

func (s *trackingStore) count(collection model.Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[collection])
}

func (s *trackingStore) end(collection model.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[collection][0].Close()
}

func TestFollowResubscribesWhenFeedEnds(t *testing.T) {
	mem := memory.New()
	defer mem.Close()
	store := &trackingStore{Storage: mem, subs: make(map[model.Collection][]*storage.Subscription)}
	hub := newHub(t)
	logger, logs := testutil.CaptureLogger()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, store, hub, logger) }()

	require.Eventually(t, func() bool {
		return store.count(model.CollectionCharacters) == 1
	}, time.Second, 5*time.Millisecond)

	store.end(model.CollectionCharacters)

	require.Eventually(t, func() bool {
		return store.count(model.CollectionCharacters) == 2
	}, 2*time.Second, 5*time.Millisecond)
	entry, ok := logs.Find("live feed ended, resubscribing")
	require.True(t, ok)
	assert.Equal(t, string(model.CollectionCharacters), entry["collection"])

	select {
	case err := <-done:
		t.Fatalf("Follow returned after one feed ended: %v", err)
	default:
	}

	client := NewClient("gm", "tok", "sse")
	require.True(t, hub.Register(client))
	require.NoError(t, store.PutCharacter(ctx, character("hoop", "Hoop", "")))
	gm := model.UserID("gm")
	require.NoError(t, store.PutAppConfig(ctx, &model.AppConfig{GMUserID: &gm}))

	assert.Eventually(t, func() bool {
		select {
		case msg := <-client.Messages():
			if msg.Event != EventCharacters {
				return false
			}
			var event RosterEvent
			require.NoError(t, json.Unmarshal(msg.Data, &event))
			return event.Viewer.State == access.StateGM && len(event.Characters) == 1
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}
