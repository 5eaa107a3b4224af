package live

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "characters",
			data:      `{"version":1}`,
			expected:  "event: characters\ndata: {\"version\":1}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "characters",
			data:      "{\n  \"version\": 1\n}",
			expected:  "event: characters\ndata: {\ndata:   \"version\": 1\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.eventName, tt.data)))
		})
	}
}

func newHub(t *testing.T) *Hub {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func rosterSnapshot(version uint64, chars ...*model.Character) *model.Snapshot {
	snap := &model.Snapshot{
		Collection: model.CollectionCharacters,
		Characters: map[model.CharacterID]*model.Character{},
		Version:    version,
	}
	for _, c := range chars {
		snap.Characters[c.ID] = c
	}
	return snap
}

func character(id, name, holder string) *model.Character {
	c := &model.Character{ID: model.CharacterID(id), Name: name}
	if holder != "" {
		u := model.UserID(holder)
		c.AssignedUserID = &u
	}
	return c
}

func gmConfig(uid string) *model.Snapshot {
	u := model.UserID(uid)
	return &model.Snapshot{Collection: model.CollectionConfig, AppConfig: &model.AppConfig{GMUserID: &u}}
}

func next(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.Messages():
		require.True(t, ok, "client channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return Message{}
	}
}

func nextRoster(t *testing.T, c *Client) RosterEvent {
	t.Helper()
	msg := next(t, c)
	require.Equal(t, EventCharacters, msg.Event)
	var event RosterEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	return event
}

func TestNewClientReceivesCurrentRoster(t *testing.T) {
	hub := newHub(t)
	hub.Publish(rosterSnapshot(3, character("silva", "Silva", ""), character("dante", "Dante", "")))

	client := NewClient("u-1", "tok", "sse")
	require.True(t, hub.Register(client))

	event := nextRoster(t, client)
	assert.Equal(t, uint64(3), event.Version)
	assert.Equal(t, access.StatePlayerUnclaimed, event.Viewer.State)
	require.Len(t, event.Characters, 2)
	assert.Equal(t, "Dante", event.Characters[0].Name)
}

func TestClaimedPlayerOnlySeesOwnCharacter(t *testing.T) {
	hub := newHub(t)
	client := NewClient("u-1", "tok", "sse")
	require.True(t, hub.Register(client))

	hub.Publish(rosterSnapshot(1, character("silva", "Silva", "u-1"), character("dante", "Dante", "u-2")))

	event := nextRoster(t, client)
	assert.Equal(t, access.StatePlayerClaimed, event.Viewer.State)
	require.Len(t, event.Characters, 1)
	assert.Equal(t, model.CharacterID("silva"), event.Characters[0].ID)
}

func TestGMDesignationRebroadcastsRoster(t *testing.T) {
	hub := newHub(t)
	client := NewClient("gm", "tok", "websocket")
	require.True(t, hub.Register(client))

	hub.Publish(rosterSnapshot(1, character("silva", "Silva", "")))
	assert.Equal(t, access.StatePlayerUnclaimed, nextRoster(t, client).Viewer.State)

	hub.Publish(gmConfig("gm"))
	assert.Equal(t, access.StateGM, nextRoster(t, client).Viewer.State)
}

func TestUsersOnlyReachGM(t *testing.T) {
	hub := newHub(t)
	gm := NewClient("gm", "tok-gm", "sse")
	player := NewClient("u-1", "tok-p", "sse")
	require.True(t, hub.Register(gm))
	require.True(t, hub.Register(player))

	hub.Publish(gmConfig("gm"))
	hub.Publish(rosterSnapshot(1))
	nextRoster(t, gm)
	nextRoster(t, player)

	name := "Alice"
	hub.Publish(&model.Snapshot{
		Collection: model.CollectionUsers,
		Users:      map[model.UserID]*model.User{"u-1": {UID: "u-1", DisplayName: &name}},
		Version:    2,
	})

	msg := next(t, gm)
	assert.Equal(t, EventUsers, msg.Event)
	var event UsersEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	require.Len(t, event.Users, 1)
	assert.Equal(t, "Alice", event.Users[0].Label())

	select {
	case msg := <-player.Messages():
		t.Fatalf("player received %s", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSignOutClosesOnlyThatSession(t *testing.T) {
	hub := newHub(t)
	first := NewClient("u-1", "tok-1", "sse")
	second := NewClient("u-1", "tok-2", "sse")
	require.True(t, hub.Register(first))
	require.True(t, hub.Register(second))

	hub.SignOut("tok-1")

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, ok := <-first.Messages()
	assert.False(t, ok)
}

func TestSlowClientKeepsNewestSnapshot(t *testing.T) {
	hub := newHub(t)
	client := NewClient("u-1", "tok", "sse")
	require.True(t, hub.Register(client))

	for v := uint64(1); v <= sendBufferSize*2; v++ {
		hub.Publish(rosterSnapshot(v))
	}

	var last RosterEvent
	assert.Eventually(t, func() bool {
		for {
			select {
			case msg := <-client.Messages():
				_ = json.Unmarshal(msg.Data, &last)
			default:
				return last.Version == sendBufferSize*2
			}
		}
	}, time.Second, 5*time.Millisecond)
}

func TestUnregisterClosesClient(t *testing.T) {
	hub := newHub(t)
	client := NewClient("u-1", "tok", "sse")
	require.True(t, hub.Register(client))

	hub.Unregister(client)

	_, ok := <-client.Messages()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestRegisterAfterCloseFails(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	hub.Close()

	assert.False(t, hub.Register(NewClient("u-1", "tok", "sse")))
}
