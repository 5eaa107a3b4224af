package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/services/access"
)

// Event names sent to clients
const (
	EventConnected  = "connected"
	EventCharacters = "characters"
	EventUsers      = "users"
)

// Message is one event queued for a client
type Message struct {
	Event string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// RosterEvent is the per-viewer view of a characters snapshot
type RosterEvent struct {
	Version    uint64             `json:"version"`
	Viewer     access.Viewer      `json:"viewer"`
	Characters []*model.Character `json:"characters"`
}

// UsersEvent lists known users. Only the GM receives it.
type UsersEvent struct {
	Version uint64        `json:"version"`
	Users   []*model.User `json:"users"`
}

// Hub fans storage snapshots out to connected clients. Each client gets
// the roster filtered by its own access state, re-resolved on every change.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	snapshots  chan *model.Snapshot
	signOut    chan string
	done       chan struct{}
	closeOnce  sync.Once

	// Latest state, owned by Run
	roster *model.Snapshot
	users  *model.Snapshot
	config *model.AppConfig
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "live")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		snapshots:  make(chan *model.Snapshot, 16),
		signOut:    make(chan string, 16),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("live hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("live client registered",
				slog.String("user_id", string(client.userID)),
				slog.String("transport", client.transport),
				slog.Int("total_clients", clientCount))
			h.sendState(client)

		case client := <-h.unregister:
			h.remove(client, "unregistered")

		case snap := <-h.snapshots:
			h.apply(snap)

		case token := <-h.signOut:
			h.mu.RLock()
			var ended []*Client
			for client := range h.clients {
				if client.token == token {
					ended = append(ended, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range ended {
				h.remove(client, "signed out")
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("live hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register adds a client to the hub. It reports false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish hands a storage snapshot to the hub
func (h *Hub) Publish(snap *model.Snapshot) {
	select {
	case h.snapshots <- snap:
	case <-h.done:
	}
}

// SignOut disconnects every client opened with token
func (h *Hub) SignOut(token string) {
	select {
	case h.signOut <- token:
	case <-h.done:
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("live client "+reason,
		slog.String("user_id", string(client.userID)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

func (h *Hub) apply(snap *model.Snapshot) {
	switch snap.Collection {
	case model.CollectionCharacters:
		h.roster = snap
	case model.CollectionUsers:
		h.users = snap
	case model.CollectionConfig:
		h.config = snap.AppConfig
		if h.roster == nil {
			return
		}
	default:
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if snap.Collection == model.CollectionUsers {
			h.sendUsers(client, h.viewer(client))
			continue
		}
		h.sendState(client)
	}
}

// sendState delivers the current roster, plus users for the GM
func (h *Hub) sendState(client *Client) {
	if h.roster == nil {
		return
	}
	viewer := h.viewer(client)

	event := RosterEvent{
		Version:    h.roster.Version,
		Viewer:     viewer,
		Characters: make([]*model.Character, 0, len(h.roster.Characters)),
	}
	for id, c := range h.roster.Characters {
		if viewer.CanView(id) {
			event.Characters = append(event.Characters, c)
		}
	}
	model.SortCharactersByName(event.Characters)
	h.send(client, EventCharacters, event)
	h.sendUsers(client, viewer)
}

func (h *Hub) sendUsers(client *Client, viewer access.Viewer) {
	if h.users == nil || !viewer.CanAdminister() {
		return
	}
	event := UsersEvent{Version: h.users.Version, Users: make([]*model.User, 0, len(h.users.Users))}
	for _, u := range h.users.Users {
		event.Users = append(event.Users, u)
	}
	sortUsers(event.Users)
	h.send(client, EventUsers, event)
}

func (h *Hub) viewer(client *Client) access.Viewer {
	roster := make([]*model.Character, 0)
	if h.roster != nil {
		for _, c := range h.roster.Characters {
			roster = append(roster, c)
		}
	}
	return access.SignedIn(client.userID).Resolve(h.config, roster)
}

func (h *Hub) send(client *Client, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("live failed to encode event",
			slog.String("event", event),
			slog.Any("error", err))
		return
	}
	if dropped := client.offer(Message{Event: event, Data: data}); dropped > 0 {
		h.logger.Warn("live client behind - dropped stale events",
			slog.String("user_id", string(client.userID)),
			slog.Int("dropped", dropped))
	}
}
