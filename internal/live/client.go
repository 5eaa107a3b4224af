package live

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/charsheet/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 16
)

// Client represents one connected live stream
type Client struct {
	userID      model.UserID
	token       string
	transport   string
	send        chan Message
	connectedAt time.Time
}

// NewClient creates a new client for a signed-in session
func NewClient(userID model.UserID, token, transport string) *Client {
	return &Client{
		userID:      userID,
		token:       token,
		transport:   transport,
		send:        make(chan Message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Messages returns the client's outgoing queue. It is closed when the
// client is removed from the hub.
func (c *Client) Messages() <-chan Message {
	return c.send
}

// offer queues msg, discarding the oldest queued messages while the buffer
// is full. Every event carries a full snapshot so newer ones supersede
// older ones. Only the hub goroutine calls offer.
func (c *Client) offer(msg Message) int {
	dropped := 0
	for {
		select {
		case c.send <- msg:
			return dropped
		default:
		}
		select {
		case <-c.send:
			dropped++
		default:
		}
	}
}

// ServeSSE streams hub events to the client as server-sent events
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, userID model.UserID, token string) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(userID, token, "sse")
	if !hub.Register(client) {
		http.Error(w, "Live updates unavailable", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	_, _ = w.Write(formatSSEMessage(EventConnected, `{"status":"connected"}`))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(formatSSEMessage(message.Event, string(message.Data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits on \n, dropping \r and a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func sortUsers(users []*model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].UID < users[j].UID })
}
