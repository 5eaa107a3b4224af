package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/charsheet/internal/model"
)

// Time allowed to read the next pong from the peer
const pongWait = pingPeriod + writeWait

// Upgrader upgrades API requests to WebSocket connections.
// Origins are not checked because every stream requires a session token.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS streams hub events over a WebSocket as JSON text frames of the
// form {"type": event, "data": payload}. Incoming frames are ignored.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, userID model.UserID, token string, logger *slog.Logger) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := NewClient(userID, token, "websocket")
	if !hub.Register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "live updates unavailable"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go readPump(conn, hub, client)
	writePump(conn, client)
}

// readPump discards incoming frames until the peer goes away
func readPump(conn *websocket.Conn, hub *Hub, client *Client) {
	defer func() {
		hub.Unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	if err := writeJSON(conn, Message{Event: EventConnected, Data: json.RawMessage(`{"status":"connected"}`)}); err != nil {
		return
	}

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := writeJSON(conn, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
