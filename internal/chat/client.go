package chat

import (
	"encoding/json"
	"strings"
	"time"

	"companion-server/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings with this period; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from the peer.
	maxMessageSize = 4096
	// Outgoing queue size per connection.
	sendQueueSize = 64
)

// Client is one websocket connection bound to a user inside a room.
type Client struct {
	userID      string
	displayName string
	roomID      string
	conn        *websocket.Conn
	send        chan []byte
}

// inboundMessage is the only shape clients may send.
type inboundMessage struct {
	Text string `json:"text"`
}

// Join attaches a websocket connection to a room and starts its read and
// write pumps. It returns immediately; the pumps own the connection from
// here on.
func (m *RoomManager) Join(conn *websocket.Conn, actor models.Actor, roomID string) {
	client := &Client{
		userID:      actor.UserID.String(),
		displayName: actor.DisplayName,
		roomID:      roomID,
		conn:        conn,
		send:        make(chan []byte, sendQueueSize),
	}
	m.register <- client

	go client.writePump(m.logger.Named("writePump"))
	go client.readPump(m)
}

// readPump reads text messages from the connection and broadcasts them to
// the room until the connection drops.
func (c *Client) readPump(m *RoomManager) {
	logger := m.logger.With(zap.String("roomID", c.roomID), zap.String("userID", c.userID))
	defer func() {
		m.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("Websocket read error", zap.Error(err))
			}
			return
		}

		var in inboundMessage
		if err := json.Unmarshal(data, &in); err != nil {
			logger.Debug("Ignoring malformed chat message", zap.Error(err))
			continue
		}
		text := strings.TrimSpace(in.Text)
		if text == "" {
			continue
		}

		m.Broadcast(c.roomID, models.ChatMessage{
			Type:       models.ChatMessageTypeText,
			RoomID:     c.roomID,
			SenderID:   c.userID,
			SenderName: c.displayName,
			Text:       text,
			SentAt:     time.Now().UTC(),
		})
	}
}

// writePump drains the send queue into the connection and keeps it alive
// with pings.
func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The manager closed the channel; say goodbye properly.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("Websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
