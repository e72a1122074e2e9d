package chat

import (
	"encoding/json"
	"sync"
	"time"

	"companion-server/internal/models"

	"go.uber.org/zap"
)

// RoomManager owns all active chat rooms and their client connections.
// Rooms exist while they have members; messages are not persisted.
type RoomManager struct {
	rooms      map[string]map[string]*Client // roomID -> userID -> client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewRoomManager creates and starts a room manager.
func NewRoomManager(logger *zap.Logger) *RoomManager {
	m := &RoomManager{
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.Named("ChatRoomManager"),
	}
	go m.run()
	return m
}

func (m *RoomManager) run() {
	for {
		select {
		case client := <-m.register:
			m.addClient(client)
			m.Broadcast(client.roomID, models.ChatMessage{
				Type:       models.ChatMessageTypeJoin,
				RoomID:     client.roomID,
				SenderID:   client.userID,
				SenderName: client.displayName,
				SentAt:     time.Now().UTC(),
			})

		case client := <-m.unregister:
			if m.removeClient(client) {
				m.Broadcast(client.roomID, models.ChatMessage{
					Type:       models.ChatMessageTypeLeave,
					RoomID:     client.roomID,
					SenderID:   client.userID,
					SenderName: client.displayName,
					SentAt:     time.Now().UTC(),
				})
			}
		}
	}
}

func (m *RoomManager) addClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[client.roomID]
	if !ok {
		room = make(map[string]*Client)
		m.rooms[client.roomID] = room
	}
	// One connection per user per room; a reconnect replaces the old one.
	if old, ok := room[client.userID]; ok {
		m.logger.Debug("Replacing existing room connection",
			zap.String("roomID", client.roomID), zap.String("userID", client.userID))
		close(old.send)
		_ = old.conn.Close()
	}
	room[client.userID] = client
	m.logger.Info("Client joined room",
		zap.String("roomID", client.roomID),
		zap.String("userID", client.userID),
		zap.Int("members", len(room)),
	)
}

// removeClient reports whether the client was actually a room member; a
// client replaced by a reconnect unregisters without being one anymore.
func (m *RoomManager) removeClient(client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[client.roomID]
	if !ok {
		return false
	}
	current, ok := room[client.userID]
	if !ok || current != client {
		return false
	}
	delete(room, client.userID)
	close(client.send)
	if len(room) == 0 {
		delete(m.rooms, client.roomID)
	}
	m.logger.Info("Client left room",
		zap.String("roomID", client.roomID),
		zap.String("userID", client.userID),
	)
	return true
}

// Broadcast fans a message out to every member of a room. Slow clients with
// a full send queue are skipped, not waited on.
func (m *RoomManager) Broadcast(roomID string, msg models.ChatMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("Failed to marshal chat message", zap.String("roomID", roomID), zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.rooms[roomID] {
		select {
		case client.send <- data:
		default:
			m.logger.Warn("Dropping chat message, client send queue full",
				zap.String("roomID", roomID), zap.String("userID", client.userID))
		}
	}
}

// RoomSize returns the current number of members in a room.
func (m *RoomManager) RoomSize(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}
