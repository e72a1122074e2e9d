package models

import "time"

// ChatMessageType discriminates payloads fanned out to room members.
type ChatMessageType string

const (
	ChatMessageTypeText   ChatMessageType = "text"
	ChatMessageTypeJoin   ChatMessageType = "join"
	ChatMessageTypeLeave  ChatMessageType = "leave"
	ChatMessageTypeSystem ChatMessageType = "system"
)

// ChatMessage is one message broadcast inside a group chat room.
// Rooms are ephemeral; messages are not persisted.
type ChatMessage struct {
	Type       ChatMessageType `json:"type"`
	RoomID     string          `json:"roomId"`
	SenderID   string          `json:"senderId,omitempty"`
	SenderName string          `json:"senderName,omitempty"`
	Text       string          `json:"text,omitempty"`
	SentAt     time.Time       `json:"sentAt"`
}
