package models

import (
	"time"

	"github.com/google/uuid"
)

// Persona is an admin-authored companion character definition. The turn
// engine reads it fresh on every call; gameplay never mutates it.
type Persona struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StyleTags []string  `db:"style_tags" json:"styleTags"`
	VoiceTone string    `db:"voice_tone" json:"voiceTone"`
	Greeting  string    `db:"greeting" json:"greeting,omitempty"`
	AvatarURL string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
