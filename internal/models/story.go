package models

import (
	"time"

	"github.com/google/uuid"
)

// Story is an interactive story definition from the catalog. Admin-authored,
// read-only to the turn engine.
type Story struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	ProtagonistID uuid.UUID `db:"protagonist_id" json:"protagonistId"`
	// Tags are for discovery and filtering only; the turn engine ignores them.
	Tags             []string  `db:"tags" json:"tags"`
	OpeningSituation string    `db:"opening_situation" json:"openingSituation"`
	IsPublished      bool      `db:"is_published" json:"isPublished"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
