package repository

import (
	"context"

	"companion-server/internal/models"

	"github.com/google/uuid"
)

// StoryRepository defines access to the story catalog.
type StoryRepository interface {
	// GetByID retrieves a story by ID. Returns models.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)

	// ListPublished returns published stories, newest first, optionally
	// filtered by tag (empty tag means no filter).
	ListPublished(ctx context.Context, tag string, limit, offset int) ([]models.Story, error)

	// List returns all stories regardless of publication state (admin view).
	List(ctx context.Context, limit, offset int) ([]models.Story, error)

	// Create inserts a new story.
	Create(ctx context.Context, story *models.Story) error

	// Update overwrites mutable story fields by ID.
	// Returns models.ErrNotFound if the story does not exist.
	Update(ctx context.Context, story *models.Story) error

	// SetPublished flips the publication flag.
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error

	// Delete removes a story. Returns models.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of stories.
	Count(ctx context.Context) (int64, error)
}
