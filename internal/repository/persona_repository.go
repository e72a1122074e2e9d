package repository

import (
	"context"

	"companion-server/internal/models"

	"github.com/google/uuid"
)

// PersonaRepository defines access to companion persona definitions.
type PersonaRepository interface {
	// GetByID retrieves a persona by ID. Returns models.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Persona, error)

	// List returns personas ordered by name.
	List(ctx context.Context, limit, offset int) ([]models.Persona, error)

	// Create inserts a new persona.
	Create(ctx context.Context, persona *models.Persona) error

	// Update overwrites mutable persona fields by ID.
	// Returns models.ErrNotFound if the persona does not exist.
	Update(ctx context.Context, persona *models.Persona) error

	// Delete removes a persona. Returns models.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of personas.
	Count(ctx context.Context) (int64, error)
}
