package repository

import (
	"context"

	"companion-server/internal/models"

	"github.com/google/uuid"
)

// ProgressRepository defines access to per-(user, story) narrative progress.
type ProgressRepository interface {
	// Get retrieves the progress record with its full ordered history.
	// Returns models.ErrNotFound if no record exists.
	Get(ctx context.Context, userID, storyID uuid.UUID) (*models.ProgressRecord, error)

	// ApplyTurn persists one completed turn as a single transaction:
	// it creates the record on the first turn (history = [turnRecord]),
	// otherwise replaces the current context and appends the turn record.
	// expectedVersion must match the stored row; on mismatch the write is
	// aborted with models.ErrProgressConflict. For a first turn pass 0.
	// Readers never observe the context replacement without the matching
	// history append.
	ApplyTurn(ctx context.Context, userID, storyID uuid.UUID, expectedVersion int64,
		snapshot models.ProgressSnapshot, turnContext models.TurnContext,
		turnRecord models.TurnRecord) (*models.ProgressRecord, error)

	// ListForUser returns the user's progress records without history,
	// most recently played first.
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ProgressRecord, error)

	// Delete removes a progress record and its history.
	// Deleting an absent record is not an error.
	Delete(ctx context.Context, userID, storyID uuid.UUID) error

	// CountPlayersAndTurns aggregates catalog-wide gameplay stats.
	CountPlayersAndTurns(ctx context.Context) (players int64, turns int64, err error)
}
