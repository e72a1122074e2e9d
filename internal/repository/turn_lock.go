package repository

import (
	"context"

	"github.com/google/uuid"
)

// TurnLock serializes advanceTurn calls per (user, story) pair.
// Acquire returns false when another turn currently holds the lease.
type TurnLock interface {
	Acquire(ctx context.Context, userID, storyID uuid.UUID) (bool, error)
	Release(ctx context.Context, userID, storyID uuid.UUID) error
}
