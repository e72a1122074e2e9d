package repository

import (
	"context"
	"errors"
	"time"

	"companion-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository creates a new Postgres-backed StoryRepository.
func NewPgStoryRepository(pool *pgxpool.Pool, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		pool:   pool,
		logger: logger.Named("PgStoryRepo"),
	}
}

const getStoryQuery = `
SELECT id, title, description, protagonist_id, tags, opening_situation, is_published, created_at, updated_at
FROM stories
WHERE id = $1`

const listPublishedStoriesQuery = `
SELECT id, title, description, protagonist_id, tags, opening_situation, is_published, created_at, updated_at
FROM stories
WHERE is_published AND ($1 = '' OR $1 = ANY(tags))
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

const listStoriesQuery = `
SELECT id, title, description, protagonist_id, tags, opening_situation, is_published, created_at, updated_at
FROM stories
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

const insertStoryQuery = `
INSERT INTO stories (id, title, description, protagonist_id, tags, opening_situation, is_published, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const updateStoryQuery = `
UPDATE stories
SET title = $2, description = $3, protagonist_id = $4, tags = $5, opening_situation = $6, updated_at = $7
WHERE id = $1`

const setStoryPublishedQuery = `
UPDATE stories SET is_published = $2, updated_at = $3 WHERE id = $1`

const deleteStoryQuery = `DELETE FROM stories WHERE id = $1`

const countStoriesQuery = `SELECT COUNT(*) FROM stories`

func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	story := &models.Story{}
	var tags pq.StringArray
	err := r.pool.QueryRow(ctx, getStoryQuery, id).Scan(
		&story.ID,
		&story.Title,
		&story.Description,
		&story.ProtagonistID,
		&tags,
		&story.OpeningSituation,
		&story.IsPublished,
		&story.CreatedAt,
		&story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.Stringer("storyID", id), zap.Error(err))
		return nil, err
	}
	story.Tags = []string(tags)
	return story, nil
}

func (r *pgStoryRepository) ListPublished(ctx context.Context, tag string, limit, offset int) ([]models.Story, error) {
	var stories []models.Story
	if err := pgxscan.Select(ctx, r.pool, &stories, listPublishedStoriesQuery, tag, limit, offset); err != nil {
		r.logger.Error("Failed to list published stories", zap.String("tag", tag), zap.Error(err))
		return nil, err
	}
	return stories, nil
}

func (r *pgStoryRepository) List(ctx context.Context, limit, offset int) ([]models.Story, error) {
	var stories []models.Story
	if err := pgxscan.Select(ctx, r.pool, &stories, listStoriesQuery, limit, offset); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, err
	}
	return stories, nil
}

func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	now := time.Now().UTC()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = now

	_, err := r.pool.Exec(ctx, insertStoryQuery,
		story.ID,
		story.Title,
		story.Description,
		story.ProtagonistID,
		pq.Array(story.Tags),
		story.OpeningSituation,
		story.IsPublished,
		story.CreatedAt,
		story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert story", zap.Stringer("storyID", story.ID), zap.Error(err))
		return err
	}
	r.logger.Debug("Story created", zap.Stringer("storyID", story.ID))
	return nil
}

func (r *pgStoryRepository) Update(ctx context.Context, story *models.Story) error {
	story.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.pool.Exec(ctx, updateStoryQuery,
		story.ID,
		story.Title,
		story.Description,
		story.ProtagonistID,
		pq.Array(story.Tags),
		story.OpeningSituation,
		story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update story", zap.Stringer("storyID", story.ID), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	cmdTag, err := r.pool.Exec(ctx, setStoryPublishedQuery, id, published, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to set story publication", zap.Stringer("storyID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.pool.Exec(ctx, deleteStoryQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.Stringer("storyID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Story deleted", zap.Stringer("storyID", id))
	return nil
}

func (r *pgStoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, countStoriesQuery).Scan(&count); err != nil {
		r.logger.Error("Failed to count stories", zap.Error(err))
		return 0, err
	}
	return count, nil
}
