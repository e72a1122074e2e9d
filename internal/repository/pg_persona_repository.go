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

var _ PersonaRepository = (*pgPersonaRepository)(nil)

type pgPersonaRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgPersonaRepository creates a new Postgres-backed PersonaRepository.
func NewPgPersonaRepository(pool *pgxpool.Pool, logger *zap.Logger) PersonaRepository {
	return &pgPersonaRepository{
		pool:   pool,
		logger: logger.Named("PgPersonaRepo"),
	}
}

const getPersonaQuery = `
SELECT id, name, style_tags, voice_tone, greeting, avatar_url, created_at, updated_at
FROM personas
WHERE id = $1`

const listPersonasQuery = `
SELECT id, name, style_tags, voice_tone, greeting, avatar_url, created_at, updated_at
FROM personas
ORDER BY name
LIMIT $1 OFFSET $2`

const insertPersonaQuery = `
INSERT INTO personas (id, name, style_tags, voice_tone, greeting, avatar_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const updatePersonaQuery = `
UPDATE personas
SET name = $2, style_tags = $3, voice_tone = $4, greeting = $5, avatar_url = $6, updated_at = $7
WHERE id = $1`

const deletePersonaQuery = `DELETE FROM personas WHERE id = $1`

const countPersonasQuery = `SELECT COUNT(*) FROM personas`

func (r *pgPersonaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Persona, error) {
	persona := &models.Persona{}
	var styleTags pq.StringArray
	err := r.pool.QueryRow(ctx, getPersonaQuery, id).Scan(
		&persona.ID,
		&persona.Name,
		&styleTags,
		&persona.VoiceTone,
		&persona.Greeting,
		&persona.AvatarURL,
		&persona.CreatedAt,
		&persona.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get persona", zap.Stringer("personaID", id), zap.Error(err))
		return nil, err
	}
	persona.StyleTags = []string(styleTags)
	return persona, nil
}

func (r *pgPersonaRepository) List(ctx context.Context, limit, offset int) ([]models.Persona, error) {
	var personas []models.Persona
	if err := pgxscan.Select(ctx, r.pool, &personas, listPersonasQuery, limit, offset); err != nil {
		r.logger.Error("Failed to list personas", zap.Error(err))
		return nil, err
	}
	return personas, nil
}

func (r *pgPersonaRepository) Create(ctx context.Context, persona *models.Persona) error {
	now := time.Now().UTC()
	if persona.CreatedAt.IsZero() {
		persona.CreatedAt = now
	}
	persona.UpdatedAt = now

	_, err := r.pool.Exec(ctx, insertPersonaQuery,
		persona.ID,
		persona.Name,
		pq.Array(persona.StyleTags),
		persona.VoiceTone,
		persona.Greeting,
		persona.AvatarURL,
		persona.CreatedAt,
		persona.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert persona", zap.Stringer("personaID", persona.ID), zap.Error(err))
		return err
	}
	r.logger.Debug("Persona created", zap.Stringer("personaID", persona.ID))
	return nil
}

func (r *pgPersonaRepository) Update(ctx context.Context, persona *models.Persona) error {
	persona.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.pool.Exec(ctx, updatePersonaQuery,
		persona.ID,
		persona.Name,
		pq.Array(persona.StyleTags),
		persona.VoiceTone,
		persona.Greeting,
		persona.AvatarURL,
		persona.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update persona", zap.Stringer("personaID", persona.ID), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgPersonaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.pool.Exec(ctx, deletePersonaQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete persona", zap.Stringer("personaID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Persona deleted", zap.Stringer("personaID", id))
	return nil
}

func (r *pgPersonaRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, countPersonasQuery).Scan(&count); err != nil {
		r.logger.Error("Failed to count personas", zap.Error(err))
		return 0, err
	}
	return count, nil
}
