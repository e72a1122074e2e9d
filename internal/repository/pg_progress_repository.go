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
	"go.uber.org/zap"
)

var _ ProgressRepository = (*pgProgressRepository)(nil)

type pgProgressRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgProgressRepository creates a new Postgres-backed ProgressRepository.
func NewPgProgressRepository(pool *pgxpool.Pool, logger *zap.Logger) ProgressRepository {
	return &pgProgressRepository{
		pool:   pool,
		logger: logger.Named("PgProgressRepo"),
	}
}

const getProgressQuery = `
SELECT user_id, story_id, situation_summary, last_user_action, choice_a, choice_b,
       story_title_snapshot, protagonist_id_snapshot, version, last_played_at, created_at
FROM progress_records
WHERE user_id = $1 AND story_id = $2`

const getTurnRecordsQuery = `
SELECT turn_index, user_choice, ai_narration, offered_choice_a, offered_choice_b, created_at
FROM turn_records
WHERE user_id = $1 AND story_id = $2
ORDER BY turn_index`

const insertProgressQuery = `
INSERT INTO progress_records (user_id, story_id, situation_summary, last_user_action, choice_a, choice_b,
    story_title_snapshot, protagonist_id_snapshot, version, last_played_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $9)`

const updateProgressQuery = `
UPDATE progress_records
SET situation_summary = $3, last_user_action = $4, choice_a = $5, choice_b = $6,
    version = version + 1, last_played_at = $7
WHERE user_id = $1 AND story_id = $2 AND version = $8`

const insertTurnRecordQuery = `
INSERT INTO turn_records (user_id, story_id, turn_index, user_choice, ai_narration, offered_choice_a, offered_choice_b, created_at)
SELECT $1, $2, COALESCE(MAX(turn_index), 0) + 1, $3, $4, $5, $6, $7
FROM turn_records
WHERE user_id = $1 AND story_id = $2`

const listProgressForUserQuery = `
SELECT user_id, story_id, situation_summary, last_user_action, choice_a, choice_b,
       story_title_snapshot, protagonist_id_snapshot, version, last_played_at, created_at
FROM progress_records
WHERE user_id = $1
ORDER BY last_played_at DESC
LIMIT $2 OFFSET $3`

const deleteProgressQuery = `
DELETE FROM progress_records
WHERE user_id = $1 AND story_id = $2`

const countPlayersAndTurnsQuery = `
SELECT (SELECT COUNT(DISTINCT user_id) FROM progress_records),
       (SELECT COUNT(*) FROM turn_records)`

func (r *pgProgressRepository) scanRecord(row pgx.Row) (*models.ProgressRecord, error) {
	record := &models.ProgressRecord{}
	err := row.Scan(
		&record.UserID,
		&record.StoryID,
		&record.CurrentContext.SituationSummary,
		&record.CurrentContext.LastUserAction,
		&record.CurrentContext.ChoiceA,
		&record.CurrentContext.ChoiceB,
		&record.StoryTitleSnapshot,
		&record.ProtagonistIDSnapshot,
		&record.Version,
		&record.LastPlayedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *pgProgressRepository) Get(ctx context.Context, userID, storyID uuid.UUID) (*models.ProgressRecord, error) {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("storyID", storyID)}

	record, err := r.scanRecord(r.pool.QueryRow(ctx, getProgressQuery, userID, storyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get progress record", append(logFields, zap.Error(err))...)
		return nil, err
	}

	if err := pgxscan.Select(ctx, r.pool, &record.History, getTurnRecordsQuery, userID, storyID); err != nil {
		r.logger.Error("Failed to get turn history", append(logFields, zap.Error(err))...)
		return nil, err
	}

	r.logger.Debug("Retrieved progress record", append(logFields, zap.Int("turns", len(record.History)))...)
	return record, nil
}

// ApplyTurn writes the context replacement and the history append in one
// transaction so readers never see one without the other.
func (r *pgProgressRepository) ApplyTurn(ctx context.Context, userID, storyID uuid.UUID, expectedVersion int64,
	snapshot models.ProgressSnapshot, turnContext models.TurnContext,
	turnRecord models.TurnRecord) (*models.ProgressRecord, error) {

	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("storyID", storyID), zap.Int64("expectedVersion", expectedVersion)}
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin applyTurn transaction", append(logFields, zap.Error(err))...)
		return nil, err
	}
	defer tx.Rollback(ctx)

	if expectedVersion == 0 {
		_, err = tx.Exec(ctx, insertProgressQuery,
			userID, storyID,
			turnContext.SituationSummary, turnContext.LastUserAction, turnContext.ChoiceA, turnContext.ChoiceB,
			snapshot.StoryTitle, snapshot.ProtagonistID,
			now,
		)
		if err != nil {
			// A unique violation here means another turn created the record first.
			if isUniqueViolation(err) {
				r.logger.Warn("Concurrent first turn detected", logFields...)
				return nil, models.ErrProgressConflict
			}
			r.logger.Error("Failed to insert progress record", append(logFields, zap.Error(err))...)
			return nil, err
		}
	} else {
		cmdTag, err := tx.Exec(ctx, updateProgressQuery,
			userID, storyID,
			turnContext.SituationSummary, turnContext.LastUserAction, turnContext.ChoiceA, turnContext.ChoiceB,
			now, expectedVersion,
		)
		if err != nil {
			r.logger.Error("Failed to update progress record", append(logFields, zap.Error(err))...)
			return nil, err
		}
		if cmdTag.RowsAffected() == 0 {
			r.logger.Warn("Progress version mismatch, aborting turn write", logFields...)
			return nil, models.ErrProgressConflict
		}
	}

	if _, err = tx.Exec(ctx, insertTurnRecordQuery,
		userID, storyID,
		turnRecord.UserChoice, turnRecord.AINarration, turnRecord.OfferedChoiceA, turnRecord.OfferedChoiceB,
		now,
	); err != nil {
		r.logger.Error("Failed to append turn record", append(logFields, zap.Error(err))...)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit applyTurn transaction", append(logFields, zap.Error(err))...)
		return nil, err
	}

	record, err := r.Get(ctx, userID, storyID)
	if err != nil {
		r.logger.Error("Failed to reload progress after applyTurn", append(logFields, zap.Error(err))...)
		return nil, err
	}
	r.logger.Debug("Turn applied", append(logFields, zap.Int64("newVersion", record.Version))...)
	return record, nil
}

func (r *pgProgressRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ProgressRecord, error) {
	rows, err := r.pool.Query(ctx, listProgressForUserQuery, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list progress records", zap.Stringer("userID", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan progress record", zap.Stringer("userID", userID), zap.Error(err))
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (r *pgProgressRepository) Delete(ctx context.Context, userID, storyID uuid.UUID) error {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("storyID", storyID)}
	cmdTag, err := r.pool.Exec(ctx, deleteProgressQuery, userID, storyID)
	if err != nil {
		r.logger.Error("Failed to delete progress record", append(logFields, zap.Error(err))...)
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent progress record", logFields...)
	} else {
		r.logger.Info("Deleted progress record", logFields...)
	}
	return nil
}

func (r *pgProgressRepository) CountPlayersAndTurns(ctx context.Context) (int64, int64, error) {
	var players, turns int64
	if err := r.pool.QueryRow(ctx, countPlayersAndTurnsQuery).Scan(&players, &turns); err != nil {
		r.logger.Error("Failed to count players and turns", zap.Error(err))
		return 0, 0, err
	}
	return players, turns, nil
}
