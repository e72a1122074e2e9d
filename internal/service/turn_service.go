package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"companion-server/internal/ai"
	"companion-server/internal/messaging"
	"companion-server/internal/models"
	"companion-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TurnService drives the interactive-story loop: one user action in, one
// narrated beat with two choices out, state persisted atomically.
type TurnService interface {
	// AdvanceTurn runs one turn of the story for the user. Empty (after
	// trimming) userInput is a no-op that returns the current state without
	// calling the narration provider or touching storage.
	AdvanceTurn(ctx context.Context, userID, storyID uuid.UUID, playerName, userInput string) (*models.TurnResult, error)

	// GetProgress returns the user's progress in a story with full history.
	// When the user has not played the story yet it returns a synthetic
	// record built from the opening situation, version 0, empty history.
	GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.ProgressRecord, error)

	// ListProgress returns the user's progress shelf, most recent first.
	ListProgress(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ProgressRecord, error)

	// ResetProgress deletes the user's progress in a story so the next turn
	// starts from the opening situation again.
	ResetProgress(ctx context.Context, userID, storyID uuid.UUID) error
}

type turnService struct {
	stories   repository.StoryRepository
	personas  repository.PersonaRepository
	progress  repository.ProgressRepository
	turnLock  repository.TurnLock
	narrator  ai.NarrationProvider
	publisher messaging.TurnEventPublisher
	logger    *zap.Logger
}

var _ TurnService = (*turnService)(nil)

// NewTurnService creates the turn engine. publisher may be nil; turn events
// are then skipped.
func NewTurnService(
	stories repository.StoryRepository,
	personas repository.PersonaRepository,
	progress repository.ProgressRepository,
	turnLock repository.TurnLock,
	narrator ai.NarrationProvider,
	publisher messaging.TurnEventPublisher,
	logger *zap.Logger,
) TurnService {
	return &turnService{
		stories:   stories,
		personas:  personas,
		progress:  progress,
		turnLock:  turnLock,
		narrator:  narrator,
		publisher: publisher,
		logger:    logger.Named("TurnService"),
	}
}

func (s *turnService) AdvanceTurn(ctx context.Context, userID, storyID uuid.UUID, playerName, userInput string) (*models.TurnResult, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("storyID", storyID.String()))

	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return s.currentState(ctx, userID, storyID)
	}

	// Serialize turns per (user, story). A failing lock backend degrades to
	// lockless operation; the version check on the write still protects state.
	acquired, err := s.turnLock.Acquire(ctx, userID, storyID)
	if err != nil {
		log.Warn("Turn lock unavailable, proceeding without lease", zap.Error(err))
	} else if !acquired {
		return nil, models.ErrTurnInProgress
	} else {
		defer func() {
			if relErr := s.turnLock.Release(context.WithoutCancel(ctx), userID, storyID); relErr != nil {
				log.Warn("Failed to release turn lock", zap.Error(relErr))
			}
		}()
	}

	// Story and persona are read fresh every turn; edits apply immediately.
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrStoryNotFound
		}
		return nil, fmt.Errorf("%w: load story: %v", models.ErrPersistenceUnavailable, err)
	}
	if !story.IsPublished {
		return nil, models.ErrStoryNotFound
	}

	persona, err := s.personas.GetByID(ctx, story.ProtagonistID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrPersonaNotFound
		}
		return nil, fmt.Errorf("%w: load persona: %v", models.ErrPersistenceUnavailable, err)
	}

	situation := story.OpeningSituation
	var expectedVersion int64
	record, err := s.progress.Get(ctx, userID, storyID)
	switch {
	case err == nil:
		situation = record.CurrentContext.SituationSummary
		expectedVersion = record.Version
	case errors.Is(err, models.ErrNotFound):
		// First turn for this pair, applyTurn will create the record.
	default:
		return nil, fmt.Errorf("%w: load progress: %v", models.ErrPersistenceUnavailable, err)
	}

	result, err := s.narrator.Narrate(ctx, userID.String(), ai.NarrationRequest{
		Persona: ai.PersonaPrompt{
			Name:      persona.Name,
			StyleTags: persona.StyleTags,
			VoiceTone: persona.VoiceTone,
		},
		StoryTitle:            story.Title,
		PlayerName:            playerName,
		SituationBeforeAction: situation,
		ActionJustTaken:       userInput,
	})
	if err != nil {
		// No state mutation on generation failure; the player simply retries.
		log.Warn("Narration failed, turn discarded", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	newContext := models.TurnContext{
		SituationSummary: result.Narration,
		LastUserAction:   userInput,
		ChoiceA:          result.ChoiceA,
		ChoiceB:          result.ChoiceB,
	}
	turnRecord := models.TurnRecord{
		UserChoice:     userInput,
		AINarration:    result.Narration,
		OfferedChoiceA: result.ChoiceA,
		OfferedChoiceB: result.ChoiceB,
	}
	snapshot := models.ProgressSnapshot{
		StoryTitle:    story.Title,
		ProtagonistID: story.ProtagonistID,
	}

	updated, err := s.progress.ApplyTurn(ctx, userID, storyID, expectedVersion, snapshot, newContext, turnRecord)
	if err != nil {
		if errors.Is(err, models.ErrProgressConflict) {
			return nil, err
		}
		// The generated narration is lost; the turn reports failure rather
		// than returning unpersisted state.
		log.Error("Failed to persist turn", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrPersistenceUnavailable, err)
	}

	turnIndex := 0
	if n := len(updated.History); n > 0 {
		turnIndex = updated.History[n-1].TurnIndex
	}

	s.publishTurnEvent(ctx, updated, story, result, turnIndex, expectedVersion == 0)

	log.Info("Turn advanced",
		zap.Int("turnIndex", turnIndex),
		zap.Int("totalTokens", result.Usage.TotalTokens),
	)
	return &models.TurnResult{
		Narration: result.Narration,
		ChoiceA:   result.ChoiceA,
		ChoiceB:   result.ChoiceB,
		TurnIndex: turnIndex,
		Progress:  updated,
	}, nil
}

// currentState implements the empty-input no-op: return what is there,
// generate nothing, persist nothing.
func (s *turnService) currentState(ctx context.Context, userID, storyID uuid.UUID) (*models.TurnResult, error) {
	record, err := s.GetProgress(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	turnIndex := 0
	if n := len(record.History); n > 0 {
		turnIndex = record.History[n-1].TurnIndex
	}
	return &models.TurnResult{
		Narration: record.CurrentContext.SituationSummary,
		ChoiceA:   record.CurrentContext.ChoiceA,
		ChoiceB:   record.CurrentContext.ChoiceB,
		TurnIndex: turnIndex,
		Progress:  record,
		NoOp:      true,
	}, nil
}

func (s *turnService) GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.ProgressRecord, error) {
	record, err := s.progress.Get(ctx, userID, storyID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: load progress: %v", models.ErrPersistenceUnavailable, err)
	}

	// Not played yet: synthesize the pre-first-turn state from the story.
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrStoryNotFound
		}
		return nil, fmt.Errorf("%w: load story: %v", models.ErrPersistenceUnavailable, err)
	}
	if !story.IsPublished {
		return nil, models.ErrStoryNotFound
	}
	now := time.Now().UTC()
	return &models.ProgressRecord{
		UserID:  userID,
		StoryID: storyID,
		CurrentContext: models.TurnContext{
			SituationSummary: story.OpeningSituation,
		},
		History:               []models.TurnRecord{},
		StoryTitleSnapshot:    story.Title,
		ProtagonistIDSnapshot: story.ProtagonistID,
		Version:               0,
		LastPlayedAt:          now,
		CreatedAt:             now,
	}, nil
}

func (s *turnService) ListProgress(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ProgressRecord, error) {
	limit, offset = normalizePage(limit, offset)
	records, err := s.progress.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list progress: %v", models.ErrPersistenceUnavailable, err)
	}
	return records, nil
}

func (s *turnService) ResetProgress(ctx context.Context, userID, storyID uuid.UUID) error {
	if err := s.progress.Delete(ctx, userID, storyID); err != nil {
		return fmt.Errorf("%w: reset progress: %v", models.ErrPersistenceUnavailable, err)
	}
	return nil
}

// publishTurnEvent is best effort; a broker outage never fails the turn.
func (s *turnService) publishTurnEvent(ctx context.Context, record *models.ProgressRecord, story *models.Story, result *ai.NarrationResult, turnIndex int, firstTurn bool) {
	if s.publisher == nil {
		return
	}
	payload := messaging.TurnEventPayload{
		UserID:      record.UserID.String(),
		StoryID:     record.StoryID.String(),
		StoryTitle:  story.Title,
		TurnIndex:   turnIndex,
		TotalTokens: result.Usage.TotalTokens,
		EstCostUSD:  result.Usage.EstimatedCostUSD,
		OccurredAt:  time.Now().UTC(),
		FirstTurn:   firstTurn,
	}
	if err := s.publisher.PublishTurnEvent(context.WithoutCancel(ctx), payload); err != nil {
		s.logger.Warn("Failed to publish turn event",
			zap.String("userID", payload.UserID),
			zap.String("storyID", payload.StoryID),
			zap.Error(err),
		)
	}
}
