package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"companion-server/internal/ai"
	aiMocks "companion-server/internal/ai/mocks"
	messagingMocks "companion-server/internal/messaging/mocks"
	"companion-server/internal/models"
	repoMocks "companion-server/internal/repository/mocks"
	"companion-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type turnServiceMocks struct {
	stories   *repoMocks.StoryRepository
	personas  *repoMocks.PersonaRepository
	progress  *repoMocks.ProgressRepository
	turnLock  *repoMocks.TurnLock
	narrator  *aiMocks.NarrationProvider
	publisher *messagingMocks.TurnEventPublisher
}

func newTurnService(t *testing.T) (service.TurnService, *turnServiceMocks) {
	t.Helper()
	m := &turnServiceMocks{
		stories:   new(repoMocks.StoryRepository),
		personas:  new(repoMocks.PersonaRepository),
		progress:  new(repoMocks.ProgressRepository),
		turnLock:  new(repoMocks.TurnLock),
		narrator:  new(aiMocks.NarrationProvider),
		publisher: new(messagingMocks.TurnEventPublisher),
	}
	svc := service.NewTurnService(m.stories, m.personas, m.progress, m.turnLock, m.narrator, m.publisher, zap.NewNop())
	return svc, m
}

func testStory(personaID uuid.UUID) *models.Story {
	return &models.Story{
		ID:               uuid.New(),
		Title:            "Forest of Whispers",
		ProtagonistID:    personaID,
		OpeningSituation: "You stand at the edge of a dark forest.",
		IsPublished:      true,
	}
}

func testPersona() *models.Persona {
	return &models.Persona{
		ID:        uuid.New(),
		Name:      "Mira",
		StyleTags: []string{"mysterious", "warm"},
		VoiceTone: "soft",
	}
}

func TestAdvanceTurn_FirstTurn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(true, nil).Once()
	m.turnLock.On("Release", mock.Anything, userID, story.ID).Return(nil).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	m.personas.On("GetByID", ctx, persona.ID).Return(persona, nil).Once()
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()

	m.narrator.On("Narrate", ctx, userID.String(), mock.MatchedBy(func(req ai.NarrationRequest) bool {
		// The first turn is prompted from the opening situation.
		assert.Equal(t, story.OpeningSituation, req.SituationBeforeAction)
		assert.Equal(t, "I enter the forest.", req.ActionJustTaken)
		assert.Equal(t, persona.Name, req.Persona.Name)
		return true
	})).Return(&ai.NarrationResult{
		Narration: "You find a mysterious map.",
		ChoiceA:   "Pick it up",
		ChoiceB:   "Leave it",
		Usage:     ai.UsageInfo{TotalTokens: 42},
	}, nil).Once()

	persisted := &models.ProgressRecord{
		UserID:  userID,
		StoryID: story.ID,
		CurrentContext: models.TurnContext{
			SituationSummary: "You find a mysterious map.",
			LastUserAction:   "I enter the forest.",
			ChoiceA:          "Pick it up",
			ChoiceB:          "Leave it",
		},
		History: []models.TurnRecord{{
			TurnIndex:   1,
			UserChoice:  "I enter the forest.",
			AINarration: "You find a mysterious map.",
		}},
		Version: 1,
	}
	m.progress.On("ApplyTurn", ctx, userID, story.ID, int64(0),
		models.ProgressSnapshot{StoryTitle: story.Title, ProtagonistID: persona.ID},
		mock.MatchedBy(func(tc models.TurnContext) bool {
			return tc.SituationSummary == "You find a mysterious map." &&
				tc.LastUserAction == "I enter the forest." &&
				tc.HasChoices()
		}),
		mock.MatchedBy(func(tr models.TurnRecord) bool {
			return tr.UserChoice == "I enter the forest." &&
				tr.AINarration == "You find a mysterious map."
		}),
	).Return(persisted, nil).Once()

	m.publisher.On("PublishTurnEvent", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "I enter the forest.")
	require.NoError(t, err)
	assert.Equal(t, "You find a mysterious map.", result.Narration)
	assert.Equal(t, "Pick it up", result.ChoiceA)
	assert.Equal(t, "Leave it", result.ChoiceB)
	assert.Equal(t, 1, result.TurnIndex)
	assert.False(t, result.NoOp)

	m.progress.AssertExpectations(t)
	m.narrator.AssertExpectations(t)
	m.turnLock.AssertExpectations(t)
}

func TestAdvanceTurn_ContextContinuity(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	existing := &models.ProgressRecord{
		UserID:  userID,
		StoryID: story.ID,
		CurrentContext: models.TurnContext{
			SituationSummary: "You find a mysterious map.",
			LastUserAction:   "I enter the forest.",
			ChoiceA:          "Pick it up",
			ChoiceB:          "Leave it",
		},
		History: []models.TurnRecord{{TurnIndex: 1}},
		Version: 1,
	}

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(true, nil).Once()
	m.turnLock.On("Release", mock.Anything, userID, story.ID).Return(nil).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	m.personas.On("GetByID", ctx, persona.ID).Return(persona, nil).Once()
	m.progress.On("Get", ctx, userID, story.ID).Return(existing, nil).Once()

	// The second turn must be prompted from the first turn's narration, not
	// the opening situation.
	m.narrator.On("Narrate", ctx, userID.String(), mock.MatchedBy(func(req ai.NarrationRequest) bool {
		return req.SituationBeforeAction == "You find a mysterious map." &&
			req.ActionJustTaken == "Pick it up"
	})).Return(&ai.NarrationResult{
		Narration: "The map glows faintly.",
		ChoiceA:   "Follow the glow",
		ChoiceB:   "Fold the map away",
	}, nil).Once()

	updated := &models.ProgressRecord{
		UserID:  userID,
		StoryID: story.ID,
		CurrentContext: models.TurnContext{
			SituationSummary: "The map glows faintly.",
			LastUserAction:   "Pick it up",
			ChoiceA:          "Follow the glow",
			ChoiceB:          "Fold the map away",
		},
		History: []models.TurnRecord{{TurnIndex: 1}, {TurnIndex: 2, AINarration: "The map glows faintly."}},
		Version: 2,
	}
	m.progress.On("ApplyTurn", ctx, userID, story.ID, int64(1),
		mock.Anything, mock.Anything, mock.Anything).Return(updated, nil).Once()
	m.publisher.On("PublishTurnEvent", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "Pick it up")
	require.NoError(t, err)
	assert.Equal(t, "The map glows faintly.", result.Narration)
	assert.Equal(t, 2, result.TurnIndex)

	m.progress.AssertExpectations(t)
	m.narrator.AssertExpectations(t)
}

func TestAdvanceTurn_GenerationFailureMutatesNothing(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(true, nil).Once()
	m.turnLock.On("Release", mock.Anything, userID, story.ID).Return(nil).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	m.personas.On("GetByID", ctx, persona.ID).Return(persona, nil).Once()
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()
	m.narrator.On("Narrate", ctx, userID.String(), mock.Anything).
		Return(nil, ai.ErrNarrationFailed).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "I enter the forest.")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrGenerationFailed)

	m.progress.AssertNotCalled(t, "ApplyTurn",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.publisher.AssertNotCalled(t, "PublishTurnEvent", mock.Anything, mock.Anything)
}

func TestAdvanceTurn_EmptyInputIsNoOp(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	existing := &models.ProgressRecord{
		UserID:  userID,
		StoryID: story.ID,
		CurrentContext: models.TurnContext{
			SituationSummary: "You find a mysterious map.",
			ChoiceA:          "Pick it up",
			ChoiceB:          "Leave it",
		},
		History: []models.TurnRecord{{TurnIndex: 1}},
		Version: 1,
	}

	svc, m := newTurnService(t)
	m.progress.On("Get", ctx, userID, story.ID).Return(existing, nil).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "   \n\t ")
	require.NoError(t, err)
	assert.True(t, result.NoOp)
	assert.Equal(t, "You find a mysterious map.", result.Narration)
	assert.Equal(t, 1, result.TurnIndex)

	m.narrator.AssertNotCalled(t, "Narrate", mock.Anything, mock.Anything, mock.Anything)
	m.progress.AssertNotCalled(t, "ApplyTurn",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.turnLock.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceTurn_EmptyInputBeforeFirstTurn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "")
	require.NoError(t, err)
	assert.True(t, result.NoOp)
	assert.Equal(t, story.OpeningSituation, result.Narration)
	assert.Empty(t, result.ChoiceA)
	assert.Empty(t, result.ChoiceB)
	assert.Equal(t, 0, result.TurnIndex)
	assert.Equal(t, int64(0), result.Progress.Version)
}

func TestAdvanceTurn_TurnAlreadyInProgress(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()

	svc, m := newTurnService(t)
	m.turnLock.On("Acquire", ctx, userID, storyID).Return(false, nil).Once()

	result, err := svc.AdvanceTurn(ctx, userID, storyID, "Alex", "do something")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrTurnInProgress)

	m.turnLock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	m.stories.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAdvanceTurn_LockBackendDownDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(false, errors.New("redis down")).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	m.personas.On("GetByID", ctx, persona.ID).Return(persona, nil).Once()
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()
	m.narrator.On("Narrate", ctx, userID.String(), mock.Anything).Return(&ai.NarrationResult{
		Narration: "The trees part before you.",
		ChoiceA:   "Walk on",
		ChoiceB:   "Turn back",
	}, nil).Once()
	m.progress.On("ApplyTurn", ctx, userID, story.ID, int64(0),
		mock.Anything, mock.Anything, mock.Anything).Return(&models.ProgressRecord{
		UserID:  userID,
		StoryID: story.ID,
		History: []models.TurnRecord{{TurnIndex: 1}},
		Version: 1,
	}, nil).Once()
	m.publisher.On("PublishTurnEvent", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "I enter the forest.")
	require.NoError(t, err)
	assert.Equal(t, "The trees part before you.", result.Narration)

	// A failed lock backend never calls Release.
	m.turnLock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceTurn_VersionConflictSurfaces(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(true, nil).Once()
	m.turnLock.On("Release", mock.Anything, userID, story.ID).Return(nil).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	m.personas.On("GetByID", ctx, persona.ID).Return(persona, nil).Once()
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()
	m.narrator.On("Narrate", ctx, userID.String(), mock.Anything).Return(&ai.NarrationResult{
		Narration: "n", ChoiceA: "a", ChoiceB: "b",
	}, nil).Once()
	m.progress.On("ApplyTurn", ctx, userID, story.ID, int64(0),
		mock.Anything, mock.Anything, mock.Anything).Return(nil, models.ErrProgressConflict).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "act")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrProgressConflict)
	m.publisher.AssertNotCalled(t, "PublishTurnEvent", mock.Anything, mock.Anything)
}

func TestAdvanceTurn_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(true, nil).Once()
	m.turnLock.On("Release", mock.Anything, userID, story.ID).Return(nil).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	m.personas.On("GetByID", ctx, persona.ID).Return(persona, nil).Once()
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()
	m.narrator.On("Narrate", ctx, userID.String(), mock.Anything).Return(&ai.NarrationResult{
		Narration: "n", ChoiceA: "a", ChoiceB: "b",
	}, nil).Once()
	m.progress.On("ApplyTurn", ctx, userID, story.ID, int64(0),
		mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "act")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrPersistenceUnavailable)
}

func TestAdvanceTurn_UnpublishedStoryHidden(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)
	story.IsPublished = false

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(true, nil).Once()
	m.turnLock.On("Release", mock.Anything, userID, story.ID).Return(nil).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "act")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrStoryNotFound)
	m.narrator.AssertNotCalled(t, "Narrate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceTurn_EventPublishFailureDoesNotFailTurn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)

	m.turnLock.On("Acquire", ctx, userID, story.ID).Return(true, nil).Once()
	m.turnLock.On("Release", mock.Anything, userID, story.ID).Return(nil).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	m.personas.On("GetByID", ctx, persona.ID).Return(persona, nil).Once()
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()
	m.narrator.On("Narrate", ctx, userID.String(), mock.Anything).Return(&ai.NarrationResult{
		Narration: "n", ChoiceA: "a", ChoiceB: "b",
	}, nil).Once()
	m.progress.On("ApplyTurn", ctx, userID, story.ID, int64(0),
		mock.Anything, mock.Anything, mock.Anything).Return(&models.ProgressRecord{
		UserID:  userID,
		StoryID: story.ID,
		History: []models.TurnRecord{{TurnIndex: 1}},
		Version: 1,
	}, nil).Once()
	m.publisher.On("PublishTurnEvent", mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	result, err := svc.AdvanceTurn(ctx, userID, story.ID, "Alex", "act")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TurnIndex)
}

func TestGetProgress_SyntheticBeforeFirstTurn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	persona := testPersona()
	story := testStory(persona.ID)

	svc, m := newTurnService(t)
	m.progress.On("Get", ctx, userID, story.ID).Return(nil, models.ErrNotFound).Once()
	m.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()

	record, err := svc.GetProgress(ctx, userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, story.OpeningSituation, record.CurrentContext.SituationSummary)
	assert.False(t, record.CurrentContext.HasChoices())
	assert.Empty(t, record.History)
	assert.Equal(t, int64(0), record.Version)
	assert.Equal(t, story.Title, record.StoryTitleSnapshot)
	assert.WithinDuration(t, time.Now().UTC(), record.LastPlayedAt, time.Minute)
}

func TestResetProgress(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()

	svc, m := newTurnService(t)
	m.progress.On("Delete", ctx, userID, storyID).Return(nil).Once()

	require.NoError(t, svc.ResetProgress(ctx, userID, storyID))
	m.progress.AssertExpectations(t)
}
