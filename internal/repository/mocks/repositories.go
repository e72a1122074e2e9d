package mocks

import (
	"context"

	"companion-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) ListPublished(ctx context.Context, tag string, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, tag, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) List(ctx context.Context, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) Update(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	args := m.Called(ctx, id, published)
	return args.Error(0)
}
func (m *StoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *StoryRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock PersonaRepository
type PersonaRepository struct {
	mock.Mock
}

func (m *PersonaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Persona, error) {
	args := m.Called(ctx, id)
	persona, _ := args.Get(0).(*models.Persona)
	return persona, args.Error(1)
}
func (m *PersonaRepository) List(ctx context.Context, limit, offset int) ([]models.Persona, error) {
	args := m.Called(ctx, limit, offset)
	personas, _ := args.Get(0).([]models.Persona)
	return personas, args.Error(1)
}
func (m *PersonaRepository) Create(ctx context.Context, persona *models.Persona) error {
	args := m.Called(ctx, persona)
	return args.Error(0)
}
func (m *PersonaRepository) Update(ctx context.Context, persona *models.Persona) error {
	args := m.Called(ctx, persona)
	return args.Error(0)
}
func (m *PersonaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *PersonaRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock ProgressRepository
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) Get(ctx context.Context, userID, storyID uuid.UUID) (*models.ProgressRecord, error) {
	args := m.Called(ctx, userID, storyID)
	record, _ := args.Get(0).(*models.ProgressRecord)
	return record, args.Error(1)
}
func (m *ProgressRepository) ApplyTurn(ctx context.Context, userID, storyID uuid.UUID, expectedVersion int64,
	snapshot models.ProgressSnapshot, turnContext models.TurnContext,
	turnRecord models.TurnRecord) (*models.ProgressRecord, error) {
	args := m.Called(ctx, userID, storyID, expectedVersion, snapshot, turnContext, turnRecord)
	record, _ := args.Get(0).(*models.ProgressRecord)
	return record, args.Error(1)
}
func (m *ProgressRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ProgressRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	records, _ := args.Get(0).([]models.ProgressRecord)
	return records, args.Error(1)
}
func (m *ProgressRepository) Delete(ctx context.Context, userID, storyID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID)
	return args.Error(0)
}
func (m *ProgressRepository) CountPlayersAndTurns(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// Mock TurnLock
type TurnLock struct {
	mock.Mock
}

func (m *TurnLock) Acquire(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, storyID)
	return args.Bool(0), args.Error(1)
}
func (m *TurnLock) Release(ctx context.Context, userID, storyID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID)
	return args.Error(0)
}
