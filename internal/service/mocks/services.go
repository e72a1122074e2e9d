package mocks

import (
	"context"

	"companion-server/internal/models"
	"companion-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock TurnService
type TurnService struct {
	mock.Mock
}

func (m *TurnService) AdvanceTurn(ctx context.Context, userID, storyID uuid.UUID, playerName, userInput string) (*models.TurnResult, error) {
	args := m.Called(ctx, userID, storyID, playerName, userInput)
	result, _ := args.Get(0).(*models.TurnResult)
	return result, args.Error(1)
}
func (m *TurnService) GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.ProgressRecord, error) {
	args := m.Called(ctx, userID, storyID)
	record, _ := args.Get(0).(*models.ProgressRecord)
	return record, args.Error(1)
}
func (m *TurnService) ListProgress(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ProgressRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	records, _ := args.Get(0).([]models.ProgressRecord)
	return records, args.Error(1)
}
func (m *TurnService) ResetProgress(ctx context.Context, userID, storyID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID)
	return args.Error(0)
}

// Mock CatalogService
type CatalogService struct {
	mock.Mock
}

func (m *CatalogService) ListStories(ctx context.Context, tag string, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, tag, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *CatalogService) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *CatalogService) ListPersonas(ctx context.Context, limit, offset int) ([]models.Persona, error) {
	args := m.Called(ctx, limit, offset)
	personas, _ := args.Get(0).([]models.Persona)
	return personas, args.Error(1)
}
func (m *CatalogService) GetPersona(ctx context.Context, id uuid.UUID) (*models.Persona, error) {
	args := m.Called(ctx, id)
	persona, _ := args.Get(0).(*models.Persona)
	return persona, args.Error(1)
}
func (m *CatalogService) ListAllStories(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, actor, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *CatalogService) CreateStory(ctx context.Context, actor models.Actor, story *models.Story) error {
	args := m.Called(ctx, actor, story)
	return args.Error(0)
}
func (m *CatalogService) UpdateStory(ctx context.Context, actor models.Actor, story *models.Story) error {
	args := m.Called(ctx, actor, story)
	return args.Error(0)
}
func (m *CatalogService) SetStoryPublished(ctx context.Context, actor models.Actor, id uuid.UUID, published bool) error {
	args := m.Called(ctx, actor, id, published)
	return args.Error(0)
}
func (m *CatalogService) DeleteStory(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
func (m *CatalogService) CreatePersona(ctx context.Context, actor models.Actor, persona *models.Persona) error {
	args := m.Called(ctx, actor, persona)
	return args.Error(0)
}
func (m *CatalogService) UpdatePersona(ctx context.Context, actor models.Actor, persona *models.Persona) error {
	args := m.Called(ctx, actor, persona)
	return args.Error(0)
}
func (m *CatalogService) DeletePersona(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
func (m *CatalogService) Stats(ctx context.Context, actor models.Actor) (*service.CatalogStats, error) {
	args := m.Called(ctx, actor)
	stats, _ := args.Get(0).(*service.CatalogStats)
	return stats, args.Error(1)
}
