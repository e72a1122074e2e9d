package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"companion-server/internal/models"
	"companion-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogStats aggregates catalog-wide counters for the admin dashboard.
type CatalogStats struct {
	Stories    int64 `json:"stories"`
	Personas   int64 `json:"personas"`
	Players    int64 `json:"players"`
	TurnsTaken int64 `json:"turnsTaken"`
}

// CatalogService manages the story and persona catalog. Reads are public to
// any authenticated user; mutations require an admin actor passed explicitly.
type CatalogService interface {
	// ListStories returns published stories, optionally filtered by tag.
	ListStories(ctx context.Context, tag string, limit, offset int) ([]models.Story, error)

	// GetStory returns a published story by ID.
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)

	// ListPersonas returns personas ordered by name.
	ListPersonas(ctx context.Context, limit, offset int) ([]models.Persona, error)

	// GetPersona returns a persona by ID.
	GetPersona(ctx context.Context, id uuid.UUID) (*models.Persona, error)

	// Admin operations. Each checks actor.IsAdmin and returns
	// models.ErrForbidden otherwise.
	ListAllStories(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Story, error)
	CreateStory(ctx context.Context, actor models.Actor, story *models.Story) error
	UpdateStory(ctx context.Context, actor models.Actor, story *models.Story) error
	SetStoryPublished(ctx context.Context, actor models.Actor, id uuid.UUID, published bool) error
	DeleteStory(ctx context.Context, actor models.Actor, id uuid.UUID) error

	CreatePersona(ctx context.Context, actor models.Actor, persona *models.Persona) error
	UpdatePersona(ctx context.Context, actor models.Actor, persona *models.Persona) error
	DeletePersona(ctx context.Context, actor models.Actor, id uuid.UUID) error

	Stats(ctx context.Context, actor models.Actor) (*CatalogStats, error)
}

type catalogService struct {
	stories  repository.StoryRepository
	personas repository.PersonaRepository
	progress repository.ProgressRepository
	logger   *zap.Logger
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService creates the catalog service.
func NewCatalogService(
	stories repository.StoryRepository,
	personas repository.PersonaRepository,
	progress repository.ProgressRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		stories:  stories,
		personas: personas,
		progress: progress,
		logger:   logger.Named("CatalogService"),
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps client-supplied paging values.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *catalogService) ListStories(ctx context.Context, tag string, limit, offset int) ([]models.Story, error) {
	limit, offset = normalizePage(limit, offset)
	stories, err := s.stories.ListPublished(ctx, strings.TrimSpace(tag), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

func (s *catalogService) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrStoryNotFound
		}
		return nil, fmt.Errorf("get story: %w", err)
	}
	// Drafts stay invisible to players.
	if !story.IsPublished {
		return nil, models.ErrStoryNotFound
	}
	return story, nil
}

func (s *catalogService) ListPersonas(ctx context.Context, limit, offset int) ([]models.Persona, error) {
	limit, offset = normalizePage(limit, offset)
	personas, err := s.personas.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	return personas, nil
}

func (s *catalogService) GetPersona(ctx context.Context, id uuid.UUID) (*models.Persona, error) {
	persona, err := s.personas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrPersonaNotFound
		}
		return nil, fmt.Errorf("get persona: %w", err)
	}
	return persona, nil
}

func (s *catalogService) ListAllStories(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Story, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	limit, offset = normalizePage(limit, offset)
	stories, err := s.stories.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list all stories: %w", err)
	}
	return stories, nil
}

func (s *catalogService) CreateStory(ctx context.Context, actor models.Actor, story *models.Story) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if err := validateStory(story); err != nil {
		return err
	}
	// The protagonist must exist before a story can reference it.
	if _, err := s.personas.GetByID(ctx, story.ProtagonistID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrPersonaNotFound
		}
		return fmt.Errorf("check protagonist: %w", err)
	}
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	s.logger.Info("Story created",
		zap.String("storyID", story.ID.String()),
		zap.String("adminID", actor.UserID.String()),
	)
	return nil
}

func (s *catalogService) UpdateStory(ctx context.Context, actor models.Actor, story *models.Story) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if err := validateStory(story); err != nil {
		return err
	}
	if _, err := s.personas.GetByID(ctx, story.ProtagonistID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrPersonaNotFound
		}
		return fmt.Errorf("check protagonist: %w", err)
	}
	// Existing progress keeps its snapshots; only future reads see the edit.
	if err := s.stories.Update(ctx, story); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrStoryNotFound
		}
		return fmt.Errorf("update story: %w", err)
	}
	return nil
}

func (s *catalogService) SetStoryPublished(ctx context.Context, actor models.Actor, id uuid.UUID, published bool) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if err := s.stories.SetPublished(ctx, id, published); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrStoryNotFound
		}
		return fmt.Errorf("set story published: %w", err)
	}
	s.logger.Info("Story publication changed",
		zap.String("storyID", id.String()),
		zap.Bool("published", published),
		zap.String("adminID", actor.UserID.String()),
	)
	return nil
}

func (s *catalogService) DeleteStory(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if err := s.stories.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrStoryNotFound
		}
		return fmt.Errorf("delete story: %w", err)
	}
	return nil
}

func (s *catalogService) CreatePersona(ctx context.Context, actor models.Actor, persona *models.Persona) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if err := validatePersona(persona); err != nil {
		return err
	}
	if persona.ID == uuid.Nil {
		persona.ID = uuid.New()
	}
	if err := s.personas.Create(ctx, persona); err != nil {
		return fmt.Errorf("create persona: %w", err)
	}
	return nil
}

func (s *catalogService) UpdatePersona(ctx context.Context, actor models.Actor, persona *models.Persona) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if err := validatePersona(persona); err != nil {
		return err
	}
	if err := s.personas.Update(ctx, persona); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrPersonaNotFound
		}
		return fmt.Errorf("update persona: %w", err)
	}
	return nil
}

func (s *catalogService) DeletePersona(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if err := s.personas.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrPersonaNotFound
		}
		return fmt.Errorf("delete persona: %w", err)
	}
	return nil
}

func (s *catalogService) Stats(ctx context.Context, actor models.Actor) (*CatalogStats, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	// Counts run as separate queries; mid-read drift is fine for a dashboard.
	storyCount, err := s.stories.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats stories: %w", err)
	}
	personaCount, err := s.personas.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats personas: %w", err)
	}
	players, turns, err := s.progress.CountPlayersAndTurns(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats gameplay: %w", err)
	}
	return &CatalogStats{
		Stories:    storyCount,
		Personas:   personaCount,
		Players:    players,
		TurnsTaken: turns,
	}, nil
}

func validateStory(story *models.Story) error {
	if story == nil {
		return models.ErrInvalidInput
	}
	if strings.TrimSpace(story.Title) == "" {
		return fmt.Errorf("%w: story title is required", models.ErrInvalidInput)
	}
	if strings.TrimSpace(story.OpeningSituation) == "" {
		return fmt.Errorf("%w: opening situation is required", models.ErrInvalidInput)
	}
	if story.ProtagonistID == uuid.Nil {
		return fmt.Errorf("%w: protagonist is required", models.ErrInvalidInput)
	}
	return nil
}

func validatePersona(persona *models.Persona) error {
	if persona == nil {
		return models.ErrInvalidInput
	}
	if strings.TrimSpace(persona.Name) == "" {
		return fmt.Errorf("%w: persona name is required", models.ErrInvalidInput)
	}
	return nil
}
