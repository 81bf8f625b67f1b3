package mocks

import (
	"context"

	"fable-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) GetScene(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, id)
	scene, _ := args.Get(0).(*models.Scene)
	return scene, args.Error(1)
}

func (m *StoryRepository) GetStartScene(ctx context.Context, storyID uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, storyID)
	scene, _ := args.Get(0).(*models.Scene)
	return scene, args.Error(1)
}

func (m *StoryRepository) ListChoices(ctx context.Context, sceneID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, sceneID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}

func (m *StoryRepository) ListStandardChoices(ctx context.Context, sceneID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, sceneID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}

func (m *StoryRepository) GetChoice(ctx context.Context, id uuid.UUID) (*models.Choice, error) {
	args := m.Called(ctx, id)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}

func (m *StoryRepository) FindGeneratedChoice(ctx context.Context, sceneID uuid.UUID, archetype string) (*models.Choice, error) {
	args := m.Called(ctx, sceneID, archetype)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}

func (m *StoryRepository) CreateGeneratedChoice(ctx context.Context, choice *models.Choice) (*models.Choice, bool, error) {
	args := m.Called(ctx, choice)
	persisted, _ := args.Get(0).(*models.Choice)
	return persisted, args.Bool(1), args.Error(2)
}
