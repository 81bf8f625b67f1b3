package mocks

import (
	"context"

	"fable-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock AnalyticsRepository
type AnalyticsRepository struct {
	mock.Mock
}

func (m *AnalyticsRepository) ScenesByStory(ctx context.Context, storyID uuid.UUID) ([]models.SceneRow, error) {
	args := m.Called(ctx, storyID)
	rows, _ := args.Get(0).([]models.SceneRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) SessionsByStory(ctx context.Context, storyID uuid.UUID) ([]models.SessionRow, error) {
	args := m.Called(ctx, storyID)
	rows, _ := args.Get(0).([]models.SessionRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) ChoiceEventsByStory(ctx context.Context, storyID uuid.UUID) ([]models.ChoiceEventRow, error) {
	args := m.Called(ctx, storyID)
	rows, _ := args.Get(0).([]models.ChoiceEventRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) SceneViewsByStory(ctx context.Context, storyID uuid.UUID) ([]models.SceneViewRow, error) {
	args := m.Called(ctx, storyID)
	rows, _ := args.Get(0).([]models.SceneViewRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) InteractionsByStory(ctx context.Context, storyID uuid.UUID) ([]models.InteractionRow, error) {
	args := m.Called(ctx, storyID)
	rows, _ := args.Get(0).([]models.InteractionRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) ChoiceTexts(ctx context.Context, storyID uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, storyID)
	texts, _ := args.Get(0).(map[uuid.UUID]string)
	return texts, args.Error(1)
}

func (m *AnalyticsRepository) PlatformSessions(ctx context.Context) ([]models.PlatformSessionRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.PlatformSessionRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) PlatformChoiceEvents(ctx context.Context) ([]models.PlatformChoiceEventRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.PlatformChoiceEventRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) GeneratedChoices(ctx context.Context) ([]models.GeneratedChoiceRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.GeneratedChoiceRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepository) SessionInteractionCounts(ctx context.Context) ([]models.SessionInteractionCountRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.SessionInteractionCountRow)
	return rows, args.Error(1)
}
