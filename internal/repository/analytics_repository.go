package repository

import (
	"context"

	"fable-server/internal/models"

	"github.com/google/uuid"
)

// AnalyticsRepository is the read side of the event log. It only fetches
// rows; all aggregation math lives in the analytics service.
//
//go:generate mockery --name AnalyticsRepository --output ./mocks --outpkg mocks --case=underscore
type AnalyticsRepository interface {
	ScenesByStory(ctx context.Context, storyID uuid.UUID) ([]models.SceneRow, error)
	SessionsByStory(ctx context.Context, storyID uuid.UUID) ([]models.SessionRow, error)
	ChoiceEventsByStory(ctx context.Context, storyID uuid.UUID) ([]models.ChoiceEventRow, error)
	SceneViewsByStory(ctx context.Context, storyID uuid.UUID) ([]models.SceneViewRow, error)
	InteractionsByStory(ctx context.Context, storyID uuid.UUID) ([]models.InteractionRow, error)

	// ChoiceTexts maps choice ids to their display text for one story.
	ChoiceTexts(ctx context.Context, storyID uuid.UUID) (map[uuid.UUID]string, error)

	// Platform-wide projections for the personalization dashboard.
	PlatformSessions(ctx context.Context) ([]models.PlatformSessionRow, error)
	PlatformChoiceEvents(ctx context.Context) ([]models.PlatformChoiceEventRow, error)
	GeneratedChoices(ctx context.Context) ([]models.GeneratedChoiceRow, error)
	SessionInteractionCounts(ctx context.Context) ([]models.SessionInteractionCountRow, error)
}
