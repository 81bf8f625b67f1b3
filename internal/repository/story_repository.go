package repository

import (
	"context"

	"fable-server/internal/models"

	"github.com/google/uuid"
)

//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)
	GetScene(ctx context.Context, id uuid.UUID) (*models.Scene, error)

	// GetStartScene returns the scene flagged is_start for the story.
	// Returns models.ErrNotFound if the story has none.
	GetStartScene(ctx context.Context, storyID uuid.UUID) (*models.Scene, error)

	// ListChoices returns every outgoing choice of a scene ordered with
	// standard choices first (by authored order), generated ones after.
	// Archetype filtering is the graph service's concern.
	ListChoices(ctx context.Context, sceneID uuid.UUID) ([]models.Choice, error)

	// ListStandardChoices returns only choices with a null archetype target,
	// in authored order.
	ListStandardChoices(ctx context.Context, sceneID uuid.UUID) ([]models.Choice, error)

	GetChoice(ctx context.Context, id uuid.UUID) (*models.Choice, error)

	// FindGeneratedChoice looks up the cached generated choice for a
	// (scene, archetype) pair. Returns models.ErrNotFound when absent.
	FindGeneratedChoice(ctx context.Context, sceneID uuid.UUID, archetype string) (*models.Choice, error)

	// CreateGeneratedChoice atomically inserts a generated choice. The
	// uniqueness of (from_scene_id, archetype_target) for generated rows is
	// enforced by the storage layer; when a concurrent call already inserted
	// the row, the existing row is returned with created=false.
	CreateGeneratedChoice(ctx context.Context, choice *models.Choice) (persisted *models.Choice, created bool, err error)
}
