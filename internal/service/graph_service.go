package service

import (
	"context"
	"fmt"

	"fable-server/internal/models"
	"fable-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GraphService is the read-only play-time view of the story graph. All graph
// writes go through the personalization service.
type GraphService interface {
	// GetScene returns the scene with the choices visible to a reader of the
	// given archetype (empty archetype = unclassified reader: standard
	// choices only).
	GetScene(ctx context.Context, sceneID uuid.UUID, archetype string) (*models.SceneWithChoices, error)

	// GetStartScene returns the story's entry scene with choices filtered
	// the same way.
	GetStartScene(ctx context.Context, storyID uuid.UUID, archetype string) (*models.SceneWithChoices, error)
}

type graphServiceImpl struct {
	storyRepo repository.StoryRepository
	logger    *zap.Logger
}

func NewGraphService(storyRepo repository.StoryRepository, logger *zap.Logger) GraphService {
	return &graphServiceImpl{
		storyRepo: storyRepo,
		logger:    logger.Named("GraphService"),
	}
}

func (s *graphServiceImpl) GetScene(ctx context.Context, sceneID uuid.UUID, archetype string) (*models.SceneWithChoices, error) {
	scene, err := s.storyRepo.GetScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	return s.withFilteredChoices(ctx, scene, archetype)
}

func (s *graphServiceImpl) GetStartScene(ctx context.Context, storyID uuid.UUID, archetype string) (*models.SceneWithChoices, error) {
	scene, err := s.storyRepo.GetStartScene(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return s.withFilteredChoices(ctx, scene, archetype)
}

func (s *graphServiceImpl) withFilteredChoices(ctx context.Context, scene *models.Scene, archetype string) (*models.SceneWithChoices, error) {
	all, err := s.storyRepo.ListChoices(ctx, scene.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load choices for scene %s: %w", scene.ID, err)
	}

	return &models.SceneWithChoices{
		Scene:   *scene,
		Choices: FilterChoices(all, archetype),
	}, nil
}

// FilterChoices applies the visibility rule: a choice is included iff its
// archetype target is null or equals the reader's archetype. Input order is
// preserved (standard choices first, generated after — the repository
// guarantees that ordering).
func FilterChoices(choices []models.Choice, archetype string) []models.Choice {
	visible := make([]models.Choice, 0, len(choices))
	for _, c := range choices {
		if c.VisibleTo(archetype) {
			visible = append(visible, c)
		}
	}
	return visible
}
