package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"fable-server/internal/generator"
	"fable-server/internal/models"
	"fable-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PersonalizationService lazily synthesizes at most one generated choice per
// (branch scene, archetype) pair. Repeated calls are idempotent: they return
// the cached row, and concurrent calls for the same pair converge on exactly
// one persisted row via the storage-layer unique constraint.
type PersonalizationService interface {
	// Personalize resolves the reader's archetype (from the explicit value
	// or the visitor's profile) and returns the cached or newly generated
	// choice for the scene.
	Personalize(ctx context.Context, sceneID uuid.UUID, visitorID, archetype string) (*models.Choice, error)
}

type personalizationServiceImpl struct {
	storyRepo   repository.StoryRepository
	profileRepo repository.ProfileRepository
	gen         generator.Client
	logger      *zap.Logger
}

func NewPersonalizationService(
	storyRepo repository.StoryRepository,
	profileRepo repository.ProfileRepository,
	gen generator.Client,
	logger *zap.Logger,
) PersonalizationService {
	return &personalizationServiceImpl{
		storyRepo:   storyRepo,
		profileRepo: profileRepo,
		gen:         gen,
		logger:      logger.Named("PersonalizationService"),
	}
}

func (s *personalizationServiceImpl) Personalize(ctx context.Context, sceneID uuid.UUID, visitorID, archetype string) (*models.Choice, error) {
	if archetype == "" {
		if visitorID == "" {
			return nil, fmt.Errorf("%w: visitor_id or archetype is required", models.ErrInvalidInput)
		}
		profile, err := s.profileRepo.GetByVisitorID(ctx, visitorID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrProfileNotFound
			}
			return nil, err
		}
		archetype = profile.Archetype
	}

	scene, err := s.storyRepo.GetScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	if !scene.IsBranchPoint {
		return nil, models.ErrNotBranchPoint
	}

	// Idempotence fast path: an already-cached edge is returned unchanged.
	existing, err := s.storyRepo.FindGeneratedChoice(ctx, sceneID, archetype)
	if err == nil {
		s.logger.Debug("Returning cached generated choice",
			zap.String("sceneID", sceneID.String()),
			zap.String("archetype", archetype),
			zap.String("choiceID", existing.ID.String()))
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	standard, err := s.storyRepo.ListStandardChoices(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	if len(standard) == 0 {
		return nil, models.ErrNoStandardChoices
	}

	// The generated edge reuses the destination of a random standard choice,
	// so it always lands on a node that is already reachable.
	anchor := standard[rand.Intn(len(standard))]

	story, err := s.storyRepo.GetStory(ctx, scene.StoryID)
	if err != nil {
		return nil, err
	}

	existingTexts := make([]string, 0, len(standard))
	for _, c := range standard {
		existingTexts = append(existingTexts, c.Text)
	}

	text, err := s.gen.GenerateChoice(ctx, generator.Request{
		StoryTitle:      story.Title,
		SceneTitle:      scene.Title,
		SceneContent:    scene.Content,
		Archetype:       archetype,
		Persona:         generator.PersonaFor(archetype),
		ExistingChoices: existingTexts,
	})
	if err != nil {
		// No partial writes: the scene stays fully playable on standard
		// choices alone.
		s.logger.Warn("Choice generation failed, scene continues unpersonalized",
			zap.Error(err), zap.String("sceneID", sceneID.String()), zap.String("archetype", archetype))
		if errors.Is(err, models.ErrGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	now := time.Now().UTC()
	candidate := &models.Choice{
		ID:              uuid.New(),
		FromSceneID:     sceneID,
		ToSceneID:       anchor.ToSceneID,
		Text:            text,
		ArchetypeTarget: &archetype,
		IsGenerated:     true,
		GeneratedAt:     &now,
	}
	if visitorID != "" {
		candidate.GeneratedFor = &visitorID
	}

	persisted, created, err := s.storyRepo.CreateGeneratedChoice(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if !created {
		s.logger.Info("Lost generated-choice race, returning winner",
			zap.String("sceneID", sceneID.String()), zap.String("archetype", archetype))
	}
	return persisted, nil
}
