package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fable-server/internal/models"
	"fable-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrackingService records a reader's traversal of a story and the fine-grained
// engagement signals around it. All event timestamps are assigned server-side
// at write time; they are the sole ordering source for analytics.
type TrackingService interface {
	// RecordVisit opens (or reuses) the session for the (story, visitor)
	// pair, appends a choice event when choiceID is set, moves the session
	// pointer to sceneID, and completes the session when isEnding is true.
	// Completion is idempotent: an already-set completed_at never changes.
	RecordVisit(ctx context.Context, storyID uuid.UUID, visitorID string, sceneID uuid.UUID, choiceID *uuid.UUID, isEnding bool) (uuid.UUID, error)

	// EnterScene opens a dwell interval. Callers must exit the previous view
	// before entering a new scene; the tracker does not auto-close.
	EnterScene(ctx context.Context, sessionID, sceneID uuid.UUID) (uuid.UUID, error)

	// ExitScene closes a dwell interval; closing an unknown or already
	// closed view is a no-op.
	ExitScene(ctx context.Context, viewID uuid.UUID) error

	// RecordInteraction validates the event type and its metadata shape,
	// then appends unconditionally. Debouncing (sustained hover, sustained
	// idle, upward-scroll reread) is the client's responsibility.
	RecordInteraction(ctx context.Context, sessionID, sceneID uuid.UUID, eventType models.InteractionType, metadata json.RawMessage) (uuid.UUID, error)

	// UpsertProfile stores a quiz result and returns the derived profile.
	UpsertProfile(ctx context.Context, visitorID string, scores map[string]float64) (*models.ReaderProfile, error)
}

type trackingServiceImpl struct {
	trackingRepo repository.TrackingRepository
	profileRepo  repository.ProfileRepository
	logger       *zap.Logger
}

func NewTrackingService(
	trackingRepo repository.TrackingRepository,
	profileRepo repository.ProfileRepository,
	logger *zap.Logger,
) TrackingService {
	return &trackingServiceImpl{
		trackingRepo: trackingRepo,
		profileRepo:  profileRepo,
		logger:       logger.Named("TrackingService"),
	}
}

func (s *trackingServiceImpl) RecordVisit(ctx context.Context, storyID uuid.UUID, visitorID string, sceneID uuid.UUID, choiceID *uuid.UUID, isEnding bool) (uuid.UUID, error) {
	if visitorID == "" {
		return uuid.Nil, fmt.Errorf("%w: visitor_id is required", models.ErrInvalidInput)
	}

	session, err := s.trackingRepo.FindOpenSession(ctx, storyID, visitorID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return uuid.Nil, err
		}
		session = &models.ReaderSession{
			ID:             uuid.New(),
			StoryID:        storyID,
			VisitorID:      visitorID,
			CurrentSceneID: &sceneID,
			StartedAt:      time.Now().UTC(),
		}
		if err := s.trackingRepo.CreateSession(ctx, session); err != nil {
			return uuid.Nil, err
		}
		s.logger.Info("Reader session started",
			zap.String("sessionID", session.ID.String()),
			zap.String("storyID", storyID.String()),
			zap.String("visitorID", visitorID))
	}

	if choiceID != nil {
		event := &models.ChoiceEvent{
			ID:        uuid.New(),
			SessionID: session.ID,
			ChoiceID:  *choiceID,
			ChosenAt:  time.Now().UTC(),
		}
		if err := s.trackingRepo.CreateChoiceEvent(ctx, event); err != nil {
			return uuid.Nil, err
		}
	}

	if err := s.trackingRepo.UpdateCurrentScene(ctx, session.ID, sceneID); err != nil {
		return uuid.Nil, err
	}

	if isEnding {
		if err := s.trackingRepo.CompleteSession(ctx, session.ID, time.Now().UTC()); err != nil {
			return uuid.Nil, err
		}
		s.logger.Info("Reader session completed",
			zap.String("sessionID", session.ID.String()), zap.String("endingSceneID", sceneID.String()))
	}

	return session.ID, nil
}

func (s *trackingServiceImpl) EnterScene(ctx context.Context, sessionID, sceneID uuid.UUID) (uuid.UUID, error) {
	if _, err := s.trackingRepo.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return uuid.Nil, models.ErrSessionNotFound
		}
		return uuid.Nil, err
	}

	view := &models.SceneView{
		ID:        uuid.New(),
		SessionID: sessionID,
		SceneID:   sceneID,
		EnteredAt: time.Now().UTC(),
	}
	if err := s.trackingRepo.CreateSceneView(ctx, view); err != nil {
		return uuid.Nil, err
	}
	return view.ID, nil
}

func (s *trackingServiceImpl) ExitScene(ctx context.Context, viewID uuid.UUID) error {
	return s.trackingRepo.CloseSceneView(ctx, viewID, time.Now().UTC())
}

func (s *trackingServiceImpl) RecordInteraction(ctx context.Context, sessionID, sceneID uuid.UUID, eventType models.InteractionType, metadata json.RawMessage) (uuid.UUID, error) {
	if !eventType.IsValid() {
		return uuid.Nil, fmt.Errorf("%w: event type %q is not allowed", models.ErrInvalidInput, eventType)
	}
	if _, err := models.DecodeInteractionMetadata(eventType, metadata); err != nil {
		return uuid.Nil, err
	}

	event := &models.InteractionEvent{
		ID:         uuid.New(),
		SessionID:  sessionID,
		SceneID:    sceneID,
		EventType:  eventType,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.trackingRepo.CreateInteractionEvent(ctx, event); err != nil {
		return uuid.Nil, err
	}
	return event.ID, nil
}

func (s *trackingServiceImpl) UpsertProfile(ctx context.Context, visitorID string, scores map[string]float64) (*models.ReaderProfile, error) {
	if visitorID == "" {
		return nil, fmt.Errorf("%w: visitor_id is required", models.ErrInvalidInput)
	}
	archetype := models.DominantArchetype(scores)
	if archetype == "" {
		return nil, fmt.Errorf("%w: scores must contain at least one archetype", models.ErrInvalidInput)
	}

	profile := &models.ReaderProfile{
		ID:        uuid.New(),
		VisitorID: visitorID,
		Archetype: archetype,
		Scores:    scores,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Info("Reader profile stored",
		zap.String("visitorID", visitorID), zap.String("archetype", archetype))
	return profile, nil
}
