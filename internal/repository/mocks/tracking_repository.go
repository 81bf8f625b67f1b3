package mocks

import (
	"context"
	"time"

	"fable-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock TrackingRepository
type TrackingRepository struct {
	mock.Mock
}

func (m *TrackingRepository) FindOpenSession(ctx context.Context, storyID uuid.UUID, visitorID string) (*models.ReaderSession, error) {
	args := m.Called(ctx, storyID, visitorID)
	session, _ := args.Get(0).(*models.ReaderSession)
	return session, args.Error(1)
}

func (m *TrackingRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.ReaderSession, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*models.ReaderSession)
	return session, args.Error(1)
}

func (m *TrackingRepository) CreateSession(ctx context.Context, session *models.ReaderSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *TrackingRepository) UpdateCurrentScene(ctx context.Context, sessionID, sceneID uuid.UUID) error {
	args := m.Called(ctx, sessionID, sceneID)
	return args.Error(0)
}

func (m *TrackingRepository) CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error {
	args := m.Called(ctx, sessionID, completedAt)
	return args.Error(0)
}

func (m *TrackingRepository) CreateChoiceEvent(ctx context.Context, event *models.ChoiceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *TrackingRepository) CreateSceneView(ctx context.Context, view *models.SceneView) error {
	args := m.Called(ctx, view)
	return args.Error(0)
}

func (m *TrackingRepository) CloseSceneView(ctx context.Context, viewID uuid.UUID, exitedAt time.Time) error {
	args := m.Called(ctx, viewID, exitedAt)
	return args.Error(0)
}

func (m *TrackingRepository) CreateInteractionEvent(ctx context.Context, event *models.InteractionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
