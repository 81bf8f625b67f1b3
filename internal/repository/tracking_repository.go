package repository

import (
	"context"
	"time"

	"fable-server/internal/models"

	"github.com/google/uuid"
)

//go:generate mockery --name TrackingRepository --output ./mocks --outpkg mocks --case=underscore
type TrackingRepository interface {
	// FindOpenSession returns the most recently started session for the
	// (story, visitor) pair with completed_at still null, or
	// models.ErrNotFound.
	FindOpenSession(ctx context.Context, storyID uuid.UUID, visitorID string) (*models.ReaderSession, error)

	GetSession(ctx context.Context, id uuid.UUID) (*models.ReaderSession, error)
	CreateSession(ctx context.Context, session *models.ReaderSession) error
	UpdateCurrentScene(ctx context.Context, sessionID, sceneID uuid.UUID) error

	// CompleteSession sets completed_at once; calls on an already completed
	// session are no-ops.
	CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error

	CreateChoiceEvent(ctx context.Context, event *models.ChoiceEvent) error

	CreateSceneView(ctx context.Context, view *models.SceneView) error

	// CloseSceneView stamps exited_at and time_spent_ms on an open view.
	// Unknown or already closed views are a no-op.
	CloseSceneView(ctx context.Context, viewID uuid.UUID, exitedAt time.Time) error

	CreateInteractionEvent(ctx context.Context, event *models.InteractionEvent) error
}
