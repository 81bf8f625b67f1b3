package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fable-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ TrackingRepository = (*pgTrackingRepository)(nil)

type pgTrackingRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgTrackingRepository(pool *pgxpool.Pool, logger *zap.Logger) TrackingRepository {
	return &pgTrackingRepository{
		pool:   pool,
		logger: logger.Named("PgTrackingRepo"),
	}
}

const findOpenSessionQuery = `
SELECT id, story_id, visitor_id, current_scene_id, started_at, completed_at
FROM reader_sessions
WHERE story_id = $1 AND visitor_id = $2 AND completed_at IS NULL
ORDER BY started_at DESC
LIMIT 1`

const getSessionQuery = `
SELECT id, story_id, visitor_id, current_scene_id, started_at, completed_at
FROM reader_sessions
WHERE id = $1`

const createSessionQuery = `
INSERT INTO reader_sessions (id, story_id, visitor_id, current_scene_id, started_at)
VALUES ($1, $2, $3, $4, $5)`

const updateCurrentSceneQuery = `
UPDATE reader_sessions SET current_scene_id = $2 WHERE id = $1`

// completed_at is written exactly once; re-tracking an ending visit leaves
// the original timestamp untouched.
const completeSessionQuery = `
UPDATE reader_sessions SET completed_at = $2 WHERE id = $1 AND completed_at IS NULL`

const createChoiceEventQuery = `
INSERT INTO choice_events (id, session_id, choice_id, chosen_at)
VALUES ($1, $2, $3, $4)`

const createSceneViewQuery = `
INSERT INTO scene_views (id, session_id, scene_id, entered_at)
VALUES ($1, $2, $3, $4)`

const closeSceneViewQuery = `
UPDATE scene_views
SET exited_at = $2,
    time_spent_ms = (EXTRACT(EPOCH FROM ($2::timestamptz - entered_at)) * 1000)::bigint
WHERE id = $1 AND exited_at IS NULL`

const createInteractionEventQuery = `
INSERT INTO interaction_events (id, session_id, scene_id, event_type, metadata, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`

func (r *pgTrackingRepository) FindOpenSession(ctx context.Context, storyID uuid.UUID, visitorID string) (*models.ReaderSession, error) {
	return r.scanSession(ctx, findOpenSessionQuery, storyID, visitorID)
}

func (r *pgTrackingRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.ReaderSession, error) {
	return r.scanSession(ctx, getSessionQuery, id)
}

func (r *pgTrackingRepository) scanSession(ctx context.Context, query string, args ...any) (*models.ReaderSession, error) {
	session := &models.ReaderSession{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&session.ID,
		&session.StoryID,
		&session.VisitorID,
		&session.CurrentSceneID,
		&session.StartedAt,
		&session.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get reader session", zap.Error(err))
		return nil, fmt.Errorf("failed to get reader session: %w", err)
	}
	return session, nil
}

func (r *pgTrackingRepository) CreateSession(ctx context.Context, session *models.ReaderSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, createSessionQuery,
		session.ID,
		session.StoryID,
		session.VisitorID,
		session.CurrentSceneID,
		session.StartedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create reader session", zap.Error(err),
			zap.String("storyID", session.StoryID.String()), zap.String("visitorID", session.VisitorID))
		return fmt.Errorf("failed to create reader session: %w", err)
	}
	r.logger.Info("Reader session created", zap.String("sessionID", session.ID.String()))
	return nil
}

func (r *pgTrackingRepository) UpdateCurrentScene(ctx context.Context, sessionID, sceneID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, updateCurrentSceneQuery, sessionID, sceneID)
	if err != nil {
		r.logger.Error("Failed to update current scene", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return fmt.Errorf("failed to update current scene: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgTrackingRepository) CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error {
	_, err := r.pool.Exec(ctx, completeSessionQuery, sessionID, completedAt)
	if err != nil {
		r.logger.Error("Failed to complete reader session", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return fmt.Errorf("failed to complete reader session: %w", err)
	}
	return nil
}

func (r *pgTrackingRepository) CreateChoiceEvent(ctx context.Context, event *models.ChoiceEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.ChosenAt.IsZero() {
		event.ChosenAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, createChoiceEventQuery,
		event.ID,
		event.SessionID,
		event.ChoiceID,
		event.ChosenAt,
	)
	if err != nil {
		r.logger.Error("Failed to create choice event", zap.Error(err),
			zap.String("sessionID", event.SessionID.String()), zap.String("choiceID", event.ChoiceID.String()))
		return fmt.Errorf("failed to create choice event: %w", err)
	}
	return nil
}

func (r *pgTrackingRepository) CreateSceneView(ctx context.Context, view *models.SceneView) error {
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	if view.EnteredAt.IsZero() {
		view.EnteredAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, createSceneViewQuery,
		view.ID,
		view.SessionID,
		view.SceneID,
		view.EnteredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create scene view", zap.Error(err),
			zap.String("sessionID", view.SessionID.String()), zap.String("sceneID", view.SceneID.String()))
		return fmt.Errorf("failed to create scene view: %w", err)
	}
	return nil
}

func (r *pgTrackingRepository) CloseSceneView(ctx context.Context, viewID uuid.UUID, exitedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, closeSceneViewQuery, viewID, exitedAt)
	if err != nil {
		r.logger.Error("Failed to close scene view", zap.Error(err), zap.String("viewID", viewID.String()))
		return fmt.Errorf("failed to close scene view: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Unknown or already closed view; the tracker treats this as a no-op.
		r.logger.Debug("Scene view close was a no-op", zap.String("viewID", viewID.String()))
	}
	return nil
}

func (r *pgTrackingRepository) CreateInteractionEvent(ctx context.Context, event *models.InteractionEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, createInteractionEventQuery,
		event.ID,
		event.SessionID,
		event.SceneID,
		string(event.EventType),
		event.Metadata,
		event.OccurredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create interaction event", zap.Error(err),
			zap.String("sessionID", event.SessionID.String()), zap.String("eventType", string(event.EventType)))
		return fmt.Errorf("failed to create interaction event: %w", err)
	}
	return nil
}
