package repository

import (
	"context"
	"fmt"

	"fable-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ AnalyticsRepository = (*pgAnalyticsRepository)(nil)

type pgAnalyticsRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgAnalyticsRepository(pool *pgxpool.Pool, logger *zap.Logger) AnalyticsRepository {
	return &pgAnalyticsRepository{
		pool:   pool,
		logger: logger.Named("PgAnalyticsRepo"),
	}
}

const scenesByStoryQuery = `
SELECT id, title, is_start, is_ending
FROM scenes
WHERE story_id = $1
ORDER BY sort_order`

const sessionsByStoryQuery = `
SELECT id, visitor_id, current_scene_id, started_at, completed_at
FROM reader_sessions
WHERE story_id = $1`

const choiceEventsByStoryQuery = `
SELECT ce.session_id, ce.choice_id, c.from_scene_id, c.to_scene_id,
       c.is_generated, c.archetype_target, ce.chosen_at
FROM choice_events ce
JOIN choices c ON c.id = ce.choice_id
JOIN reader_sessions s ON s.id = ce.session_id
WHERE s.story_id = $1`

const sceneViewsByStoryQuery = `
SELECT sv.session_id, sv.scene_id, sv.time_spent_ms
FROM scene_views sv
JOIN reader_sessions s ON s.id = sv.session_id
WHERE s.story_id = $1`

const interactionsByStoryQuery = `
SELECT ie.session_id, ie.scene_id, ie.event_type
FROM interaction_events ie
JOIN reader_sessions s ON s.id = ie.session_id
WHERE s.story_id = $1`

const choiceTextsQuery = `
SELECT c.id, c.text
FROM choices c
JOIN scenes sc ON sc.id = c.from_scene_id
WHERE sc.story_id = $1`

const platformSessionsQuery = `
SELECT id, completed_at IS NOT NULL AS completed
FROM reader_sessions`

const platformChoiceEventsQuery = `
SELECT ce.session_id, c.is_generated, c.archetype_target,
       p.archetype AS reader_archetype,
       s.completed_at IS NOT NULL AS session_completed
FROM choice_events ce
JOIN choices c ON c.id = ce.choice_id
JOIN reader_sessions s ON s.id = ce.session_id
LEFT JOIN reader_profiles p ON p.visitor_id = s.visitor_id`

const generatedChoicesQuery = `
SELECT from_scene_id
FROM choices
WHERE is_generated`

const sessionInteractionCountsQuery = `
SELECT session_id, COUNT(*) AS count
FROM interaction_events
GROUP BY session_id`

func (r *pgAnalyticsRepository) ScenesByStory(ctx context.Context, storyID uuid.UUID) ([]models.SceneRow, error) {
	var rows []models.SceneRow
	if err := pgxscan.Select(ctx, r.pool, &rows, scenesByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to fetch scenes", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to fetch scenes: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) SessionsByStory(ctx context.Context, storyID uuid.UUID) ([]models.SessionRow, error) {
	var rows []models.SessionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sessionsByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to fetch sessions", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) ChoiceEventsByStory(ctx context.Context, storyID uuid.UUID) ([]models.ChoiceEventRow, error) {
	var rows []models.ChoiceEventRow
	if err := pgxscan.Select(ctx, r.pool, &rows, choiceEventsByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to fetch choice events", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to fetch choice events: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) SceneViewsByStory(ctx context.Context, storyID uuid.UUID) ([]models.SceneViewRow, error) {
	var rows []models.SceneViewRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sceneViewsByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to fetch scene views", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to fetch scene views: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) InteractionsByStory(ctx context.Context, storyID uuid.UUID) ([]models.InteractionRow, error) {
	var rows []models.InteractionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, interactionsByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to fetch interactions", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) ChoiceTexts(ctx context.Context, storyID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx, choiceTextsQuery, storyID)
	if err != nil {
		r.logger.Error("Failed to fetch choice texts", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to fetch choice texts: %w", err)
	}
	defer rows.Close()

	texts := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("failed to scan choice text: %w", err)
		}
		texts[id] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("choice text rows iteration failed: %w", err)
	}
	return texts, nil
}

func (r *pgAnalyticsRepository) PlatformSessions(ctx context.Context) ([]models.PlatformSessionRow, error) {
	var rows []models.PlatformSessionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, platformSessionsQuery); err != nil {
		r.logger.Error("Failed to fetch platform sessions", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch platform sessions: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) PlatformChoiceEvents(ctx context.Context) ([]models.PlatformChoiceEventRow, error) {
	var rows []models.PlatformChoiceEventRow
	if err := pgxscan.Select(ctx, r.pool, &rows, platformChoiceEventsQuery); err != nil {
		r.logger.Error("Failed to fetch platform choice events", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch platform choice events: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) GeneratedChoices(ctx context.Context) ([]models.GeneratedChoiceRow, error) {
	var rows []models.GeneratedChoiceRow
	if err := pgxscan.Select(ctx, r.pool, &rows, generatedChoicesQuery); err != nil {
		r.logger.Error("Failed to fetch generated choices", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch generated choices: %w", err)
	}
	return rows, nil
}

func (r *pgAnalyticsRepository) SessionInteractionCounts(ctx context.Context) ([]models.SessionInteractionCountRow, error) {
	var rows []models.SessionInteractionCountRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sessionInteractionCountsQuery); err != nil {
		r.logger.Error("Failed to fetch session interaction counts", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch session interaction counts: %w", err)
	}
	return rows, nil
}
