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
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgStoryRepository(pool *pgxpool.Pool, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		pool:   pool,
		logger: logger.Named("PgStoryRepo"),
	}
}

const getStoryQuery = `
SELECT id, title, status, created_at
FROM stories
WHERE id = $1`

const getSceneQuery = `
SELECT id, story_id, title, content, sort_order, is_start, is_ending, is_branch_point, created_at
FROM scenes
WHERE id = $1`

const getStartSceneQuery = `
SELECT id, story_id, title, content, sort_order, is_start, is_ending, is_branch_point, created_at
FROM scenes
WHERE story_id = $1 AND is_start
LIMIT 1`

const listChoicesQuery = `
SELECT id, from_scene_id, to_scene_id, text, sort_order, archetype_target, is_generated, generated_for, generated_at
FROM choices
WHERE from_scene_id = $1
ORDER BY is_generated, sort_order`

const listStandardChoicesQuery = `
SELECT id, from_scene_id, to_scene_id, text, sort_order, archetype_target, is_generated, generated_for, generated_at
FROM choices
WHERE from_scene_id = $1 AND archetype_target IS NULL
ORDER BY sort_order`

const getChoiceQuery = `
SELECT id, from_scene_id, to_scene_id, text, sort_order, archetype_target, is_generated, generated_for, generated_at
FROM choices
WHERE id = $1`

const findGeneratedChoiceQuery = `
SELECT id, from_scene_id, to_scene_id, text, sort_order, archetype_target, is_generated, generated_for, generated_at
FROM choices
WHERE from_scene_id = $1 AND archetype_target = $2 AND is_generated`

// insertGeneratedChoiceQuery places the new edge after all existing ones and
// relies on the partial unique index choices_one_generated_per_archetype for
// the read-or-create guarantee: a concurrent duplicate simply inserts zero
// rows.
const insertGeneratedChoiceQuery = `
INSERT INTO choices (id, from_scene_id, to_scene_id, text, sort_order, archetype_target, is_generated, generated_for, generated_at)
VALUES ($1, $2, $3, $4,
        (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM choices WHERE from_scene_id = $2),
        $5, TRUE, $6, $7)
ON CONFLICT (from_scene_id, archetype_target) WHERE is_generated DO NOTHING`

func (r *pgStoryRepository) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	story := &models.Story{}
	err := r.pool.QueryRow(ctx, getStoryQuery, id).Scan(
		&story.ID,
		&story.Title,
		&story.Status,
		&story.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return story, nil
}

func (r *pgStoryRepository) GetScene(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	return r.scanScene(ctx, getSceneQuery, id)
}

func (r *pgStoryRepository) GetStartScene(ctx context.Context, storyID uuid.UUID) (*models.Scene, error) {
	return r.scanScene(ctx, getStartSceneQuery, storyID)
}

func (r *pgStoryRepository) scanScene(ctx context.Context, query string, arg any) (*models.Scene, error) {
	scene := &models.Scene{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&scene.ID,
		&scene.StoryID,
		&scene.Title,
		&scene.Content,
		&scene.SortOrder,
		&scene.IsStart,
		&scene.IsEnding,
		&scene.IsBranchPoint,
		&scene.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get scene", zap.Error(err))
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}
	return scene, nil
}

func (r *pgStoryRepository) ListChoices(ctx context.Context, sceneID uuid.UUID) ([]models.Choice, error) {
	return r.listChoices(ctx, listChoicesQuery, sceneID)
}

func (r *pgStoryRepository) ListStandardChoices(ctx context.Context, sceneID uuid.UUID) ([]models.Choice, error) {
	return r.listChoices(ctx, listStandardChoicesQuery, sceneID)
}

func (r *pgStoryRepository) listChoices(ctx context.Context, query string, sceneID uuid.UUID) ([]models.Choice, error) {
	rows, err := r.pool.Query(ctx, query, sceneID)
	if err != nil {
		r.logger.Error("Failed to list choices", zap.Error(err), zap.String("sceneID", sceneID.String()))
		return nil, fmt.Errorf("failed to list choices for scene %s: %w", sceneID, err)
	}
	defer rows.Close()

	choices := make([]models.Choice, 0)
	for rows.Next() {
		var c models.Choice
		if err := scanChoice(rows, &c); err != nil {
			r.logger.Error("Failed to scan choice row", zap.Error(err), zap.String("sceneID", sceneID.String()))
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("choice rows iteration failed: %w", err)
	}
	return choices, nil
}

func (r *pgStoryRepository) GetChoice(ctx context.Context, id uuid.UUID) (*models.Choice, error) {
	choice := &models.Choice{}
	err := scanChoice(r.pool.QueryRow(ctx, getChoiceQuery, id), choice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get choice", zap.Error(err), zap.String("choiceID", id.String()))
		return nil, fmt.Errorf("failed to get choice %s: %w", id, err)
	}
	return choice, nil
}

func (r *pgStoryRepository) FindGeneratedChoice(ctx context.Context, sceneID uuid.UUID, archetype string) (*models.Choice, error) {
	choice := &models.Choice{}
	err := scanChoice(r.pool.QueryRow(ctx, findGeneratedChoiceQuery, sceneID, archetype), choice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to find generated choice", zap.Error(err),
			zap.String("sceneID", sceneID.String()), zap.String("archetype", archetype))
		return nil, fmt.Errorf("failed to find generated choice: %w", err)
	}
	return choice, nil
}

// CreateGeneratedChoice inserts the generated edge; when another call already
// created one for the same (scene, archetype), the winner's row is fetched
// and returned instead of an error.
func (r *pgStoryRepository) CreateGeneratedChoice(ctx context.Context, choice *models.Choice) (*models.Choice, bool, error) {
	if choice.ID == uuid.Nil {
		choice.ID = uuid.New()
	}
	if choice.GeneratedAt == nil {
		now := time.Now().UTC()
		choice.GeneratedAt = &now
	}
	if choice.ArchetypeTarget == nil {
		return nil, false, fmt.Errorf("%w: generated choice requires an archetype target", models.ErrInvalidInput)
	}

	tag, err := r.pool.Exec(ctx, insertGeneratedChoiceQuery,
		choice.ID,
		choice.FromSceneID,
		choice.ToSceneID,
		choice.Text,
		choice.ArchetypeTarget,
		choice.GeneratedFor,
		choice.GeneratedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert generated choice", zap.Error(err),
			zap.String("sceneID", choice.FromSceneID.String()), zap.Stringp("archetype", choice.ArchetypeTarget))
		return nil, false, fmt.Errorf("failed to insert generated choice: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Lost the race: the unique index swallowed the insert. Return the
		// winner's row.
		existing, err := r.FindGeneratedChoice(ctx, choice.FromSceneID, *choice.ArchetypeTarget)
		if err != nil {
			return nil, false, fmt.Errorf("failed to fetch winning generated choice: %w", err)
		}
		r.logger.Debug("Generated choice already existed, returning winner",
			zap.String("sceneID", choice.FromSceneID.String()), zap.String("choiceID", existing.ID.String()))
		return existing, false, nil
	}

	// Re-read to pick up the computed sort_order.
	persisted, err := r.GetChoice(ctx, choice.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to re-read generated choice: %w", err)
	}
	r.logger.Info("Generated choice created",
		zap.String("choiceID", persisted.ID.String()),
		zap.String("sceneID", persisted.FromSceneID.String()),
		zap.Stringp("archetype", persisted.ArchetypeTarget))
	return persisted, true, nil
}

// scanChoice reads one choice row in column order shared by every choice
// query in this file.
func scanChoice(row pgx.Row, c *models.Choice) error {
	return row.Scan(
		&c.ID,
		&c.FromSceneID,
		&c.ToSceneID,
		&c.Text,
		&c.SortOrder,
		&c.ArchetypeTarget,
		&c.IsGenerated,
		&c.GeneratedFor,
		&c.GeneratedAt,
	)
}
