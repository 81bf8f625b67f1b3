package repository

import (
	"context"
	"encoding/json"
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
var _ ProfileRepository = (*pgProfileRepository)(nil)

type pgProfileRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgProfileRepository(pool *pgxpool.Pool, logger *zap.Logger) ProfileRepository {
	return &pgProfileRepository{
		pool:   pool,
		logger: logger.Named("PgProfileRepo"),
	}
}

const upsertProfileQuery = `
INSERT INTO reader_profiles (id, visitor_id, archetype, scores, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (visitor_id) DO UPDATE SET
    archetype = EXCLUDED.archetype,
    scores = EXCLUDED.scores,
    updated_at = EXCLUDED.updated_at`

const getProfileByVisitorQuery = `
SELECT id, visitor_id, archetype, scores, created_at, updated_at
FROM reader_profiles
WHERE visitor_id = $1`

// Upsert stores the profile keyed by visitor id; a repeated quiz submission
// replaces archetype and scores in place.
func (r *pgProfileRepository) Upsert(ctx context.Context, profile *models.ReaderProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now().UTC()
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	scoresJSON, err := json.Marshal(profile.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal profile scores: %w", err)
	}

	_, err = r.pool.Exec(ctx, upsertProfileQuery,
		profile.ID,
		profile.VisitorID,
		profile.Archetype,
		scoresJSON,
		profile.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert reader profile", zap.Error(err), zap.String("visitorID", profile.VisitorID))
		return fmt.Errorf("failed to upsert reader profile: %w", err)
	}
	r.logger.Debug("Reader profile upserted",
		zap.String("visitorID", profile.VisitorID), zap.String("archetype", profile.Archetype))
	return nil
}

func (r *pgProfileRepository) GetByVisitorID(ctx context.Context, visitorID string) (*models.ReaderProfile, error) {
	profile := &models.ReaderProfile{}
	var scoresJSON []byte

	err := r.pool.QueryRow(ctx, getProfileByVisitorQuery, visitorID).Scan(
		&profile.ID,
		&profile.VisitorID,
		&profile.Archetype,
		&scoresJSON,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get reader profile", zap.Error(err), zap.String("visitorID", visitorID))
		return nil, fmt.Errorf("failed to get reader profile: %w", err)
	}

	if err := json.Unmarshal(scoresJSON, &profile.Scores); err != nil {
		r.logger.Error("Failed to unmarshal profile scores", zap.Error(err), zap.String("visitorID", visitorID))
		return nil, fmt.Errorf("failed to unmarshal profile scores: %w", err)
	}
	return profile, nil
}
