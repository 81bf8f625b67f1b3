package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"fable-server/internal/models"
	"fable-server/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx          context.Context
	pgContainer  *postgres.PostgresContainer
	pool         *pgxpool.Pool
	logger       *zap.Logger
	storyRepo    repository.StoryRepository
	profileRepo  repository.ProfileRepository
	trackingRepo repository.TrackingRepository
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err)

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("fable_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.runMigrations(connStr))

	s.storyRepo = repository.NewPgStoryRepository(s.pool, s.logger)
	s.profileRepo = repository.NewPgProfileRepository(s.pool, s.logger)
	s.trackingRepo = repository.NewPgTrackingRepository(s.pool, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE TABLE stories RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err)
	_, err = s.pool.Exec(s.ctx, "TRUNCATE TABLE reader_profiles RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err)
}

func (s *RepositoryIntegrationSuite) runMigrations(dbURL string) error {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return fmt.Errorf("could not get caller information")
	}
	migrationsPath := filepath.Join(filepath.Dir(filename), "..", "..", "migrations")

	sourceDriver, err := iofs.New(os.DirFS(migrationsPath), ".")
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// seedGraph inserts a story with a branch scene, two standard choices and an
// ending scene, returning the ids the tests need.
func (s *RepositoryIntegrationSuite) seedGraph() (storyID, branchID, endingID, choiceID uuid.UUID) {
	storyID = uuid.New()
	branchID = uuid.New()
	endingID = uuid.New()
	choiceID = uuid.New()

	_, err := s.pool.Exec(s.ctx,
		`INSERT INTO stories (id, title, status) VALUES ($1, 'The Vault', 'active')`, storyID)
	require.NoError(s.T(), err)

	_, err = s.pool.Exec(s.ctx,
		`INSERT INTO scenes (id, story_id, title, content, sort_order, is_start, is_ending, is_branch_point)
		 VALUES ($1, $2, 'The Door', 'A door.', 0, true, false, true),
		        ($3, $2, 'Outside', 'Free at last.', 1, false, true, false)`,
		branchID, storyID, endingID)
	require.NoError(s.T(), err)

	_, err = s.pool.Exec(s.ctx,
		`INSERT INTO choices (id, from_scene_id, to_scene_id, text, sort_order)
		 VALUES ($1, $2, $3, 'Force the door', 1),
		        ($4, $2, $3, 'Pick the lock', 2)`,
		choiceID, branchID, endingID, uuid.New())
	require.NoError(s.T(), err)
	return
}

func (s *RepositoryIntegrationSuite) TestGeneratedChoiceIdempotence() {
	_, branchID, endingID, _ := s.seedGraph()
	archetype := "flame"
	now := time.Now().UTC()

	first := &models.Choice{
		ID:              uuid.New(),
		FromSceneID:     branchID,
		ToSceneID:       endingID,
		Text:            "Burn it down",
		ArchetypeTarget: &archetype,
		IsGenerated:     true,
		GeneratedAt:     &now,
	}
	persisted, created, err := s.storyRepo.CreateGeneratedChoice(s.ctx, first)
	require.NoError(s.T(), err)
	require.True(s.T(), created)
	require.Equal(s.T(), first.ID, persisted.ID)
	require.Greater(s.T(), persisted.SortOrder, 2, "generated choices sort after standard ones")

	// A second insert for the same (scene, archetype) must return the winner.
	second := &models.Choice{
		ID:              uuid.New(),
		FromSceneID:     branchID,
		ToSceneID:       endingID,
		Text:            "A different text",
		ArchetypeTarget: &archetype,
		IsGenerated:     true,
		GeneratedAt:     &now,
	}
	persisted2, created2, err := s.storyRepo.CreateGeneratedChoice(s.ctx, second)
	require.NoError(s.T(), err)
	require.False(s.T(), created2)
	require.Equal(s.T(), first.ID, persisted2.ID)
	require.Equal(s.T(), "Burn it down", persisted2.Text)

	// A different archetype still gets its own row.
	other := "shadow"
	third := &models.Choice{
		ID:              uuid.New(),
		FromSceneID:     branchID,
		ToSceneID:       endingID,
		Text:            "Wait in the dark",
		ArchetypeTarget: &other,
		IsGenerated:     true,
		GeneratedAt:     &now,
	}
	_, created3, err := s.storyRepo.CreateGeneratedChoice(s.ctx, third)
	require.NoError(s.T(), err)
	require.True(s.T(), created3)

	all, err := s.storyRepo.ListChoices(s.ctx, branchID)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 4)
	require.False(s.T(), all[0].IsGenerated, "standard choices order first")
	require.False(s.T(), all[1].IsGenerated)
}

func (s *RepositoryIntegrationSuite) TestSessionLifecycle() {
	storyID, branchID, endingID, choiceID := s.seedGraph()

	_, err := s.trackingRepo.FindOpenSession(s.ctx, storyID, "visitor-1")
	require.ErrorIs(s.T(), err, models.ErrNotFound)

	session := &models.ReaderSession{
		ID:             uuid.New(),
		StoryID:        storyID,
		VisitorID:      "visitor-1",
		CurrentSceneID: &branchID,
		StartedAt:      time.Now().UTC(),
	}
	require.NoError(s.T(), s.trackingRepo.CreateSession(s.ctx, session))

	found, err := s.trackingRepo.FindOpenSession(s.ctx, storyID, "visitor-1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), session.ID, found.ID)

	require.NoError(s.T(), s.trackingRepo.CreateChoiceEvent(s.ctx, &models.ChoiceEvent{
		ID: uuid.New(), SessionID: session.ID, ChoiceID: choiceID, ChosenAt: time.Now().UTC(),
	}))
	require.NoError(s.T(), s.trackingRepo.UpdateCurrentScene(s.ctx, session.ID, endingID))

	completedAt := time.Now().UTC()
	require.NoError(s.T(), s.trackingRepo.CompleteSession(s.ctx, session.ID, completedAt))

	// Completion is write-once: the later timestamp must not overwrite it.
	require.NoError(s.T(), s.trackingRepo.CompleteSession(s.ctx, session.ID, completedAt.Add(time.Hour)))

	got, err := s.trackingRepo.GetSession(s.ctx, session.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.CompletedAt)
	require.WithinDuration(s.T(), completedAt, *got.CompletedAt, time.Second)

	// A completed session is no longer "open".
	_, err = s.trackingRepo.FindOpenSession(s.ctx, storyID, "visitor-1")
	require.ErrorIs(s.T(), err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestSceneViewClose() {
	storyID, branchID, _, _ := s.seedGraph()

	session := &models.ReaderSession{
		ID: uuid.New(), StoryID: storyID, VisitorID: "visitor-2", StartedAt: time.Now().UTC(),
	}
	require.NoError(s.T(), s.trackingRepo.CreateSession(s.ctx, session))

	view := &models.SceneView{
		ID:        uuid.New(),
		SessionID: session.ID,
		SceneID:   branchID,
		EnteredAt: time.Now().UTC().Add(-3 * time.Second),
	}
	require.NoError(s.T(), s.trackingRepo.CreateSceneView(s.ctx, view))
	require.NoError(s.T(), s.trackingRepo.CloseSceneView(s.ctx, view.ID, time.Now().UTC()))

	var timeSpent *int64
	err := s.pool.QueryRow(s.ctx,
		"SELECT time_spent_ms FROM scene_views WHERE id = $1", view.ID).Scan(&timeSpent)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), timeSpent)
	require.GreaterOrEqual(s.T(), *timeSpent, int64(2000))

	// Closing again is a no-op, as is closing an unknown view.
	require.NoError(s.T(), s.trackingRepo.CloseSceneView(s.ctx, view.ID, time.Now().UTC()))
	require.NoError(s.T(), s.trackingRepo.CloseSceneView(s.ctx, uuid.New(), time.Now().UTC()))
}

func (s *RepositoryIntegrationSuite) TestProfileUpsert() {
	profile := &models.ReaderProfile{
		ID:        uuid.New(),
		VisitorID: "visitor-3",
		Archetype: "sage",
		Scores:    map[string]float64{"sage": 5, "flame": 2},
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(s.T(), s.profileRepo.Upsert(s.ctx, profile))

	got, err := s.profileRepo.GetByVisitorID(s.ctx, "visitor-3")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "sage", got.Archetype)
	require.InDelta(s.T(), 5.0, got.Scores["sage"], 0.0001)

	// A second quiz submission replaces the classification in place.
	profile.Archetype = "flame"
	profile.Scores = map[string]float64{"flame": 9}
	require.NoError(s.T(), s.profileRepo.Upsert(s.ctx, profile))

	got, err = s.profileRepo.GetByVisitorID(s.ctx, "visitor-3")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "flame", got.Archetype)

	_, err = s.profileRepo.GetByVisitorID(s.ctx, "nobody")
	require.ErrorIs(s.T(), err, models.ErrNotFound)
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in -short mode")
	}
	if os.Getenv("SKIP_INTEGRATION_TESTS") != "" {
		t.Skip("SKIP_INTEGRATION_TESTS is set")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}
