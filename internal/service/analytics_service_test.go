package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fable-server/internal/models"
	"fable-server/internal/repository/mocks"
	"fable-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func timePtr(t time.Time) *time.Time { return &t }
func int64Ptr(v int64) *int64        { return &v }

func TestStoryAnalytics(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()

	t.Run("Completion rate and choice popularity", func(t *testing.T) {
		sceneA := uuid.New()
		endingScene := uuid.New()
		choiceLeft := uuid.New()
		choiceRight := uuid.New()

		sessions := make([]models.SessionRow, 0, 10)
		for i := 0; i < 10; i++ {
			s := models.SessionRow{ID: uuid.New(), StartedAt: time.Now()}
			if i < 4 {
				s.CompletedAt = timePtr(time.Now())
				s.CurrentSceneID = &endingScene
			}
			sessions = append(sessions, s)
		}

		events := make([]models.ChoiceEventRow, 0, 10)
		for i := 0; i < 3; i++ {
			events = append(events, models.ChoiceEventRow{
				SessionID: sessions[i].ID, ChoiceID: choiceLeft, FromSceneID: sceneA, ToSceneID: endingScene,
			})
		}
		for i := 3; i < 10; i++ {
			events = append(events, models.ChoiceEventRow{
				SessionID: sessions[i].ID, ChoiceID: choiceRight, FromSceneID: sceneA, ToSceneID: endingScene,
			})
		}

		repo := new(mocks.AnalyticsRepository)
		repo.On("ScenesByStory", ctx, storyID).Return([]models.SceneRow{
			{ID: sceneA, Title: "Fork"},
			{ID: endingScene, Title: "Finale", IsEnding: true},
		}, nil).Once()
		repo.On("SessionsByStory", ctx, storyID).Return(sessions, nil).Once()
		repo.On("ChoiceEventsByStory", ctx, storyID).Return(events, nil).Once()
		repo.On("ChoiceTexts", ctx, storyID).Return(map[uuid.UUID]string{
			choiceLeft: "Left", choiceRight: "Right",
		}, nil).Once()

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.StoryAnalytics(ctx, storyID)
		require.NoError(t, err)

		assert.Equal(t, 10, result.Sessions.TotalSessions)
		assert.Equal(t, 4, result.Sessions.CompletedSessions)
		assert.Equal(t, 40.0, result.Sessions.CompletionRate)

		require.Len(t, result.ChoicePopularity, 2)
		// Most chosen first within the same source scene.
		assert.Equal(t, "Right", result.ChoicePopularity[0].Text)
		assert.Equal(t, 70.0, result.ChoicePopularity[0].Percentage)
		assert.Equal(t, 30.0, result.ChoicePopularity[1].Percentage)

		// Every session continued past the fork; nobody continued past the ending.
		for _, stat := range result.DropOff {
			switch stat.SceneID {
			case sceneA:
				assert.Equal(t, 10, stat.SessionsReached)
				assert.Equal(t, 10, stat.SessionsContinued)
				assert.Equal(t, 0.0, stat.DropOffRate)
			case endingScene:
				assert.Equal(t, 10, stat.SessionsReached)
				assert.True(t, stat.IsEnding)
				assert.Equal(t, 0.0, stat.DropOffRate, "ending scenes never count as drop-off")
			}
		}

		require.Len(t, result.Endings, 1)
		assert.Equal(t, 4, result.Endings[0].TimesReached)
		assert.Equal(t, 100.0, result.Endings[0].Percentage)
	})

	t.Run("Drop-off counts sessions that left", func(t *testing.T) {
		scene := uuid.New()
		next := uuid.New()

		sessions := make([]models.SessionRow, 0, 100)
		events := make([]models.ChoiceEventRow, 0, 80)
		for i := 0; i < 100; i++ {
			s := models.SessionRow{ID: uuid.New(), CurrentSceneID: &scene, StartedAt: time.Now()}
			sessions = append(sessions, s)
			if i < 80 {
				events = append(events, models.ChoiceEventRow{
					SessionID: s.ID, ChoiceID: uuid.New(), FromSceneID: scene, ToSceneID: next,
				})
			}
		}

		repo := new(mocks.AnalyticsRepository)
		repo.On("ScenesByStory", ctx, storyID).Return([]models.SceneRow{{ID: scene, Title: "Gate"}}, nil).Once()
		repo.On("SessionsByStory", ctx, storyID).Return(sessions, nil).Once()
		repo.On("ChoiceEventsByStory", ctx, storyID).Return(events, nil).Once()
		repo.On("ChoiceTexts", ctx, storyID).Return(map[uuid.UUID]string{}, nil).Once()

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.StoryAnalytics(ctx, storyID)
		require.NoError(t, err)

		require.Len(t, result.DropOff, 1)
		stat := result.DropOff[0]
		assert.Equal(t, 100, stat.SessionsReached)
		assert.Equal(t, 80, stat.SessionsContinued)
		assert.Equal(t, 20, stat.SessionsLeft)
		assert.Equal(t, 20.0, stat.DropOffRate)
	})

	t.Run("Failed segments degrade to zero values", func(t *testing.T) {
		repo := new(mocks.AnalyticsRepository)
		repo.On("ScenesByStory", ctx, storyID).Return(nil, errors.New("db down")).Once()
		repo.On("SessionsByStory", ctx, storyID).Return(nil, errors.New("db down")).Once()
		repo.On("ChoiceEventsByStory", ctx, storyID).Return(nil, errors.New("db down")).Once()
		repo.On("ChoiceTexts", ctx, storyID).Return(nil, errors.New("db down")).Once()

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.StoryAnalytics(ctx, storyID)
		require.NoError(t, err, "segment failures must not fail the response")
		assert.Equal(t, 0, result.Sessions.TotalSessions)
		assert.Equal(t, 0.0, result.Sessions.CompletionRate)
		assert.Empty(t, result.ChoicePopularity)
		assert.Empty(t, result.DropOff)
	})
}

func TestDetailedAnalytics(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()
	scene := uuid.New()

	mockDetailed := func(repo *mocks.AnalyticsRepository, views []models.SceneViewRow, interactions []models.InteractionRow, events []models.ChoiceEventRow, sessions []models.SessionRow) {
		repo.On("ScenesByStory", ctx, storyID).Return([]models.SceneRow{{ID: scene, Title: "Hall"}}, nil).Once()
		repo.On("SceneViewsByStory", ctx, storyID).Return(views, nil).Once()
		repo.On("InteractionsByStory", ctx, storyID).Return(interactions, nil).Once()
		repo.On("ChoiceEventsByStory", ctx, storyID).Return(events, nil).Once()
		repo.On("SessionsByStory", ctx, storyID).Return(sessions, nil).Once()
	}

	t.Run("Time per scene uses only closed views", func(t *testing.T) {
		s1, s2, s3 := uuid.New(), uuid.New(), uuid.New()
		views := []models.SceneViewRow{
			{SessionID: s1, SceneID: scene, TimeSpentMs: int64Ptr(1000)},
			{SessionID: s2, SceneID: scene, TimeSpentMs: int64Ptr(3000)},
			{SessionID: s3, SceneID: scene}, // still open
		}

		repo := new(mocks.AnalyticsRepository)
		mockDetailed(repo, views, nil, nil, nil)

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.DetailedAnalytics(ctx, storyID)
		require.NoError(t, err)

		require.Len(t, result.TimePerScene, 1)
		stat := result.TimePerScene[0]
		assert.Equal(t, 2000.0, stat.AvgTimeMs)
		assert.Equal(t, 2000.0, stat.MedianTimeMs)
		assert.Equal(t, 3, stat.TotalViews)
	})

	t.Run("Engagement is weighted and normalized per viewing session", func(t *testing.T) {
		s1, s2 := uuid.New(), uuid.New()
		views := []models.SceneViewRow{
			{SessionID: s1, SceneID: scene, TimeSpentMs: int64Ptr(500)},
			{SessionID: s1, SceneID: scene, TimeSpentMs: int64Ptr(700)}, // same session again
			{SessionID: s2, SceneID: scene, TimeSpentMs: int64Ptr(900)},
		}
		interactions := []models.InteractionRow{
			{SessionID: s1, SceneID: scene, EventType: "hover_choice"},
			{SessionID: s1, SceneID: scene, EventType: "reread"},
			{SessionID: s2, SceneID: scene, EventType: "hesitation"},
			{SessionID: s2, SceneID: scene, EventType: "scroll"}, // unweighted
		}

		repo := new(mocks.AnalyticsRepository)
		mockDetailed(repo, views, interactions, nil, nil)

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.DetailedAnalytics(ctx, storyID)
		require.NoError(t, err)

		require.Len(t, result.Engagement, 1)
		score := result.Engagement[0]
		assert.Equal(t, 1, score.HoverCount)
		assert.Equal(t, 1, score.RereadCount)
		assert.Equal(t, 1, score.HesitationCount)
		// (1*1.0 + 1*2.0 + 1*1.5) / 2 distinct viewing sessions
		assert.InDelta(t, 2.25, score.Score, 0.0001)
	})

	t.Run("Scene without viewers scores zero", func(t *testing.T) {
		interactions := []models.InteractionRow{
			{SessionID: uuid.New(), SceneID: scene, EventType: "reread"},
		}

		repo := new(mocks.AnalyticsRepository)
		mockDetailed(repo, nil, interactions, nil, nil)

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.DetailedAnalytics(ctx, storyID)
		require.NoError(t, err)

		require.Len(t, result.Engagement, 1)
		assert.Equal(t, 0.0, result.Engagement[0].Score)
		assert.Equal(t, 1, result.Engagement[0].RereadCount)
	})

	t.Run("Path heatmap percentages split per source scene", func(t *testing.T) {
		to1, to2 := uuid.New(), uuid.New()
		events := []models.ChoiceEventRow{
			{SessionID: uuid.New(), ChoiceID: uuid.New(), FromSceneID: scene, ToSceneID: to1},
			{SessionID: uuid.New(), ChoiceID: uuid.New(), FromSceneID: scene, ToSceneID: to1},
			{SessionID: uuid.New(), ChoiceID: uuid.New(), FromSceneID: scene, ToSceneID: to2},
		}

		repo := new(mocks.AnalyticsRepository)
		mockDetailed(repo, nil, nil, events, nil)

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.DetailedAnalytics(ctx, storyID)
		require.NoError(t, err)

		require.Len(t, result.PathHeatmap, 2)
		total := 0.0
		for _, tr := range result.PathHeatmap {
			total += tr.Percentage
		}
		assert.InDelta(t, 100.0, total, 0.1)
		assert.Equal(t, 2, result.PathHeatmap[0].TransitionCount, "busiest edge first")
	})

	t.Run("Reading patterns bucket by UTC hour and weekday", func(t *testing.T) {
		// 2026-08-30 is a Sunday.
		sunday := time.Date(2026, 8, 30, 21, 15, 0, 0, time.UTC)
		sessions := []models.SessionRow{
			{ID: uuid.New(), StartedAt: sunday},
			{ID: uuid.New(), StartedAt: sunday.Add(10 * time.Minute)},
			{ID: uuid.New(), StartedAt: sunday.Add(24 * time.Hour)}, // Monday
		}

		repo := new(mocks.AnalyticsRepository)
		mockDetailed(repo, nil, nil, nil, sessions)

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.DetailedAnalytics(ctx, storyID)
		require.NoError(t, err)

		require.Len(t, result.ReadingPatterns, 2)
		assert.Equal(t, 0, result.ReadingPatterns[0].DayOfWeek)
		assert.Equal(t, 21, result.ReadingPatterns[0].HourOfDay)
		assert.Equal(t, 2, result.ReadingPatterns[0].Count)
		assert.Equal(t, 1, result.ReadingPatterns[1].DayOfWeek)
	})

	t.Run("Hesitation averages dwell on the source scene", func(t *testing.T) {
		s1, s2 := uuid.New(), uuid.New()
		choiceID := uuid.New()
		views := []models.SceneViewRow{
			{SessionID: s1, SceneID: scene, TimeSpentMs: int64Ptr(2000)},
			{SessionID: s1, SceneID: scene, TimeSpentMs: int64Ptr(4000)}, // mean 3000 for s1
			{SessionID: s2, SceneID: scene, TimeSpentMs: int64Ptr(5000)},
		}
		events := []models.ChoiceEventRow{
			{SessionID: s1, ChoiceID: choiceID, FromSceneID: scene, ToSceneID: uuid.New()},
			{SessionID: s2, ChoiceID: choiceID, FromSceneID: scene, ToSceneID: uuid.New()},
		}

		repo := new(mocks.AnalyticsRepository)
		mockDetailed(repo, views, nil, events, nil)

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.DetailedAnalytics(ctx, storyID)
		require.NoError(t, err)

		require.Len(t, result.Hesitation, 1)
		h := result.Hesitation[0]
		assert.Equal(t, 2, h.TimesChosen)
		assert.InDelta(t, 4000.0, h.AvgDecisionTimeMs, 0.0001)
	})
}

func TestPersonalizationAnalytics(t *testing.T) {
	ctx := context.Background()

	t.Run("Pickup rate splits generated vs standard", func(t *testing.T) {
		events := []models.PlatformChoiceEventRow{
			{SessionID: uuid.New(), IsGenerated: true},
			{SessionID: uuid.New(), IsGenerated: false},
			{SessionID: uuid.New(), IsGenerated: false},
			{SessionID: uuid.New(), IsGenerated: false},
		}

		repo := new(mocks.AnalyticsRepository)
		repo.On("PlatformSessions", ctx).Return(nil, nil).Once()
		repo.On("PlatformChoiceEvents", ctx).Return(events, nil).Once()
		repo.On("GeneratedChoices", ctx).Return(nil, nil).Once()
		repo.On("SessionInteractionCounts", ctx).Return(nil, nil).Once()

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.PersonalizationAnalytics(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Pickup.GeneratedPicks)
		assert.Equal(t, 3, result.Pickup.StandardPicks)
		assert.Equal(t, 25.0, result.Pickup.GeneratedPct)
		assert.Equal(t, 75.0, result.Pickup.StandardPct)
	})

	t.Run("Archetype accuracy counts matching targeted picks", func(t *testing.T) {
		flame := "flame"
		shadow := "shadow"
		events := []models.PlatformChoiceEventRow{
			{SessionID: uuid.New(), IsGenerated: true, ArchetypeTarget: &flame, ReaderArchetype: &flame},
			{SessionID: uuid.New(), IsGenerated: true, ArchetypeTarget: &flame, ReaderArchetype: &flame},
			{SessionID: uuid.New(), IsGenerated: true, ArchetypeTarget: &shadow, ReaderArchetype: &flame},
			{SessionID: uuid.New(), IsGenerated: false}, // untargeted, ignored
		}

		repo := new(mocks.AnalyticsRepository)
		repo.On("PlatformSessions", ctx).Return(nil, nil).Once()
		repo.On("PlatformChoiceEvents", ctx).Return(events, nil).Once()
		repo.On("GeneratedChoices", ctx).Return(nil, nil).Once()
		repo.On("SessionInteractionCounts", ctx).Return(nil, nil).Once()

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.PersonalizationAnalytics(ctx)
		require.NoError(t, err)

		require.Len(t, result.Accuracy, 1)
		acc := result.Accuracy[0]
		assert.Equal(t, "flame", acc.Archetype)
		assert.Equal(t, 3, acc.TargetedPicks)
		assert.Equal(t, 2, acc.MatchingPicks)
		assert.InDelta(t, 2.0/3.0, acc.Accuracy, 0.0001)
	})

	t.Run("Completion and engagement split by generated pick", func(t *testing.T) {
		withGen := models.PlatformSessionRow{ID: uuid.New(), Completed: true}
		withoutGen1 := models.PlatformSessionRow{ID: uuid.New(), Completed: false}
		withoutGen2 := models.PlatformSessionRow{ID: uuid.New(), Completed: true}

		events := []models.PlatformChoiceEventRow{
			{SessionID: withGen.ID, IsGenerated: true},
			{SessionID: withoutGen1.ID, IsGenerated: false},
		}
		counts := []models.SessionInteractionCountRow{
			{SessionID: withGen.ID, Count: 8},
			{SessionID: withoutGen1.ID, Count: 2},
			{SessionID: withoutGen2.ID, Count: 4},
		}

		repo := new(mocks.AnalyticsRepository)
		repo.On("PlatformSessions", ctx).Return([]models.PlatformSessionRow{withGen, withoutGen1, withoutGen2}, nil).Once()
		repo.On("PlatformChoiceEvents", ctx).Return(events, nil).Once()
		repo.On("GeneratedChoices", ctx).Return(nil, nil).Once()
		repo.On("SessionInteractionCounts", ctx).Return(counts, nil).Once()

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.PersonalizationAnalytics(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, result.CompletionSplit.WithGenerated.TotalSessions)
		assert.Equal(t, 100.0, result.CompletionSplit.WithGenerated.CompletionRate)
		assert.Equal(t, 2, result.CompletionSplit.WithoutGenerated.TotalSessions)
		assert.Equal(t, 50.0, result.CompletionSplit.WithoutGenerated.CompletionRate)

		assert.Equal(t, 8.0, result.EngagementSplit.WithGeneratedAvg)
		assert.Equal(t, 3.0, result.EngagementSplit.WithoutGeneratedAvg)
	})

	t.Run("Generation stats aggregate the cache", func(t *testing.T) {
		sceneA, sceneB := uuid.New(), uuid.New()
		generated := []models.GeneratedChoiceRow{
			{FromSceneID: sceneA},
			{FromSceneID: sceneA},
			{FromSceneID: sceneB},
		}

		repo := new(mocks.AnalyticsRepository)
		repo.On("PlatformSessions", ctx).Return(nil, nil).Once()
		repo.On("PlatformChoiceEvents", ctx).Return(nil, nil).Once()
		repo.On("GeneratedChoices", ctx).Return(generated, nil).Once()
		repo.On("SessionInteractionCounts", ctx).Return(nil, nil).Once()

		svc := service.NewAnalyticsService(repo, zap.NewNop())
		result, err := svc.PersonalizationAnalytics(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Generation.TotalGenerated)
		assert.Equal(t, 2, result.Generation.ScenesWithChoice)
		assert.Equal(t, 1.5, result.Generation.AvgPerScene)
	})
}
