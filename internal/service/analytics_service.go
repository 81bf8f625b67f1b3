package service

import (
	"context"
	"sort"

	"fable-server/internal/models"
	"fable-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyticsService is the pure read side: it aggregates the persisted event
// log plus the graph into dashboard metrics. Every metric group is
// independently resilient — a failed or empty underlying query yields a
// zeroed group, never a failed response — and every ratio guards division by
// zero with 0.
type AnalyticsService interface {
	StoryAnalytics(ctx context.Context, storyID uuid.UUID) (*models.StoryAnalytics, error)
	DetailedAnalytics(ctx context.Context, storyID uuid.UUID) (*models.DetailedAnalytics, error)
	PersonalizationAnalytics(ctx context.Context) (*models.PersonalizationAnalytics, error)
}

type analyticsServiceImpl struct {
	repo   repository.AnalyticsRepository
	logger *zap.Logger
}

func NewAnalyticsService(repo repository.AnalyticsRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsServiceImpl{
		repo:   repo,
		logger: logger.Named("AnalyticsService"),
	}
}

// fetch wraps one repository read so a failure degrades that metric group to
// its zero value instead of failing the whole response.
func fetch[T any](s *analyticsServiceImpl, name string, err error, rows []T) []T {
	if err != nil {
		s.logger.Warn("Analytics segment unavailable, returning empty", zap.String("segment", name), zap.Error(err))
		return nil
	}
	return rows
}

func (s *analyticsServiceImpl) StoryAnalytics(ctx context.Context, storyID uuid.UUID) (*models.StoryAnalytics, error) {
	scenesRows, scenesErr := s.repo.ScenesByStory(ctx, storyID)
	scenes := fetch(s, "scenes", scenesErr, scenesRows)

	sessionRows, sessionsErr := s.repo.SessionsByStory(ctx, storyID)
	sessions := fetch(s, "sessions", sessionsErr, sessionRows)

	eventRows, eventsErr := s.repo.ChoiceEventsByStory(ctx, storyID)
	events := fetch(s, "choice_events", eventsErr, eventRows)

	texts, textsErr := s.repo.ChoiceTexts(ctx, storyID)
	if textsErr != nil {
		s.logger.Warn("Analytics segment unavailable, returning empty", zap.String("segment", "choice_texts"), zap.Error(textsErr))
		texts = nil
	}

	return &models.StoryAnalytics{
		StoryID:          storyID,
		Sessions:         computeSessionStats(sessions),
		ChoicePopularity: computeChoicePopularity(events, texts),
		DropOff:          computeDropOff(scenes, sessions, events),
		Endings:          computeEndings(scenes, sessions),
	}, nil
}

func computeSessionStats(sessions []models.SessionRow) models.SessionStats {
	stats := models.SessionStats{TotalSessions: len(sessions)}
	for _, s := range sessions {
		if s.CompletedAt != nil {
			stats.CompletedSessions++
		}
	}
	stats.CompletionRate = ratioPct(stats.CompletedSessions, stats.TotalSessions)
	return stats
}

func computeChoicePopularity(events []models.ChoiceEventRow, texts map[uuid.UUID]string) []models.ChoicePopularity {
	type agg struct {
		fromScene uuid.UUID
		count     int
	}
	byChoice := make(map[uuid.UUID]*agg)
	totalFromScene := make(map[uuid.UUID]int)
	for _, ev := range events {
		a := byChoice[ev.ChoiceID]
		if a == nil {
			a = &agg{fromScene: ev.FromSceneID}
			byChoice[ev.ChoiceID] = a
		}
		a.count++
		totalFromScene[ev.FromSceneID]++
	}

	result := make([]models.ChoicePopularity, 0, len(byChoice))
	for choiceID, a := range byChoice {
		result = append(result, models.ChoicePopularity{
			ChoiceID:    choiceID,
			FromSceneID: a.fromScene,
			Text:        texts[choiceID],
			TimesChosen: a.count,
			Percentage:  ratioPct(a.count, totalFromScene[a.fromScene]),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FromSceneID != result[j].FromSceneID {
			return result[i].FromSceneID.String() < result[j].FromSceneID.String()
		}
		return result[i].TimesChosen > result[j].TimesChosen
	})
	return result
}

// computeDropOff builds the funnel per scene. A session "reached" a scene
// when its current pointer ever equaled it or one of its choice events
// touches the scene as source or destination; it "continued" when it logged
// a choice event leaving the scene. Ending scenes always report rate 0.
func computeDropOff(scenes []models.SceneRow, sessions []models.SessionRow, events []models.ChoiceEventRow) []models.DropOffStat {
	reached := make(map[uuid.UUID]map[uuid.UUID]struct{})
	continued := make(map[uuid.UUID]map[uuid.UUID]struct{})
	mark := func(m map[uuid.UUID]map[uuid.UUID]struct{}, sceneID, sessionID uuid.UUID) {
		set := m[sceneID]
		if set == nil {
			set = make(map[uuid.UUID]struct{})
			m[sceneID] = set
		}
		set[sessionID] = struct{}{}
	}

	for _, s := range sessions {
		if s.CurrentSceneID != nil {
			mark(reached, *s.CurrentSceneID, s.ID)
		}
	}
	for _, ev := range events {
		mark(reached, ev.FromSceneID, ev.SessionID)
		mark(reached, ev.ToSceneID, ev.SessionID)
		mark(continued, ev.FromSceneID, ev.SessionID)
	}

	result := make([]models.DropOffStat, 0, len(scenes))
	for _, scene := range scenes {
		stat := models.DropOffStat{
			SceneID:           scene.ID,
			SceneTitle:        scene.Title,
			SessionsReached:   len(reached[scene.ID]),
			SessionsContinued: len(continued[scene.ID]),
			IsEnding:          scene.IsEnding,
		}
		stat.SessionsLeft = stat.SessionsReached - stat.SessionsContinued
		if stat.SessionsLeft < 0 {
			stat.SessionsLeft = 0
		}
		if !scene.IsEnding {
			stat.DropOffRate = ratioPct(stat.SessionsLeft, stat.SessionsReached)
		}
		result = append(result, stat)
	}
	return result
}

func computeEndings(scenes []models.SceneRow, sessions []models.SessionRow) []models.EndingStat {
	totalCompleted := 0
	finishedOn := make(map[uuid.UUID]int)
	for _, s := range sessions {
		if s.CompletedAt == nil {
			continue
		}
		totalCompleted++
		if s.CurrentSceneID != nil {
			finishedOn[*s.CurrentSceneID]++
		}
	}

	result := make([]models.EndingStat, 0)
	for _, scene := range scenes {
		if !scene.IsEnding {
			continue
		}
		count := finishedOn[scene.ID]
		result = append(result, models.EndingStat{
			SceneID:      scene.ID,
			SceneTitle:   scene.Title,
			TimesReached: count,
			Percentage:   ratioPct(count, totalCompleted),
		})
	}
	return result
}
