package service

import (
	"context"
	"sort"

	"fable-server/internal/models"

	"github.com/google/uuid"
)

func (s *analyticsServiceImpl) DetailedAnalytics(ctx context.Context, storyID uuid.UUID) (*models.DetailedAnalytics, error) {
	scenesRows, scenesErr := s.repo.ScenesByStory(ctx, storyID)
	scenes := fetch(s, "scenes", scenesErr, scenesRows)

	viewRows, viewsErr := s.repo.SceneViewsByStory(ctx, storyID)
	views := fetch(s, "scene_views", viewsErr, viewRows)

	interactionRows, interactionsErr := s.repo.InteractionsByStory(ctx, storyID)
	interactions := fetch(s, "interactions", interactionsErr, interactionRows)

	eventRows, eventsErr := s.repo.ChoiceEventsByStory(ctx, storyID)
	events := fetch(s, "choice_events", eventsErr, eventRows)

	sessionRows, sessionsErr := s.repo.SessionsByStory(ctx, storyID)
	sessions := fetch(s, "sessions", sessionsErr, sessionRows)

	return &models.DetailedAnalytics{
		StoryID:         storyID,
		TimePerScene:    computeTimePerScene(scenes, views),
		Engagement:      computeEngagement(scenes, views, interactions),
		Hesitation:      computeHesitation(events, views),
		PathHeatmap:     computePathHeatmap(events),
		ReadingPatterns: computeReadingPatterns(sessions),
	}, nil
}

func computeTimePerScene(scenes []models.SceneRow, views []models.SceneViewRow) []models.SceneTimeStats {
	closed := make(map[uuid.UUID][]float64)
	total := make(map[uuid.UUID]int)
	for _, v := range views {
		total[v.SceneID]++
		if v.TimeSpentMs != nil {
			closed[v.SceneID] = append(closed[v.SceneID], float64(*v.TimeSpentMs))
		}
	}

	result := make([]models.SceneTimeStats, 0, len(scenes))
	for _, scene := range scenes {
		times := closed[scene.ID]
		result = append(result, models.SceneTimeStats{
			SceneID:      scene.ID,
			SceneTitle:   scene.Title,
			AvgTimeMs:    mean(times),
			MedianTimeMs: percentile(times, 0.5),
			TotalViews:   total[scene.ID],
		})
	}
	return result
}

// Engagement weights: hover 1.0, reread 2.0, hesitation 1.5, normalized by
// the distinct sessions that viewed the scene. A scene nobody viewed scores 0.
func computeEngagement(scenes []models.SceneRow, views []models.SceneViewRow, interactions []models.InteractionRow) []models.EngagementScore {
	viewingSessions := make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, v := range views {
		set := viewingSessions[v.SceneID]
		if set == nil {
			set = make(map[uuid.UUID]struct{})
			viewingSessions[v.SceneID] = set
		}
		set[v.SessionID] = struct{}{}
	}

	type counts struct{ hover, reread, hesitation int }
	byScene := make(map[uuid.UUID]*counts)
	for _, ev := range interactions {
		c := byScene[ev.SceneID]
		if c == nil {
			c = &counts{}
			byScene[ev.SceneID] = c
		}
		switch models.InteractionType(ev.EventType) {
		case models.InteractionHoverChoice:
			c.hover++
		case models.InteractionReread:
			c.reread++
		case models.InteractionHesitation:
			c.hesitation++
		}
	}

	result := make([]models.EngagementScore, 0, len(scenes))
	for _, scene := range scenes {
		score := models.EngagementScore{SceneID: scene.ID, SceneTitle: scene.Title}
		if c := byScene[scene.ID]; c != nil {
			score.HoverCount = c.hover
			score.RereadCount = c.reread
			score.HesitationCount = c.hesitation
		}
		if distinct := len(viewingSessions[scene.ID]); distinct > 0 {
			weighted := float64(score.HoverCount)*1.0 +
				float64(score.RereadCount)*2.0 +
				float64(score.HesitationCount)*1.5
			score.Score = weighted / float64(distinct)
		}
		result = append(result, score)
	}
	return result
}

// computeHesitation averages, per choice, the dwell time recorded on the
// choice's source scene for the sessions that picked it. When a session has
// several closed views of the source scene, its dwell is the mean of them.
func computeHesitation(events []models.ChoiceEventRow, views []models.SceneViewRow) []models.ChoiceHesitation {
	dwell := make(map[uuid.UUID]map[uuid.UUID][]float64) // session -> scene -> times
	for _, v := range views {
		if v.TimeSpentMs == nil {
			continue
		}
		perScene := dwell[v.SessionID]
		if perScene == nil {
			perScene = make(map[uuid.UUID][]float64)
			dwell[v.SessionID] = perScene
		}
		perScene[v.SceneID] = append(perScene[v.SceneID], float64(*v.TimeSpentMs))
	}

	type agg struct {
		fromScene uuid.UUID
		times     []float64
		chosen    int
	}
	byChoice := make(map[uuid.UUID]*agg)
	for _, ev := range events {
		a := byChoice[ev.ChoiceID]
		if a == nil {
			a = &agg{fromScene: ev.FromSceneID}
			byChoice[ev.ChoiceID] = a
		}
		a.chosen++
		if perScene := dwell[ev.SessionID]; perScene != nil {
			if times := perScene[ev.FromSceneID]; len(times) > 0 {
				a.times = append(a.times, mean(times))
			}
		}
	}

	result := make([]models.ChoiceHesitation, 0, len(byChoice))
	for choiceID, a := range byChoice {
		result = append(result, models.ChoiceHesitation{
			ChoiceID:          choiceID,
			FromSceneID:       a.fromScene,
			AvgDecisionTimeMs: mean(a.times),
			TimesChosen:       a.chosen,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimesChosen > result[j].TimesChosen
	})
	return result
}

func computePathHeatmap(events []models.ChoiceEventRow) []models.PathTransition {
	type edge struct{ from, to uuid.UUID }
	transitions := make(map[edge]int)
	fromTotals := make(map[uuid.UUID]int)
	for _, ev := range events {
		transitions[edge{ev.FromSceneID, ev.ToSceneID}]++
		fromTotals[ev.FromSceneID]++
	}

	result := make([]models.PathTransition, 0, len(transitions))
	for e, count := range transitions {
		result = append(result, models.PathTransition{
			FromSceneID:     e.from,
			ToSceneID:       e.to,
			TransitionCount: count,
			Percentage:      ratioPct(count, fromTotals[e.from]),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FromSceneID != result[j].FromSceneID {
			return result[i].FromSceneID.String() < result[j].FromSceneID.String()
		}
		return result[i].TransitionCount > result[j].TransitionCount
	})
	return result
}

// computeReadingPatterns buckets session starts by (hour-of-day, day-of-week)
// in UTC; day 0 is Sunday. Only non-empty buckets are reported.
func computeReadingPatterns(sessions []models.SessionRow) []models.ReadingPatternBucket {
	type cell struct{ hour, day int }
	buckets := make(map[cell]int)
	for _, s := range sessions {
		started := s.StartedAt.UTC()
		buckets[cell{started.Hour(), int(started.Weekday())}]++
	}

	result := make([]models.ReadingPatternBucket, 0, len(buckets))
	for c, count := range buckets {
		result = append(result, models.ReadingPatternBucket{
			HourOfDay: c.hour,
			DayOfWeek: c.day,
			Count:     count,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].HourOfDay < result[j].HourOfDay
	})
	return result
}
