package service

import (
	"context"
	"sort"

	"fable-server/internal/models"

	"github.com/google/uuid"
)

func (s *analyticsServiceImpl) PersonalizationAnalytics(ctx context.Context) (*models.PersonalizationAnalytics, error) {
	sessionRows, sessionsErr := s.repo.PlatformSessions(ctx)
	sessions := fetch(s, "platform_sessions", sessionsErr, sessionRows)

	eventRows, eventsErr := s.repo.PlatformChoiceEvents(ctx)
	events := fetch(s, "platform_choice_events", eventsErr, eventRows)

	generatedRows, generatedErr := s.repo.GeneratedChoices(ctx)
	generated := fetch(s, "generated_choices", generatedErr, generatedRows)

	interactionRows, interactionsErr := s.repo.SessionInteractionCounts(ctx)
	interactionCounts := fetch(s, "session_interaction_counts", interactionsErr, interactionRows)

	completionSplit, engagementSplit := computeSplits(sessions, events, interactionCounts)

	return &models.PersonalizationAnalytics{
		Pickup:          computePickupRate(events),
		Accuracy:        computeArchetypeAccuracy(events),
		CompletionSplit: completionSplit,
		EngagementSplit: engagementSplit,
		Generation:      computeGenerationStats(generated),
	}, nil
}

func computePickupRate(events []models.PlatformChoiceEventRow) models.PickupRate {
	rate := models.PickupRate{}
	for _, ev := range events {
		if ev.IsGenerated {
			rate.GeneratedPicks++
		} else {
			rate.StandardPicks++
		}
	}
	total := rate.GeneratedPicks + rate.StandardPicks
	if total > 0 {
		rate.GeneratedPct = ratioPct(rate.GeneratedPicks, total)
		rate.StandardPct = round1(100 - rate.GeneratedPct)
	}
	return rate
}

// computeArchetypeAccuracy measures, per reader archetype, how often a
// targeted choice picked by a reader of that archetype actually targeted it.
func computeArchetypeAccuracy(events []models.PlatformChoiceEventRow) []models.ArchetypeAccuracy {
	byArchetype := make(map[string]*models.ArchetypeAccuracy)
	for _, ev := range events {
		if ev.ReaderArchetype == nil || ev.ArchetypeTarget == nil {
			continue
		}
		acc := byArchetype[*ev.ReaderArchetype]
		if acc == nil {
			acc = &models.ArchetypeAccuracy{Archetype: *ev.ReaderArchetype}
			byArchetype[*ev.ReaderArchetype] = acc
		}
		acc.TargetedPicks++
		if *ev.ArchetypeTarget == *ev.ReaderArchetype {
			acc.MatchingPicks++
		}
	}

	result := make([]models.ArchetypeAccuracy, 0, len(byArchetype))
	for _, acc := range byArchetype {
		if acc.TargetedPicks > 0 {
			acc.Accuracy = float64(acc.MatchingPicks) / float64(acc.TargetedPicks)
		}
		result = append(result, *acc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Archetype < result[j].Archetype })
	return result
}

// computeSplits partitions sessions by whether they ever picked a generated
// choice, then compares completion rates and average interaction volume
// between the two groups.
func computeSplits(
	sessions []models.PlatformSessionRow,
	events []models.PlatformChoiceEventRow,
	interactionCounts []models.SessionInteractionCountRow,
) (models.CompletionSplit, models.EngagementSplit) {
	pickedGenerated := make(map[uuid.UUID]struct{})
	for _, ev := range events {
		if ev.IsGenerated {
			pickedGenerated[ev.SessionID] = struct{}{}
		}
	}
	interactionsBySession := make(map[uuid.UUID]int64, len(interactionCounts))
	for _, row := range interactionCounts {
		interactionsBySession[row.SessionID] = row.Count
	}

	var with, without models.SessionStats
	var withInteractions, withoutInteractions int64
	for _, s := range sessions {
		if _, ok := pickedGenerated[s.ID]; ok {
			with.TotalSessions++
			if s.Completed {
				with.CompletedSessions++
			}
			withInteractions += interactionsBySession[s.ID]
		} else {
			without.TotalSessions++
			if s.Completed {
				without.CompletedSessions++
			}
			withoutInteractions += interactionsBySession[s.ID]
		}
	}
	with.CompletionRate = ratioPct(with.CompletedSessions, with.TotalSessions)
	without.CompletionRate = ratioPct(without.CompletedSessions, without.TotalSessions)

	engagement := models.EngagementSplit{}
	if with.TotalSessions > 0 {
		engagement.WithGeneratedAvg = round1(float64(withInteractions) / float64(with.TotalSessions))
	}
	if without.TotalSessions > 0 {
		engagement.WithoutGeneratedAvg = round1(float64(withoutInteractions) / float64(without.TotalSessions))
	}

	return models.CompletionSplit{WithGenerated: with, WithoutGenerated: without}, engagement
}

func computeGenerationStats(generated []models.GeneratedChoiceRow) models.GenerationStats {
	stats := models.GenerationStats{TotalGenerated: len(generated)}
	scenes := make(map[uuid.UUID]struct{})
	for _, g := range generated {
		scenes[g.FromSceneID] = struct{}{}
	}
	stats.ScenesWithChoice = len(scenes)
	if stats.ScenesWithChoice > 0 {
		stats.AvgPerScene = round1(float64(stats.TotalGenerated) / float64(stats.ScenesWithChoice))
	}
	return stats
}
