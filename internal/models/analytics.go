package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Raw rows fetched by the analytics repository ---

// SessionRow is a session projection scoped to one story.
type SessionRow struct {
	ID             uuid.UUID  `db:"id"`
	VisitorID      string     `db:"visitor_id"`
	CurrentSceneID *uuid.UUID `db:"current_scene_id"`
	StartedAt      time.Time  `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

// ChoiceEventRow joins a choice event with its choice's edge data.
type ChoiceEventRow struct {
	SessionID       uuid.UUID `db:"session_id"`
	ChoiceID        uuid.UUID `db:"choice_id"`
	FromSceneID     uuid.UUID `db:"from_scene_id"`
	ToSceneID       uuid.UUID `db:"to_scene_id"`
	IsGenerated     bool      `db:"is_generated"`
	ArchetypeTarget *string   `db:"archetype_target"`
	ChosenAt        time.Time `db:"chosen_at"`
}

// SceneViewRow is a dwell record; TimeSpentMs is nil for still-open views.
type SceneViewRow struct {
	SessionID   uuid.UUID `db:"session_id"`
	SceneID     uuid.UUID `db:"scene_id"`
	TimeSpentMs *int64    `db:"time_spent_ms"`
}

// InteractionRow is the engagement-signal projection.
type InteractionRow struct {
	SessionID uuid.UUID `db:"session_id"`
	SceneID   uuid.UUID `db:"scene_id"`
	EventType string    `db:"event_type"`
}

// SceneRow is the graph projection the aggregator needs.
type SceneRow struct {
	ID       uuid.UUID `db:"id"`
	Title    string    `db:"title"`
	IsStart  bool      `db:"is_start"`
	IsEnding bool      `db:"is_ending"`
}

// PlatformChoiceEventRow is a platform-wide choice event joined with the
// session's completion state and the reader's archetype (nil when the visitor
// never took the quiz).
type PlatformChoiceEventRow struct {
	SessionID        uuid.UUID `db:"session_id"`
	IsGenerated      bool      `db:"is_generated"`
	ArchetypeTarget  *string   `db:"archetype_target"`
	ReaderArchetype  *string   `db:"reader_archetype"`
	SessionCompleted bool      `db:"session_completed"`
}

// PlatformSessionRow is the platform-wide session projection.
type PlatformSessionRow struct {
	ID        uuid.UUID `db:"id"`
	Completed bool      `db:"completed"`
}

// GeneratedChoiceRow locates one generated choice on the graph.
type GeneratedChoiceRow struct {
	FromSceneID uuid.UUID `db:"from_scene_id"`
}

// SessionInteractionCountRow counts interactions per session.
type SessionInteractionCountRow struct {
	SessionID uuid.UUID `db:"session_id"`
	Count     int64     `db:"count"`
}

// --- Computed metric groups ---

// SessionStats summarizes session volume for one story.
type SessionStats struct {
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	CompletionRate    float64 `json:"completion_rate"`
}

// ChoicePopularity reports how often one choice was taken relative to its
// siblings from the same source scene.
type ChoicePopularity struct {
	ChoiceID    uuid.UUID `json:"choice_id"`
	FromSceneID uuid.UUID `json:"from_scene_id"`
	Text        string    `json:"text"`
	TimesChosen int       `json:"times_chosen"`
	Percentage  float64   `json:"percentage"`
}

// DropOffStat is the funnel result for one scene.
type DropOffStat struct {
	SceneID           uuid.UUID `json:"scene_id"`
	SceneTitle        string    `json:"scene_title"`
	SessionsReached   int       `json:"sessions_reached"`
	SessionsContinued int       `json:"sessions_continued"`
	SessionsLeft      int       `json:"sessions_left"`
	DropOffRate       float64   `json:"drop_off_rate"`
	IsEnding          bool      `json:"is_ending"`
}

// EndingStat counts completed sessions that finished on one ending scene.
type EndingStat struct {
	SceneID      uuid.UUID `json:"scene_id"`
	SceneTitle   string    `json:"scene_title"`
	TimesReached int       `json:"times_reached"`
	Percentage   float64   `json:"percentage"`
}

// StoryAnalytics is the summary dashboard payload for one story.
type StoryAnalytics struct {
	StoryID          uuid.UUID          `json:"story_id"`
	Sessions         SessionStats       `json:"sessions"`
	ChoicePopularity []ChoicePopularity `json:"choice_popularity"`
	DropOff          []DropOffStat      `json:"drop_off"`
	Endings          []EndingStat       `json:"endings"`
}

// SceneTimeStats is dwell-time aggregation over closed views of one scene.
type SceneTimeStats struct {
	SceneID      uuid.UUID `json:"scene_id"`
	SceneTitle   string    `json:"scene_title"`
	AvgTimeMs    float64   `json:"avg_time_ms"`
	MedianTimeMs float64   `json:"median_time_ms"`
	TotalViews   int       `json:"total_views"`
}

// EngagementScore is the weighted signal score for one scene, normalized by
// the number of distinct sessions that viewed it.
type EngagementScore struct {
	SceneID         uuid.UUID `json:"scene_id"`
	SceneTitle      string    `json:"scene_title"`
	HoverCount      int       `json:"hover_count"`
	RereadCount     int       `json:"reread_count"`
	HesitationCount int       `json:"hesitation_count"`
	Score           float64   `json:"score"`
}

// ChoiceHesitation is the mean dwell on a choice's source scene among
// sessions that went on to pick it.
type ChoiceHesitation struct {
	ChoiceID          uuid.UUID `json:"choice_id"`
	FromSceneID       uuid.UUID `json:"from_scene_id"`
	AvgDecisionTimeMs float64   `json:"avg_decision_time_ms"`
	TimesChosen       int       `json:"times_chosen"`
}

// PathTransition is one edge of the path heatmap.
type PathTransition struct {
	FromSceneID     uuid.UUID `json:"from_scene_id"`
	ToSceneID       uuid.UUID `json:"to_scene_id"`
	TransitionCount int       `json:"transition_count"`
	Percentage      float64   `json:"percentage"`
}

// ReadingPatternBucket is one cell of the session-start histogram.
type ReadingPatternBucket struct {
	HourOfDay int `json:"hour_of_day"`
	DayOfWeek int `json:"day_of_week"`
	Count     int `json:"count"`
}

// DetailedAnalytics is the per-story deep-dive payload.
type DetailedAnalytics struct {
	StoryID         uuid.UUID              `json:"story_id"`
	TimePerScene    []SceneTimeStats       `json:"time_per_scene"`
	Engagement      []EngagementScore      `json:"engagement"`
	Hesitation      []ChoiceHesitation     `json:"hesitation"`
	PathHeatmap     []PathTransition       `json:"path_heatmap"`
	ReadingPatterns []ReadingPatternBucket `json:"reading_patterns"`
}

// PickupRate splits taken choices into generated vs standard percentages.
type PickupRate struct {
	GeneratedPicks  int     `json:"generated_picks"`
	StandardPicks   int     `json:"standard_picks"`
	GeneratedPct    float64 `json:"generated_pct"`
	StandardPct     float64 `json:"standard_pct"`
}

// ArchetypeAccuracy is, per archetype, the fraction of targeted picks made by
// readers of that archetype that matched their own archetype.
type ArchetypeAccuracy struct {
	Archetype     string  `json:"archetype"`
	TargetedPicks int     `json:"targeted_picks"`
	MatchingPicks int     `json:"matching_picks"`
	Accuracy      float64 `json:"accuracy"`
}

// CompletionSplit compares completion rates between sessions that picked at
// least one generated choice and sessions that never did.
type CompletionSplit struct {
	WithGenerated    SessionStats `json:"with_generated"`
	WithoutGenerated SessionStats `json:"without_generated"`
}

// EngagementSplit compares average interactions per session across the same
// split as CompletionSplit.
type EngagementSplit struct {
	WithGeneratedAvg    float64 `json:"with_generated_avg"`
	WithoutGeneratedAvg float64 `json:"without_generated_avg"`
}

// GenerationStats summarizes the generated-choice cache.
type GenerationStats struct {
	TotalGenerated   int     `json:"total_generated"`
	ScenesWithChoice int     `json:"scenes_with_choice"`
	AvgPerScene      float64 `json:"avg_per_scene"`
}

// PersonalizationAnalytics is the platform-wide personalization payload.
type PersonalizationAnalytics struct {
	Pickup          PickupRate          `json:"pickup"`
	Accuracy        []ArchetypeAccuracy `json:"accuracy"`
	CompletionSplit CompletionSplit     `json:"completion_split"`
	EngagementSplit EngagementSplit     `json:"engagement_split"`
	Generation      GenerationStats     `json:"generation"`
}
