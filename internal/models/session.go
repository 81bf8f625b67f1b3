package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ReaderProfile stores the quiz-derived classification of a visitor.
// One row per visitor; updated on every quiz submission.
type ReaderProfile struct {
	ID        uuid.UUID          `json:"id"`
	VisitorID string             `json:"visitor_id"`
	Archetype string             `json:"archetype"`
	Scores    map[string]float64 `json:"scores"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// DominantArchetype returns the arg-max of the score map, ties broken by
// lexical order of the archetype name. Empty map yields "".
func DominantArchetype(scores map[string]float64) string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	bestScore := 0.0
	for _, k := range keys {
		if best == "" || scores[k] > bestScore {
			best = k
			bestScore = scores[k]
		}
	}
	return best
}

// ReaderSession is one reader's traversal of one story.
type ReaderSession struct {
	ID             uuid.UUID  `json:"id"`
	StoryID        uuid.UUID  `json:"story_id"`
	VisitorID      string     `json:"visitor_id"`
	CurrentSceneID *uuid.UUID `json:"current_scene_id,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ChoiceEvent is an append-only record of one choice selection.
type ChoiceEvent struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	ChoiceID  uuid.UUID `json:"choice_id"`
	ChosenAt  time.Time `json:"chosen_at"`
}

// SceneView is a timed dwell interval on one scene within one session.
// TimeSpentMs is derived on exit (exited_at - entered_at).
type SceneView struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   uuid.UUID  `json:"session_id"`
	SceneID     uuid.UUID  `json:"scene_id"`
	EnteredAt   time.Time  `json:"entered_at"`
	ExitedAt    *time.Time `json:"exited_at,omitempty"`
	TimeSpentMs *int64     `json:"time_spent_ms,omitempty"`
}

// InteractionEvent is a fine-grained engagement signal. Metadata is kept as
// raw JSON in storage; its shape is validated per event type on write.
type InteractionEvent struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	SceneID    uuid.UUID       `json:"scene_id"`
	EventType  InteractionType `json:"event_type"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
