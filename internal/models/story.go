package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryStatus is the publishing state of a story. The publishing lifecycle is
// managed elsewhere; play-time code only ever reads it.
type StoryStatus string

const (
	StoryStatusDraft    StoryStatus = "draft"
	StoryStatusActive   StoryStatus = "active"
	StoryStatusFeatured StoryStatus = "featured"
	StoryStatusArchived StoryStatus = "archived"
)

// Story is a container of scenes.
type Story struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	Status    StoryStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Scene is a node in the story graph.
type Scene struct {
	ID            uuid.UUID `json:"id"`
	StoryID       uuid.UUID `json:"story_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	SortOrder     int       `json:"sort_order"`
	IsStart       bool      `json:"is_start"`
	IsEnding      bool      `json:"is_ending"`
	IsBranchPoint bool      `json:"is_branch_point"`
	CreatedAt     time.Time `json:"created_at"`
}

// Choice is a directed edge between two scenes. A nil ArchetypeTarget means
// the choice is visible to every reader.
type Choice struct {
	ID              uuid.UUID  `json:"id"`
	FromSceneID     uuid.UUID  `json:"from_scene_id"`
	ToSceneID       uuid.UUID  `json:"to_scene_id"`
	Text            string     `json:"text"`
	SortOrder       int        `json:"sort_order"`
	ArchetypeTarget *string    `json:"archetype_target,omitempty"`
	IsGenerated     bool       `json:"is_generated"`
	GeneratedFor    *string    `json:"generated_for,omitempty"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
}

// VisibleTo reports whether the choice may be shown to a reader with the
// given archetype (empty archetype means an unclassified reader).
func (c *Choice) VisibleTo(archetype string) bool {
	if c.ArchetypeTarget == nil {
		return true
	}
	return archetype != "" && *c.ArchetypeTarget == archetype
}

// SceneWithChoices is the play-time view of a scene: the node plus the edges
// visible to the requesting reader, standard choices first.
type SceneWithChoices struct {
	Scene   Scene    `json:"scene"`
	Choices []Choice `json:"choices"`
}
