package handler

import (
	"encoding/json"

	"github.com/google/uuid"
)

// --- Requests ---

type PersonalizeRequest struct {
	VisitorID string `json:"visitor_id"`
	Archetype string `json:"archetype"`
}

type UpsertProfileRequest struct {
	VisitorID string             `json:"visitor_id" binding:"required"`
	Scores    map[string]float64 `json:"scores" binding:"required"`
}

type TrackVisitRequest struct {
	StoryID   uuid.UUID  `json:"story_id" binding:"required"`
	VisitorID string     `json:"visitor_id" binding:"required"`
	SceneID   uuid.UUID  `json:"scene_id" binding:"required"`
	ChoiceID  *uuid.UUID `json:"choice_id"`
	IsEnding  bool       `json:"is_ending"`
}

type TrackSceneRequest struct {
	SessionID uuid.UUID  `json:"session_id"`
	SceneID   uuid.UUID  `json:"scene_id"`
	Action    string     `json:"action" binding:"required,oneof=enter exit"`
	ViewID    *uuid.UUID `json:"view_id"`
}

type TrackInteractionRequest struct {
	SessionID uuid.UUID       `json:"session_id" binding:"required"`
	SceneID   uuid.UUID       `json:"scene_id" binding:"required"`
	EventType string          `json:"event_type" binding:"required"`
	Metadata  json.RawMessage `json:"metadata"`
}

// --- Responses ---

type TrackVisitResponse struct {
	SessionID uuid.UUID `json:"session_id"`
}

type TrackSceneResponse struct {
	ViewID *uuid.UUID `json:"view_id,omitempty"`
	Status string     `json:"status"`
}

type TrackInteractionResponse struct {
	EventID uuid.UUID `json:"event_id"`
	Status  string    `json:"status"`
}
