package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// InteractionType enumerates the engagement signals the tracker accepts.
// Debouncing is a client contract: hover events are expected only after a
// sustained hover (~2000ms), idle_return only after sustained inactivity
// (~30000ms), reread only on upward scroll past a shallow depth.
type InteractionType string

const (
	InteractionHoverChoice InteractionType = "hover_choice"
	InteractionReread      InteractionType = "reread"
	InteractionIdleReturn  InteractionType = "idle_return"
	InteractionHesitation  InteractionType = "hesitation"
	InteractionScroll      InteractionType = "scroll"
)

// IsValid reports whether t is one of the fixed interaction types.
func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionHoverChoice, InteractionReread, InteractionIdleReturn,
		InteractionHesitation, InteractionScroll:
		return true
	}
	return false
}

// Per-type metadata payloads. The wire representation stays raw JSON; these
// shapes exist so writes can be validated instead of accepting an open map.

type HoverChoiceMetadata struct {
	ChoiceID   uuid.UUID `json:"choice_id"`
	DurationMs int64     `json:"duration_ms"`
}

type RereadMetadata struct {
	ScrollDepth float64 `json:"scroll_depth"`
}

type IdleReturnMetadata struct {
	IdleMs int64 `json:"idle_ms"`
}

type HesitationMetadata struct {
	SceneMs int64 `json:"scene_ms"`
}

type ScrollMetadata struct {
	Depth float64 `json:"depth"`
}

// DecodeInteractionMetadata validates raw metadata against the shape expected
// for the given event type and returns the typed payload. A missing or null
// payload is allowed for every type except hover_choice, which must name the
// hovered choice.
func DecodeInteractionMetadata(t InteractionType, raw json.RawMessage) (any, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, t)
	}
	empty := len(raw) == 0 || string(raw) == "null"

	switch t {
	case InteractionHoverChoice:
		var m HoverChoiceMetadata
		if empty {
			return nil, fmt.Errorf("%w: hover_choice requires metadata", ErrInvalidInput)
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: bad hover_choice metadata: %v", ErrInvalidInput, err)
		}
		if m.ChoiceID == uuid.Nil {
			return nil, fmt.Errorf("%w: hover_choice metadata requires choice_id", ErrInvalidInput)
		}
		if m.DurationMs < 0 {
			return nil, fmt.Errorf("%w: duration_ms must be non-negative", ErrInvalidInput)
		}
		return m, nil
	case InteractionReread:
		var m RereadMetadata
		if !empty {
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("%w: bad reread metadata: %v", ErrInvalidInput, err)
			}
		}
		return m, nil
	case InteractionIdleReturn:
		var m IdleReturnMetadata
		if !empty {
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("%w: bad idle_return metadata: %v", ErrInvalidInput, err)
			}
			if m.IdleMs < 0 {
				return nil, fmt.Errorf("%w: idle_ms must be non-negative", ErrInvalidInput)
			}
		}
		return m, nil
	case InteractionHesitation:
		var m HesitationMetadata
		if !empty {
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("%w: bad hesitation metadata: %v", ErrInvalidInput, err)
			}
		}
		return m, nil
	default: // InteractionScroll
		var m ScrollMetadata
		if !empty {
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("%w: bad scroll metadata: %v", ErrInvalidInput, err)
			}
		}
		return m, nil
	}
}
