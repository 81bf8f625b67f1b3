package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionTypeIsValid(t *testing.T) {
	for _, valid := range []InteractionType{
		InteractionHoverChoice, InteractionReread, InteractionIdleReturn,
		InteractionHesitation, InteractionScroll,
	} {
		assert.True(t, valid.IsValid(), string(valid))
	}
	assert.False(t, InteractionType("double_click").IsValid())
	assert.False(t, InteractionType("").IsValid())
}

func TestDecodeInteractionMetadata(t *testing.T) {
	t.Run("Hover requires metadata with a choice id", func(t *testing.T) {
		_, err := DecodeInteractionMetadata(InteractionHoverChoice, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = DecodeInteractionMetadata(InteractionHoverChoice, json.RawMessage(`{"duration_ms":2500}`))
		assert.ErrorIs(t, err, ErrInvalidInput)

		raw := json.RawMessage(`{"choice_id":"` + uuid.New().String() + `","duration_ms":2500}`)
		decoded, err := DecodeInteractionMetadata(InteractionHoverChoice, raw)
		require.NoError(t, err)
		m, ok := decoded.(HoverChoiceMetadata)
		require.True(t, ok)
		assert.Equal(t, int64(2500), m.DurationMs)
	})

	t.Run("Hover rejects negative duration", func(t *testing.T) {
		raw := json.RawMessage(`{"choice_id":"` + uuid.New().String() + `","duration_ms":-1}`)
		_, err := DecodeInteractionMetadata(InteractionHoverChoice, raw)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Other types allow empty metadata", func(t *testing.T) {
		for _, typ := range []InteractionType{
			InteractionReread, InteractionIdleReturn, InteractionHesitation, InteractionScroll,
		} {
			_, err := DecodeInteractionMetadata(typ, nil)
			assert.NoError(t, err, string(typ))
			_, err = DecodeInteractionMetadata(typ, json.RawMessage("null"))
			assert.NoError(t, err, string(typ))
		}
	})

	t.Run("Malformed metadata is rejected", func(t *testing.T) {
		_, err := DecodeInteractionMetadata(InteractionScroll, json.RawMessage(`{"depth":"very deep"}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Idle return rejects negative idle time", func(t *testing.T) {
		_, err := DecodeInteractionMetadata(InteractionIdleReturn, json.RawMessage(`{"idle_ms":-5}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Unknown type is rejected", func(t *testing.T) {
		_, err := DecodeInteractionMetadata("drag", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestDominantArchetype(t *testing.T) {
	assert.Equal(t, "", DominantArchetype(nil))
	assert.Equal(t, "sage", DominantArchetype(map[string]float64{"sage": 1}))
	assert.Equal(t, "shadow", DominantArchetype(map[string]float64{"flame": 2, "shadow": 7, "sage": 3}))
	// Ties break lexically.
	assert.Equal(t, "flame", DominantArchetype(map[string]float64{"wanderer": 4, "flame": 4}))
}

func TestChoiceVisibleTo(t *testing.T) {
	target := "heart"
	open := Choice{Text: "open"}
	targeted := Choice{Text: "targeted", ArchetypeTarget: &target}

	assert.True(t, open.VisibleTo(""))
	assert.True(t, open.VisibleTo("sage"))
	assert.True(t, targeted.VisibleTo("heart"))
	assert.False(t, targeted.VisibleTo("sage"))
	assert.False(t, targeted.VisibleTo(""))
}
