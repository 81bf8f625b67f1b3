package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeChoiceText(t *testing.T) {
	assert.Equal(t, "Force the door", sanitizeChoiceText("Force the door"))
	assert.Equal(t, "Force the door", sanitizeChoiceText(`  "Force the door"  `))
	assert.Equal(t, "Force the door", sanitizeChoiceText("Force the door\nBecause it fits the persona."))
	assert.Equal(t, "", sanitizeChoiceText("  \n  "))
}

func TestPersonaFor(t *testing.T) {
	assert.Contains(t, PersonaFor("flame"), "bold")
	assert.Contains(t, PersonaFor("shadow"), "stealth")

	// Unknown archetypes still yield a usable persona.
	custom := PersonaFor("trickster")
	assert.Contains(t, custom, "trickster")
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt(Request{
		StoryTitle:      "The Vault",
		SceneTitle:      "The Door",
		SceneContent:    "The door hums.",
		Archetype:       "sage",
		Persona:         PersonaFor("sage"),
		ExistingChoices: []string{"Force the door", "Pick the lock"},
	})

	assert.True(t, strings.HasPrefix(prompt, "Story: The Vault\n"))
	assert.Contains(t, prompt, "Reader persona (sage)")
	assert.Contains(t, prompt, "- Force the door\n")
	assert.Contains(t, prompt, "- Pick the lock\n")
}
