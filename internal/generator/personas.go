package generator

import "fmt"

// archetypePersonas maps the quiz archetypes to the persona descriptions the
// generator is prompted with.
var archetypePersonas = map[string]string{
	"flame":    "bold and impulsive; drawn to confrontation, risk, and decisive action",
	"shadow":   "secretive and cautious; prefers stealth, observation, and hidden routes",
	"sage":     "curious and analytical; wants to understand, question, and uncover lore",
	"heart":    "empathetic and loyal; protects others and seeks connection over conflict",
	"wanderer": "restless and free-spirited; chooses the unexplored path for its own sake",
}

// PersonaFor returns the persona description for an archetype. Unknown
// archetypes get a generic description so personalization still works for
// archetype sets authored outside the default quiz.
func PersonaFor(archetype string) string {
	if persona, ok := archetypePersonas[archetype]; ok {
		return persona
	}
	return fmt.Sprintf("a reader whose dominant trait is %q; favors choices expressing that trait", archetype)
}
