// Package domain holds the core entities of the sandbox training pipeline.
// A battle is one simulated negotiation between the sales agent and a
// synthetic buyer persona. Everything downstream (scoring, ranking,
// promotion) hangs off battles.
package domain

import "time"

// Persona is a synthetic buyer profile with a scripted resistance style.
// Personas are seeded from the master set and are read-only to the
// pipeline — a battle never mutates its persona.
type Persona struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	SystemPrompt   string    `json:"system_prompt"`
	Traits         []string  `json:"traits"`
	AttackPatterns []string  `json:"attack_patterns"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}
