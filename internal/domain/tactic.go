package domain

import "time"

// Tactic is a reusable rebuttal eligible for promotion into the
// production agent's arsenal. At most one tactic exists per battle —
// enforced by a unique constraint and the promotion service's
// find-or-create path.
type Tactic struct {
	ID          string    `json:"id"`
	BattleID    string    `json:"battle_id,omitempty"` // empty for operator-authored tactics
	Rebuttal    string    `json:"rebuttal"`
	IsSynthetic bool      `json:"is_synthetic"` // synthesized from a battle's winning rebuttal
	Priority    int       `json:"priority"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultTacticPriority is assigned to tactics synthesized during promotion.
const DefaultTacticPriority = 5
