package domain

import "time"

// ScenarioStatus tracks the scenario-injection lifecycle.
type ScenarioStatus string

const (
	ScenarioPending   ScenarioStatus = "pending"
	ScenarioRunning   ScenarioStatus = "running"
	ScenarioCompleted ScenarioStatus = "completed"
)

// ScenarioInjection replays one fixed objection across many battles.
// completed_sessions increments as child battles finish; when it reaches
// total_sessions the breakthrough ranking runs exactly once.
type ScenarioInjection struct {
	ID                string         `json:"id"`
	Objection         string         `json:"objection"`
	Status            ScenarioStatus `json:"status"`
	TotalSessions     int            `json:"totalSessions"`
	CompletedSessions int            `json:"completedSessions"`
	Top3Identified    bool           `json:"top3Identified"`
	CreatedAt         time.Time      `json:"createdAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"` // nil until ranking completes
}

// ScenarioBreakthrough is a top-ranked winning rebuttal discovered for a
// scenario. Ranks are contiguous from 1 and unique per scenario; a battle
// that failed to resolve the conflict can never appear here.
type ScenarioBreakthrough struct {
	ID               string    `json:"id"`
	ScenarioID       string    `json:"scenarioId"`
	BattleID         string    `json:"battleId"`
	Rank             int       `json:"rank"` // 1–3
	RefereeScore     int       `json:"refereeScore"`
	ConflictResolved bool      `json:"conflictResolved"`
	PriceMaintained  bool      `json:"priceMaintained"`
	WinningRebuttal  string    `json:"winningRebuttal"`
	Insight          string    `json:"insight"`
	CreatedAt        time.Time `json:"createdAt"`
}
