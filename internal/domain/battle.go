package domain

import (
	"fmt"
	"strings"
	"time"
)

// Tier selects which completion model a battle runs on. The budget
// governor downgrades to economy under spend pressure.
type Tier string

const (
	TierStandard Tier = "standard"
	TierEconomy  Tier = "economy"
)

// Turn is one utterance in a simulated negotiation.
type Turn struct {
	Role    string `json:"role"` // "agent" or "buyer"
	Content string `json:"content"`
}

// Transcript is the full conversation of one battle, in order.
type Transcript []Turn

// Render flattens the transcript into the plain-text form handed to the
// referee for judgment.
func (t Transcript) Render() string {
	var b strings.Builder
	for _, turn := range t {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(turn.Role), turn.Content)
	}
	return b.String()
}

// Verdict is the referee's judgment of one finished transcript.
// Numeric fields are clamped to their documented ranges before a
// battle is persisted.
type Verdict struct {
	RefereeScore     int     `json:"referee_score"`     // 0–100
	SuccessScore     int     `json:"success_score"`     // 0–10
	MarginIntegrity  float64 `json:"margin_integrity"`  // 0.0–1.0
	CalculatedProfit float64 `json:"calculated_profit"` // derived, >= 0
	VerbalYes        bool    `json:"verbal_yes"`        // buyer agreed to the closing memorandum
	ConflictResolved bool    `json:"conflict_resolved"`
	PriceMaintained  bool    `json:"price_maintained"`
	WinningRebuttal  string  `json:"winning_rebuttal"`
	Insight          string  `json:"insight"`
}

// Battle records one completed simulated negotiation. Created exactly
// once at conversation completion and immutable thereafter.
type Battle struct {
	ID               string     `json:"id"`
	BatchID          string     `json:"batch_id"`
	ScenarioID       string     `json:"scenario_id,omitempty"` // set for scenario-injection children
	PersonaID        string     `json:"persona_id"`
	Tier             Tier       `json:"tier"`
	RefereeScore     int        `json:"referee_score"`
	SuccessScore     int        `json:"success_score"`
	VerbalYes        bool       `json:"verbal_yes"`
	ConflictResolved bool       `json:"conflict_resolved"`
	PriceMaintained  bool       `json:"price_maintained"`
	MarginIntegrity  float64    `json:"margin_integrity"`
	CalculatedProfit float64    `json:"calculated_profit"`
	CostUSD          float64    `json:"cost_usd"`
	Transcript       Transcript `json:"transcript"`
	WinningRebuttal  string     `json:"winning_rebuttal"`
	Insight          string     `json:"insight,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
