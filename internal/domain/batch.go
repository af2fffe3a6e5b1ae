package domain

import "time"

// BatchResult aggregates one orchestrator run. Statistics cover only
// units that produced a persisted battle; skipped and failed units are
// counted separately and never abort sibling work.
type BatchResult struct {
	BatchID          string    `json:"batchId"`
	BattlesCompleted int       `json:"battlesCompleted"`
	AverageScore     float64   `json:"averageScore"`
	TotalCost        float64   `json:"totalCost"`
	HaltedUnits      int       `json:"haltedUnits"`         // kill-switch refusals
	BudgetRefused    int       `json:"budgetRefusedUnits"`  // budget-exceeded refusals
	Errors           []string  `json:"errors"`              // per-unit failures, non-fatal
	Message          string    `json:"message,omitempty"`
	CompletedAt      time.Time `json:"completedAt"`
}
