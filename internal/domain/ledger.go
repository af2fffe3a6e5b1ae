package domain

import "time"

// LedgerEntry is one append-only billing record. The ledger is the
// source of truth for the budget governor's daily spend aggregate —
// entries are never updated or deleted.
type LedgerEntry struct {
	ID          int64     `json:"id"`
	Env         string    `json:"env"` // "sandbox" or "production"
	AmountUSD   float64   `json:"amount_usd"`
	BattleID    string    `json:"battle_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Billing environments.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)
