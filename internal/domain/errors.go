package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Persona errors
	ErrPersonaNotFound  = errors.New("persona not found")
	ErrNoActivePersonas = errors.New("no active personas available")

	// Battle errors
	ErrBattleNotFound = errors.New("battle not found")

	// Admission refusals — not failures; a refused unit is skipped, never crashed
	ErrKillSwitchActive = errors.New("kill switch is active — no new battles admitted")
	ErrBudgetExceeded   = errors.New("daily budget exceeded — no new battles admitted")

	// Scenario errors
	ErrScenarioNotFound  = errors.New("scenario not found")
	ErrScenarioCompleted = errors.New("scenario already completed — ranking is final")

	// Tactic errors
	ErrTacticNotFound    = errors.New("tactic not found")
	ErrNoWinningRebuttal = errors.New("battle has no winning rebuttal to promote")
	ErrAlreadyPromoted   = errors.New("tactic already promoted")

	// Referee errors
	ErrEmptyTranscript  = errors.New("transcript is empty — nothing to judge")
	ErrMalformedVerdict = errors.New("judge returned a malformed verdict")
)
