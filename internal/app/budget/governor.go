// Package budget implements the spend governor for autonomous training.
// Spend is recomputed from the append-only billing ledger on every call —
// the governor holds no authoritative counter of its own.
package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/metrics"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

// Config controls governor thresholds.
type Config struct {
	Env         string  // billing environment the governor watches
	DailyCapUSD float64 // spend at which admissions stop (default $15.00)
	ThrottleUSD float64 // spend at which tier drops to economy (default $3.00)
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Env:         domain.EnvSandbox,
		DailyCapUSD: 15.00,
		ThrottleUSD: 3.00,
	}
}

// Classification is the governor's verdict for the current UTC day.
type Classification struct {
	SpendToday float64 `json:"spendToday"`
	Throttled  bool    `json:"throttled"`
	Exceeded   bool    `json:"exceeded"`
	Remaining  float64 `json:"remaining"`
}

// Governor classifies daily spend and serializes admission decisions.
// Admissions go through a single mutex so two concurrent battles cannot
// both pass the exceeded check in the same instant; the remaining
// check-then-act window (cost lands in the ledger only after the battle
// finishes) bounds overshoot to the in-flight units.
type Governor struct {
	mu     sync.Mutex
	db     *sqlite.DB
	config Config
	now    func() time.Time // injectable clock for tests
}

// NewGovernor creates a budget governor over the billing ledger.
func NewGovernor(db *sqlite.DB, cfg Config) *Governor {
	if cfg.Env == "" {
		cfg.Env = domain.EnvSandbox
	}
	if cfg.DailyCapUSD <= 0 {
		cfg.DailyCapUSD = 15.00
	}
	if cfg.ThrottleUSD <= 0 {
		cfg.ThrottleUSD = 3.00
	}
	return &Governor{db: db, config: cfg, now: time.Now}
}

// Classify recomputes today's spend from the ledger and buckets it.
// "Today" is the current UTC calendar day.
func (g *Governor) Classify() (Classification, error) {
	midnight := g.utcMidnight()
	spend, err := g.db.SpendSince(g.config.Env, midnight)
	if err != nil {
		return Classification{}, fmt.Errorf("sum ledger: %w", err)
	}

	c := Classification{
		SpendToday: spend,
		Throttled:  spend >= g.config.ThrottleUSD,
		Exceeded:   spend >= g.config.DailyCapUSD,
		Remaining:  g.config.DailyCapUSD - spend,
	}
	if c.Remaining < 0 {
		c.Remaining = 0
	}

	metrics.DailySpend.Set(spend)
	return c, nil
}

// ChooseTier selects the model tier for a classification: economy under
// throttle, standard otherwise.
func (g *Governor) ChooseTier(c Classification) domain.Tier {
	if c.Throttled {
		return domain.TierEconomy
	}
	return domain.TierStandard
}

// Admit is the single admission decision point. It re-reads the ledger
// (no caching across battle-start boundaries) and either refuses with
// domain.ErrBudgetExceeded or returns the tier the battle must run on.
func (g *Governor) Admit() (domain.Tier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, err := g.Classify()
	if err != nil {
		return "", err
	}
	if c.Exceeded {
		return "", domain.ErrBudgetExceeded
	}
	return g.ChooseTier(c), nil
}

// Record appends a battle's actual cost to the ledger.
func (g *Governor) Record(battleID string, costUSD float64, description string) error {
	if costUSD < 0 {
		return fmt.Errorf("cost must be non-negative, got %f", costUSD)
	}
	_, err := g.db.AppendLedgerEntry(domain.LedgerEntry{
		Env:         g.config.Env,
		AmountUSD:   costUSD,
		BattleID:    battleID,
		Description: description,
		Timestamp:   g.now(),
	})
	return err
}

// Cap returns the configured daily cap.
func (g *Governor) Cap() float64 { return g.config.DailyCapUSD }

// SetClock overrides the governor's clock. Test hook.
func (g *Governor) SetClock(now func() time.Time) { g.now = now }

func (g *Governor) utcMidnight() time.Time {
	now := g.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
