// Package scenario fans a single raw objection out into many battles and
// ranks the winning rebuttals once the fan-out completes.
package scenario

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/battle"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

// Injector schedules scenario-injection battles and triggers ranking.
type Injector struct {
	db   *sqlite.DB
	orch *battle.Orchestrator
}

// NewInjector creates a scenario injector over the orchestrator.
func NewInjector(db *sqlite.DB, orch *battle.Orchestrator) *Injector {
	return &Injector{db: db, orch: orch}
}

// Inject creates a pending scenario for a raw objection. Run executes it.
func (i *Injector) Inject(ctx context.Context, rawObjection string, totalSessions int) (*domain.ScenarioInjection, error) {
	if rawObjection == "" {
		return nil, fmt.Errorf("objection must not be empty")
	}
	if totalSessions <= 0 {
		return nil, fmt.Errorf("total sessions must be positive, got %d", totalSessions)
	}

	sc := domain.ScenarioInjection{
		ID:            uuid.New().String(),
		Objection:     rawObjection,
		Status:        domain.ScenarioPending,
		TotalSessions: totalSessions,
		CreatedAt:     time.Now(),
	}
	if err := i.db.InsertScenario(sc); err != nil {
		return nil, fmt.Errorf("insert scenario: %w", err)
	}
	return &sc, nil
}

// Run executes the scenario's fan-out: one battle per outstanding session
// with the objection pinned, each completed child incrementing the session
// counter. When the counter reaches the total, ranking runs exactly once.
// On a partially-completed scenario only the remainder is fanned out, so
// resuming never runs (or bills) more battles than the scenario owes.
func (i *Injector) Run(ctx context.Context, scenarioID string) error {
	sc, err := i.db.GetScenario(scenarioID)
	if err != nil {
		return err
	}
	if sc.Status == domain.ScenarioCompleted {
		return domain.ErrScenarioCompleted
	}

	if err := i.db.SetScenarioStatus(sc.ID, domain.ScenarioRunning); err != nil {
		return err
	}

	remaining := sc.TotalSessions - sc.CompletedSessions
	if remaining <= 0 {
		// All sessions finished but ranking never fired (interrupted
		// between the last counter bump and the rank). Rank now.
		if err := i.Rank(sc.ID); err != nil {
			return fmt.Errorf("rank scenario %s: %w", sc.ID, err)
		}
		return nil
	}

	rankNow := false
	_, err = i.orch.RunScenarioBattles(ctx, sc.ID, sc.Objection, remaining, func(b domain.Battle) {
		completed, total, err := i.db.IncrementCompletedSessions(sc.ID)
		if err != nil {
			log.Printf("[scenario] session counter for %s: %v", sc.ID, err)
			return
		}
		if completed == total {
			rankNow = true
		}
	})
	if err != nil {
		return fmt.Errorf("scenario fan-out: %w", err)
	}

	// Units refused by admission control or failed in flight leave the
	// counter short of the total; the scenario stays running until a
	// resume picks the remainder up. Ranking fires only on full completion.
	if rankNow {
		if err := i.Rank(sc.ID); err != nil {
			return fmt.Errorf("rank scenario %s: %w", sc.ID, err)
		}
	}
	return nil
}

// InjectAndRun is the operator entry point: create the scenario and run
// its fan-out in the background.
func (i *Injector) InjectAndRun(ctx context.Context, rawObjection string, totalSessions int) (*domain.ScenarioInjection, error) {
	sc, err := i.Inject(ctx, rawObjection, totalSessions)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := i.Run(context.Background(), sc.ID); err != nil {
			log.Printf("[scenario] run %s: %v", sc.ID, err)
		}
	}()

	return sc, nil
}

// Resume restarts the fan-out of a scenario that lost sessions to unit
// failures or admission refusals. Only the outstanding remainder runs; a
// completed scenario returns ErrScenarioCompleted. Runs in the background
// like InjectAndRun.
func (i *Injector) Resume(scenarioID string) (*domain.ScenarioInjection, error) {
	sc, err := i.db.GetScenario(scenarioID)
	if err != nil {
		return nil, err
	}
	if sc.Status == domain.ScenarioCompleted {
		return nil, domain.ErrScenarioCompleted
	}

	go func() {
		if err := i.Run(context.Background(), sc.ID); err != nil {
			log.Printf("[scenario] resume %s: %v", sc.ID, err)
		}
	}()

	return sc, nil
}

// Status returns a scenario and its breakthroughs ordered by rank.
func (i *Injector) Status(scenarioID string) (*domain.ScenarioInjection, []domain.ScenarioBreakthrough, error) {
	sc, err := i.db.GetScenario(scenarioID)
	if err != nil {
		return nil, nil, err
	}
	bts, err := i.db.ListBreakthroughs(scenarioID)
	if err != nil {
		return nil, nil, err
	}
	return sc, bts, nil
}
