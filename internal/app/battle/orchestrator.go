package battle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/budget"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/killswitch"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/referee"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/metrics"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

// Orchestrator runs batches of simulated negotiations with bounded
// concurrency. Before each admission it consults the kill switch (hard
// stop) and the budget governor (refusal or tier selection); a failure in
// one unit never aborts its siblings.
type Orchestrator struct {
	db       *sqlite.DB
	governor *budget.Governor
	ks       *killswitch.Controller
	sim      Simulator
	scorer   *referee.Scorer

	maxConcurrent int

	mu       sync.Mutex
	rrCursor int // round-robin position over the active persona list
}

// NewOrchestrator wires the orchestrator. maxConcurrent bounds in-flight
// battles within a batch (default 4, the provider's comfortable parallelism).
func NewOrchestrator(db *sqlite.DB, governor *budget.Governor, ks *killswitch.Controller, sim Simulator, scorer *referee.Scorer, maxConcurrent int) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Orchestrator{
		db:            db,
		governor:      governor,
		ks:            ks,
		sim:           sim,
		scorer:        scorer,
		maxConcurrent: maxConcurrent,
	}
}

// batchSpec describes one fan-out: a plain training batch or a scenario
// injection's children.
type batchSpec struct {
	size       int
	objection  string
	scenarioID string
	onBattle   func(domain.Battle) // called after each persisted battle
}

// RunBatch runs size battles against round-robin-selected active personas
// and returns the aggregated result. Statistics cover only persisted
// battles; refusals and failures are reported separately.
func (o *Orchestrator) RunBatch(ctx context.Context, size int) (domain.BatchResult, error) {
	if size <= 0 {
		return domain.BatchResult{}, fmt.Errorf("batch size must be positive, got %d", size)
	}
	return o.run(ctx, batchSpec{size: size})
}

// RunScenarioBattles fans one objection out across size battles. onBattle
// fires for every persisted child so the scenario's session counter can
// advance.
func (o *Orchestrator) RunScenarioBattles(ctx context.Context, scenarioID, objection string, size int, onBattle func(domain.Battle)) (domain.BatchResult, error) {
	if size <= 0 {
		return domain.BatchResult{}, fmt.Errorf("session count must be positive, got %d", size)
	}
	return o.run(ctx, batchSpec{
		size:       size,
		objection:  objection,
		scenarioID: scenarioID,
		onBattle:   onBattle,
	})
}

// unitOutcome is what one battle unit reports back to the barrier.
type unitOutcome struct {
	battle *domain.Battle
	halted bool
	budget bool
	err    error
}

func (o *Orchestrator) run(ctx context.Context, spec batchSpec) (domain.BatchResult, error) {
	personas, err := o.db.ListActivePersonas()
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("list personas: %w", err)
	}
	if len(personas) == 0 {
		return domain.BatchResult{}, domain.ErrNoActivePersonas
	}

	batchID := uuid.New().String()
	selected := o.selectPersonas(personas, spec.size)

	outcomes := make([]unitOutcome, spec.size)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i := 0; i < spec.size; i++ {
		i := i
		g.Go(func() error {
			outcomes[i] = o.runUnit(gctx, batchID, spec, selected[i])
			return nil // unit failures are recorded, never propagated
		})
	}
	// Barrier: the batch settles only after every admitted unit finishes.
	_ = g.Wait()

	result := domain.BatchResult{
		BatchID:     batchID,
		Errors:      []string{},
		CompletedAt: time.Now(),
	}

	var scoreSum int
	for _, out := range outcomes {
		switch {
		case out.halted:
			result.HaltedUnits++
		case out.budget:
			result.BudgetRefused++
		case out.err != nil:
			result.Errors = append(result.Errors, out.err.Error())
		case out.battle != nil:
			result.BattlesCompleted++
			scoreSum += out.battle.RefereeScore
			result.TotalCost += out.battle.CostUSD
			if spec.onBattle != nil {
				spec.onBattle(*out.battle)
			}
		}
	}
	if result.BattlesCompleted > 0 {
		result.AverageScore = float64(scoreSum) / float64(result.BattlesCompleted)
	}
	switch {
	case result.HaltedUnits == spec.size:
		result.Message = "kill switch active — batch halted, no battles admitted"
	case result.BudgetRefused == spec.size:
		result.Message = "daily budget exceeded — no battles admitted"
	}

	metrics.BatchCost.Observe(result.TotalCost)
	log.Printf("[battle] batch %s settled: %d completed, %d halted, %d budget-refused, %d errors, $%.4f",
		batchID, result.BattlesCompleted, result.HaltedUnits, result.BudgetRefused,
		len(result.Errors), result.TotalCost)

	return result, nil
}

// runUnit executes one battle end to end. Panics and errors are contained
// here so sibling units keep running.
func (o *Orchestrator) runUnit(ctx context.Context, batchID string, spec batchSpec, persona domain.Persona) (out unitOutcome) {
	defer func() {
		if r := recover(); r != nil {
			metrics.BattlesFailed.WithLabelValues("panic").Inc()
			out = unitOutcome{err: fmt.Errorf("battle unit panicked: %v", r)}
		}
	}()

	// Admission: kill switch first — a halt consumes no budget.
	if o.ks.Engaged() {
		metrics.AdmissionsRefused.WithLabelValues("halted").Inc()
		return unitOutcome{halted: true}
	}

	tier, err := o.governor.Admit()
	if err == domain.ErrBudgetExceeded {
		metrics.AdmissionsRefused.WithLabelValues("budget_exceeded").Inc()
		return unitOutcome{budget: true}
	}
	if err != nil {
		return unitOutcome{err: fmt.Errorf("admission: %v", err)}
	}

	started := time.Now()

	transcript, simCost, err := o.sim.Run(ctx, persona, tier, spec.objection)
	if err != nil {
		metrics.BattlesFailed.WithLabelValues("simulation").Inc()
		return unitOutcome{err: fmt.Errorf("persona %s: simulation: %v", persona.ID, err)}
	}

	verdict, judgeCost, err := o.scorer.Score(ctx, transcript)
	if err != nil {
		metrics.BattlesFailed.WithLabelValues("scoring").Inc()
		return unitOutcome{err: fmt.Errorf("persona %s: scoring: %v", persona.ID, err)}
	}

	b := domain.Battle{
		ID:               uuid.New().String(),
		BatchID:          batchID,
		ScenarioID:       spec.scenarioID,
		PersonaID:        persona.ID,
		Tier:             tier,
		RefereeScore:     verdict.RefereeScore,
		SuccessScore:     verdict.SuccessScore,
		VerbalYes:        verdict.VerbalYes,
		ConflictResolved: verdict.ConflictResolved,
		PriceMaintained:  verdict.PriceMaintained,
		MarginIntegrity:  verdict.MarginIntegrity,
		CalculatedProfit: verdict.CalculatedProfit,
		CostUSD:          simCost + judgeCost,
		Transcript:       transcript,
		WinningRebuttal:  verdict.WinningRebuttal,
		Insight:          verdict.Insight,
		CreatedAt:        time.Now(),
	}

	if err := o.db.InsertBattle(b); err != nil {
		metrics.BattlesFailed.WithLabelValues("persist").Inc()
		return unitOutcome{err: fmt.Errorf("persona %s: persist battle: %v", persona.ID, err)}
	}

	// The ledger entry lands after the battle; a failed append is logged
	// rather than failing a battle that already exists.
	if err := o.governor.Record(b.ID, b.CostUSD, "battle vs "+persona.Name); err != nil {
		log.Printf("[battle] ledger append failed for battle %s: %v", b.ID, err)
	}

	metrics.BattlesCompleted.WithLabelValues(string(tier)).Inc()
	metrics.BattleScores.Observe(float64(b.RefereeScore))
	metrics.BattleDuration.Observe(time.Since(started).Seconds())

	return unitOutcome{battle: &b}
}

// selectPersonas picks size personas round-robin over the active list.
// The cursor persists across batches so rotation continues where the last
// batch stopped; with a fixed cursor the selection is deterministic.
func (o *Orchestrator) selectPersonas(personas []domain.Persona, size int) []domain.Persona {
	o.mu.Lock()
	start := o.rrCursor
	o.rrCursor = (o.rrCursor + size) % len(personas)
	o.mu.Unlock()

	selected := make([]domain.Persona, size)
	for i := 0; i < size; i++ {
		selected[i] = personas[(start+i)%len(personas)]
	}
	return selected
}

// SetCursor positions the round-robin cursor. Test hook for deterministic
// selection.
func (o *Orchestrator) SetCursor(n int) {
	o.mu.Lock()
	o.rrCursor = n
	o.mu.Unlock()
}
