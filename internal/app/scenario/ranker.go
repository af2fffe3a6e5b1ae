package scenario

import (
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/metrics"
)

// maxBreakthroughs is how many top battles become breakthroughs.
const maxBreakthroughs = 3

// Rank selects the top battles for a completed fan-out and records them
// as breakthroughs with contiguous ranks from 1. Candidates are filtered
// to conflict_resolved battles and ordered by (price_maintained desc,
// referee_score desc). Fewer than three qualifiers means fewer rows — no
// padding. Ranking a completed scenario is a no-op.
func (i *Injector) Rank(scenarioID string) error {
	battles, err := i.db.ListBattlesByScenario(scenarioID)
	if err != nil {
		return err
	}

	candidates := battles[:0:0]
	for _, b := range battles {
		if b.ConflictResolved {
			candidates = append(candidates, b)
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].PriceMaintained != candidates[b].PriceMaintained {
			return candidates[a].PriceMaintained
		}
		return candidates[a].RefereeScore > candidates[b].RefereeScore
	})

	if len(candidates) > maxBreakthroughs {
		candidates = candidates[:maxBreakthroughs]
	}

	now := time.Now()
	breakthroughs := make([]domain.ScenarioBreakthrough, len(candidates))
	for idx, b := range candidates {
		breakthroughs[idx] = domain.ScenarioBreakthrough{
			ID:               uuid.New().String(),
			ScenarioID:       scenarioID,
			BattleID:         b.ID,
			Rank:             idx + 1,
			RefereeScore:     b.RefereeScore,
			ConflictResolved: b.ConflictResolved,
			PriceMaintained:  b.PriceMaintained,
			WinningRebuttal:  b.WinningRebuttal,
			Insight:          b.Insight,
			CreatedAt:        now,
		}
	}

	err = i.db.CompleteScenario(scenarioID, breakthroughs)
	if err == domain.ErrScenarioCompleted {
		log.Printf("[scenario] %s already ranked — skipping", scenarioID)
		return nil
	}
	if err != nil {
		return err
	}

	metrics.ScenariosRanked.Inc()
	log.Printf("[scenario] %s ranked: %d breakthroughs", scenarioID, len(breakthroughs))
	return nil
}
