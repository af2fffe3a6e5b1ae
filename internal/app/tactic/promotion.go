// Package tactic promotes winning sandbox rebuttals into the production
// tactic set. Promotion is idempotent: the one-tactic-per-battle unique
// constraint plus a find-or-create path guarantee no duplicate rows.
package tactic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/metrics"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

// Service handles tactic promotion.
type Service struct {
	db *sqlite.DB
}

// NewService creates a promotion service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Result reports the outcome of a promotion request.
type Result struct {
	Promoted bool           `json:"promoted"`
	Message  string         `json:"message"`
	Tactic   *domain.Tactic `json:"tactic,omitempty"`
}

// Promote activates a tactic by tactic ID or battle ID (exactly one of
// the two may be empty). The battle path synthesizes a tactic from the
// battle's winning rebuttal when none exists yet. A repeat request for
// the same battle re-activates the existing tactic — never a second row.
func (s *Service) Promote(ctx context.Context, tacticID, battleID string) (*Result, error) {
	switch {
	case tacticID != "":
		return s.promoteExisting(tacticID)
	case battleID != "":
		return s.promoteFromBattle(battleID)
	default:
		return nil, fmt.Errorf("either tacticId or battleId is required")
	}
}

func (s *Service) promoteExisting(tacticID string) (*Result, error) {
	t, err := s.db.GetTactic(tacticID)
	if err != nil {
		return nil, err
	}
	return s.activate(t)
}

func (s *Service) promoteFromBattle(battleID string) (*Result, error) {
	t, err := s.db.GetTacticByBattle(battleID)
	if err != nil {
		return nil, err
	}

	if t == nil {
		b, err := s.db.GetBattle(battleID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(b.WinningRebuttal) == "" {
			return nil, domain.ErrNoWinningRebuttal
		}

		t = &domain.Tactic{
			ID:          uuid.New().String(),
			BattleID:    b.ID,
			Rebuttal:    b.WinningRebuttal,
			IsSynthetic: true,
			Priority:    domain.DefaultTacticPriority,
			Active:      false,
			CreatedAt:   time.Now(),
		}
		if err := s.db.InsertTactic(*t); err != nil {
			// A concurrent promotion may have won the insert race; the
			// unique constraint guarantees a single row, so re-read it.
			existing, lookupErr := s.db.GetTacticByBattle(battleID)
			if lookupErr != nil || existing == nil {
				return nil, fmt.Errorf("insert tactic: %w", err)
			}
			t = existing
		}
	}

	return s.activate(t)
}

func (s *Service) activate(t *domain.Tactic) (*Result, error) {
	if t.Active {
		return &Result{
			Promoted: true,
			Message:  fmt.Sprintf("tactic %s already promoted", t.ID),
			Tactic:   t,
		}, nil
	}

	if err := s.db.ActivateTactic(t.ID); err != nil {
		return nil, err
	}
	t.Active = true
	metrics.TacticsPromoted.Inc()

	return &Result{
		Promoted: true,
		Message:  fmt.Sprintf("tactic %s promoted to production", t.ID),
		Tactic:   t,
	}, nil
}
