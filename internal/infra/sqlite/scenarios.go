package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Scenario Repository ────────────────────────────────────────────────────

// InsertScenario creates a new scenario injection row.
func (d *DB) InsertScenario(s domain.ScenarioInjection) error {
	_, err := d.db.Exec(
		`INSERT INTO scenario_injections (id, objection, status, total_sessions, completed_sessions, top_3_identified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Objection, string(s.Status), s.TotalSessions, s.CompletedSessions,
		s.Top3Identified, s.CreatedAt.Unix(),
	)
	return err
}

// GetScenario retrieves a scenario injection by ID.
func (d *DB) GetScenario(id string) (*domain.ScenarioInjection, error) {
	row := d.db.QueryRow(
		`SELECT id, objection, status, total_sessions, completed_sessions, top_3_identified, created_at, completed_at
		 FROM scenario_injections WHERE id = ?`, id,
	)
	return scanScenario(row)
}

// SetScenarioStatus transitions the scenario lifecycle (pending → running).
func (d *DB) SetScenarioStatus(id string, status domain.ScenarioStatus) error {
	res, err := d.db.Exec(
		`UPDATE scenario_injections SET status = ? WHERE id = ?`, string(status), id,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrScenarioNotFound
	}
	return nil
}

// IncrementCompletedSessions bumps the child-battle counter and returns the
// new completed/total counts. The UPDATE is guarded so completed_sessions
// can never exceed total_sessions.
func (d *DB) IncrementCompletedSessions(id string) (completed, total int, err error) {
	_, err = d.db.Exec(
		`UPDATE scenario_injections
		 SET completed_sessions = completed_sessions + 1
		 WHERE id = ? AND completed_sessions < total_sessions`, id,
	)
	if err != nil {
		return 0, 0, err
	}

	err = d.db.QueryRow(
		`SELECT completed_sessions, total_sessions FROM scenario_injections WHERE id = ?`, id,
	).Scan(&completed, &total)
	if err == sql.ErrNoRows {
		return 0, 0, domain.ErrScenarioNotFound
	}
	return completed, total, err
}

// CompleteScenario inserts the ranked breakthroughs and marks the scenario
// completed in one transaction. A scenario that is already completed is
// left untouched and ErrScenarioCompleted is returned — this is the status
// guard that makes ranking idempotent.
func (d *DB) CompleteScenario(id string, breakthroughs []domain.ScenarioBreakthrough) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(`SELECT status FROM scenario_injections WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return domain.ErrScenarioNotFound
	}
	if err != nil {
		return err
	}
	if domain.ScenarioStatus(status) == domain.ScenarioCompleted {
		return domain.ErrScenarioCompleted
	}

	for _, bt := range breakthroughs {
		_, err = tx.Exec(
			`INSERT INTO scenario_breakthroughs (id, scenario_id, battle_id, rank,
				referee_score, conflict_resolved, price_maintained, winning_rebuttal, insight, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bt.ID, bt.ScenarioID, bt.BattleID, bt.Rank,
			bt.RefereeScore, bt.ConflictResolved, bt.PriceMaintained,
			bt.WinningRebuttal, bt.Insight, bt.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert breakthrough rank %d: %w", bt.Rank, err)
		}
	}

	_, err = tx.Exec(
		`UPDATE scenario_injections
		 SET status = ?, top_3_identified = 1, completed_at = ?
		 WHERE id = ?`,
		string(domain.ScenarioCompleted), time.Now().Unix(), id,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListBreakthroughs returns a scenario's breakthroughs ordered by rank.
func (d *DB) ListBreakthroughs(scenarioID string) ([]domain.ScenarioBreakthrough, error) {
	rows, err := d.db.Query(
		`SELECT id, scenario_id, battle_id, rank, referee_score,
			conflict_resolved, price_maintained, winning_rebuttal, insight, created_at
		 FROM scenario_breakthroughs WHERE scenario_id = ? ORDER BY rank`, scenarioID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScenarioBreakthrough
	for rows.Next() {
		var bt domain.ScenarioBreakthrough
		var createdAt int64
		err := rows.Scan(&bt.ID, &bt.ScenarioID, &bt.BattleID, &bt.Rank, &bt.RefereeScore,
			&bt.ConflictResolved, &bt.PriceMaintained, &bt.WinningRebuttal, &bt.Insight, &createdAt)
		if err != nil {
			return nil, err
		}
		bt.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, bt)
	}
	return out, rows.Err()
}

func scanScenario(s scanner) (*domain.ScenarioInjection, error) {
	var sc domain.ScenarioInjection
	var status string
	var createdAt int64
	var completedAt sql.NullInt64

	err := s.Scan(&sc.ID, &sc.Objection, &status, &sc.TotalSessions,
		&sc.CompletedSessions, &sc.Top3Identified, &createdAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrScenarioNotFound
	}
	if err != nil {
		return nil, err
	}

	sc.Status = domain.ScenarioStatus(status)
	sc.CreatedAt = time.Unix(createdAt, 0)
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		sc.CompletedAt = &t
	}
	return &sc, nil
}
