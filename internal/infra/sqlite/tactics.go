package sqlite

import (
	"database/sql"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Tactic Repository ──────────────────────────────────────────────────────
// The UNIQUE(battle_id) constraint backs the one-tactic-per-battle
// invariant; the promotion service's find-or-create path relies on it.

// InsertTactic creates a new tactic row.
func (d *DB) InsertTactic(t domain.Tactic) error {
	_, err := d.db.Exec(
		`INSERT INTO tactics (id, battle_id, rebuttal, is_synthetic, priority, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullableString(t.BattleID), t.Rebuttal, t.IsSynthetic,
		t.Priority, t.Active, t.CreatedAt.Unix(),
	)
	return err
}

// GetTactic retrieves a tactic by ID.
func (d *DB) GetTactic(id string) (*domain.Tactic, error) {
	row := d.db.QueryRow(selectTactic+` WHERE id = ?`, id)
	return scanTactic(row)
}

// GetTacticByBattle retrieves the tactic synthesized from a battle, or
// (nil, nil) when none exists yet.
func (d *DB) GetTacticByBattle(battleID string) (*domain.Tactic, error) {
	row := d.db.QueryRow(selectTactic+` WHERE battle_id = ?`, battleID)
	t, err := scanTactic(row)
	if err == domain.ErrTacticNotFound {
		return nil, nil
	}
	return t, err
}

// ActivateTactic flips a tactic to active/production-visible.
func (d *DB) ActivateTactic(id string) error {
	res, err := d.db.Exec(`UPDATE tactics SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrTacticNotFound
	}
	return nil
}

// ListActiveTactics returns production-visible tactics, highest priority first.
func (d *DB) ListActiveTactics() ([]domain.Tactic, error) {
	rows, err := d.db.Query(selectTactic + ` WHERE active = 1 ORDER BY priority DESC, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tactics []domain.Tactic
	for rows.Next() {
		t, err := scanTactic(rows)
		if err != nil {
			return nil, err
		}
		tactics = append(tactics, *t)
	}
	return tactics, rows.Err()
}

const selectTactic = `SELECT id, battle_id, rebuttal, is_synthetic, priority, active, created_at FROM tactics`

func scanTactic(s scanner) (*domain.Tactic, error) {
	var t domain.Tactic
	var battleID sql.NullString
	var createdAt int64

	err := s.Scan(&t.ID, &battleID, &t.Rebuttal, &t.IsSynthetic, &t.Priority, &t.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTacticNotFound
	}
	if err != nil {
		return nil, err
	}

	if battleID.Valid {
		t.BattleID = battleID.String
	}
	t.CreatedAt = time.Unix(createdAt, 0)
	return &t, nil
}
