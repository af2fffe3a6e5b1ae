package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Battle Repository ──────────────────────────────────────────────────────
// Battles are created exactly once at conversation completion and never
// updated — there is intentionally no UpdateBattle.

// InsertBattle persists one completed battle.
func (d *DB) InsertBattle(b domain.Battle) error {
	transcript, err := json.Marshal(b.Transcript)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO battles (id, batch_id, scenario_id, persona_id, tier,
			referee_score, success_score, verbal_yes, conflict_resolved, price_maintained,
			margin_integrity, calculated_profit, cost_usd, transcript, winning_rebuttal, insight, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.BatchID, nullableString(b.ScenarioID), b.PersonaID, string(b.Tier),
		b.RefereeScore, b.SuccessScore, b.VerbalYes, b.ConflictResolved, b.PriceMaintained,
		b.MarginIntegrity, b.CalculatedProfit, b.CostUSD, string(transcript),
		b.WinningRebuttal, b.Insight, b.CreatedAt.Unix(),
	)
	return err
}

// GetBattle retrieves a single battle by ID.
func (d *DB) GetBattle(id string) (*domain.Battle, error) {
	row := d.db.QueryRow(selectBattle+` WHERE id = ?`, id)
	return scanBattle(row)
}

// ListBattlesByBatch returns all battles persisted under one batch.
func (d *DB) ListBattlesByBatch(batchID string) ([]domain.Battle, error) {
	rows, err := d.db.Query(selectBattle+` WHERE batch_id = ? ORDER BY created_at`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var battles []domain.Battle
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, err
		}
		battles = append(battles, *b)
	}
	return battles, rows.Err()
}

// ListBattlesByScenario returns all child battles of a scenario injection.
func (d *DB) ListBattlesByScenario(scenarioID string) ([]domain.Battle, error) {
	rows, err := d.db.Query(selectBattle+` WHERE scenario_id = ? ORDER BY created_at`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var battles []domain.Battle
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, err
		}
		battles = append(battles, *b)
	}
	return battles, rows.Err()
}

const selectBattle = `SELECT id, batch_id, scenario_id, persona_id, tier,
	referee_score, success_score, verbal_yes, conflict_resolved, price_maintained,
	margin_integrity, calculated_profit, cost_usd, transcript, winning_rebuttal, insight, created_at
	FROM battles`

func scanBattle(s scanner) (*domain.Battle, error) {
	var b domain.Battle
	var scenarioID sql.NullString
	var tier, transcript string
	var createdAt int64

	err := s.Scan(&b.ID, &b.BatchID, &scenarioID, &b.PersonaID, &tier,
		&b.RefereeScore, &b.SuccessScore, &b.VerbalYes, &b.ConflictResolved, &b.PriceMaintained,
		&b.MarginIntegrity, &b.CalculatedProfit, &b.CostUSD, &transcript,
		&b.WinningRebuttal, &b.Insight, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrBattleNotFound
	}
	if err != nil {
		return nil, err
	}

	if scenarioID.Valid {
		b.ScenarioID = scenarioID.String
	}
	b.Tier = domain.Tier(tier)
	if err := json.Unmarshal([]byte(transcript), &b.Transcript); err != nil {
		return nil, err
	}
	b.CreatedAt = time.Unix(createdAt, 0)
	return &b, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
