package sqlite

import (
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Billing Ledger ─────────────────────────────────────────────────────────
// Append-only: entries are never updated or deleted. The budget governor
// recomputes daily spend from here on every classification.

// AppendLedgerEntry records one cost entry and returns its row ID.
func (d *DB) AppendLedgerEntry(e domain.LedgerEntry) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO billing_ledger (env, amount_usd, battle_id, description, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Env, e.AmountUSD, nullableString(e.BattleID), e.Description, e.Timestamp.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SpendSince sums ledger amounts for an environment from the given instant.
func (d *DB) SpendSince(env string, since time.Time) (float64, error) {
	var total float64
	err := d.db.QueryRow(
		`SELECT COALESCE(SUM(amount_usd), 0) FROM billing_ledger
		 WHERE env = ? AND timestamp >= ?`,
		env, since.Unix(),
	).Scan(&total)
	return total, err
}

// LedgerEntries returns the most recent entries for an environment.
func (d *DB) LedgerEntries(env string, limit int) ([]domain.LedgerEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, env, amount_usd, COALESCE(battle_id, ''), COALESCE(description, ''), timestamp
		 FROM billing_ledger WHERE env = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		env, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Env, &e.AmountUSD, &e.BattleID, &e.Description, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
