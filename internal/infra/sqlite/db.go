// Package sqlite provides SQLite-based persistent storage for the sandbox
// training pipeline. Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/sandbox.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "sandbox.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Master persona set — seeded, read-only to the pipeline
		`CREATE TABLE IF NOT EXISTS personas (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			category        TEXT NOT NULL DEFAULT '',
			system_prompt   TEXT NOT NULL,
			traits          TEXT NOT NULL DEFAULT '[]',
			attack_patterns TEXT NOT NULL DEFAULT '[]',
			active          BOOLEAN DEFAULT 1,
			created_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_personas_active ON personas(active)`,

		// One row per completed simulated negotiation; immutable after insert
		`CREATE TABLE IF NOT EXISTS battles (
			id                TEXT PRIMARY KEY,
			batch_id          TEXT NOT NULL,
			scenario_id       TEXT,
			persona_id        TEXT NOT NULL,
			tier              TEXT NOT NULL DEFAULT 'standard',
			referee_score     INTEGER NOT NULL,
			success_score     INTEGER NOT NULL,
			verbal_yes        BOOLEAN DEFAULT 0,
			conflict_resolved BOOLEAN DEFAULT 0,
			price_maintained  BOOLEAN DEFAULT 0,
			margin_integrity  REAL DEFAULT 0,
			calculated_profit REAL DEFAULT 0,
			cost_usd          REAL DEFAULT 0,
			transcript        TEXT NOT NULL DEFAULT '[]',
			winning_rebuttal  TEXT NOT NULL DEFAULT '',
			insight           TEXT NOT NULL DEFAULT '',
			created_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_battles_batch ON battles(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_battles_scenario ON battles(scenario_id)`,
		`CREATE INDEX IF NOT EXISTS idx_battles_created ON battles(created_at)`,

		// Scenario injections: one objection fanned out across many battles
		`CREATE TABLE IF NOT EXISTS scenario_injections (
			id                 TEXT PRIMARY KEY,
			objection          TEXT NOT NULL,
			status             TEXT NOT NULL DEFAULT 'pending',
			total_sessions     INTEGER NOT NULL,
			completed_sessions INTEGER NOT NULL DEFAULT 0,
			top_3_identified   BOOLEAN DEFAULT 0,
			created_at         INTEGER NOT NULL,
			completed_at       INTEGER
		)`,

		// Ranked winning rebuttals; rank unique per scenario
		`CREATE TABLE IF NOT EXISTS scenario_breakthroughs (
			id                TEXT PRIMARY KEY,
			scenario_id       TEXT NOT NULL,
			battle_id         TEXT NOT NULL,
			rank              INTEGER NOT NULL,
			referee_score     INTEGER NOT NULL,
			conflict_resolved BOOLEAN DEFAULT 0,
			price_maintained  BOOLEAN DEFAULT 0,
			winning_rebuttal  TEXT NOT NULL DEFAULT '',
			insight           TEXT NOT NULL DEFAULT '',
			created_at        INTEGER NOT NULL,
			UNIQUE(scenario_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_breakthroughs_scenario ON scenario_breakthroughs(scenario_id)`,

		// Production tactic set; at most one tactic per battle
		`CREATE TABLE IF NOT EXISTS tactics (
			id           TEXT PRIMARY KEY,
			battle_id    TEXT UNIQUE,
			rebuttal     TEXT NOT NULL,
			is_synthetic BOOLEAN DEFAULT 0,
			priority     INTEGER NOT NULL DEFAULT 5,
			active       BOOLEAN DEFAULT 0,
			created_at   INTEGER NOT NULL
		)`,

		// Append-only billing ledger — source of truth for daily spend
		`CREATE TABLE IF NOT EXISTS billing_ledger (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			env         TEXT NOT NULL,
			amount_usd  REAL NOT NULL,
			battle_id   TEXT,
			description TEXT,
			timestamp   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_env_ts ON billing_ledger(env, timestamp)`,

		// Kill switch singleton — persisted so a restart keeps the halt
		`CREATE TABLE IF NOT EXISTS kill_switch (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			active       BOOLEAN NOT NULL DEFAULT 0,
			activated_at INTEGER,
			activated_by TEXT
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
