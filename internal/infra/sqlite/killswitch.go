package sqlite

import (
	"database/sql"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Kill Switch ────────────────────────────────────────────────────────────
// Singleton row (id = 1). Persisting the flag means a restart keeps an
// emergency halt in place instead of silently resuming training.

// KillSwitch returns the current kill-switch state. A missing row means
// the switch has never been touched and is inactive.
func (d *DB) KillSwitch() (domain.KillSwitchState, error) {
	var st domain.KillSwitchState
	var activatedAt sql.NullInt64
	var activatedBy sql.NullString

	err := d.db.QueryRow(
		`SELECT active, activated_at, activated_by FROM kill_switch WHERE id = 1`,
	).Scan(&st.Active, &activatedAt, &activatedBy)
	if err == sql.ErrNoRows {
		return domain.KillSwitchState{}, nil
	}
	if err != nil {
		return domain.KillSwitchState{}, err
	}

	if activatedAt.Valid {
		st.ActivatedAt = time.Unix(activatedAt.Int64, 0)
	}
	if activatedBy.Valid {
		st.ActivatedBy = activatedBy.String
	}
	return st, nil
}

// SetKillSwitch writes the kill-switch state.
func (d *DB) SetKillSwitch(st domain.KillSwitchState) error {
	var at sql.NullInt64
	if !st.ActivatedAt.IsZero() {
		at = sql.NullInt64{Int64: st.ActivatedAt.Unix(), Valid: true}
	}
	_, err := d.db.Exec(
		`INSERT INTO kill_switch (id, active, activated_at, activated_by)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			active=excluded.active,
			activated_at=excluded.activated_at,
			activated_by=excluded.activated_by`,
		st.Active, at, nullableString(st.ActivatedBy),
	)
	return err
}
