package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Persona Repository ─────────────────────────────────────────────────────

// UpsertPersona inserts or updates a persona record. Used by seeding/sync
// from the master persona set — battles themselves never write here.
func (d *DB) UpsertPersona(p domain.Persona) error {
	traits, err := json.Marshal(p.Traits)
	if err != nil {
		return err
	}
	attacks, err := json.Marshal(p.AttackPatterns)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO personas (id, name, category, system_prompt, traits, attack_patterns, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			category=excluded.category,
			system_prompt=excluded.system_prompt,
			traits=excluded.traits,
			attack_patterns=excluded.attack_patterns,
			active=excluded.active`,
		p.ID, p.Name, p.Category, p.SystemPrompt,
		string(traits), string(attacks), p.Active, p.CreatedAt.Unix(),
	)
	return err
}

// GetPersona retrieves a single persona by ID.
func (d *DB) GetPersona(id string) (*domain.Persona, error) {
	row := d.db.QueryRow(
		`SELECT id, name, category, system_prompt, traits, attack_patterns, active, created_at
		 FROM personas WHERE id = ?`, id,
	)
	return scanPersona(row)
}

// ListActivePersonas returns all active personas ordered by ID.
// The stable ordering makes round-robin selection deterministic.
func (d *DB) ListActivePersonas() ([]domain.Persona, error) {
	rows, err := d.db.Query(
		`SELECT id, name, category, system_prompt, traits, attack_patterns, active, created_at
		 FROM personas WHERE active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var personas []domain.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		personas = append(personas, *p)
	}
	return personas, rows.Err()
}

func scanPersona(s scanner) (*domain.Persona, error) {
	var p domain.Persona
	var traits, attacks string
	var createdAt int64

	err := s.Scan(&p.ID, &p.Name, &p.Category, &p.SystemPrompt,
		&traits, &attacks, &p.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPersonaNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(traits), &p.Traits); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(attacks), &p.AttackPatterns); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}
