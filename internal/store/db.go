// Package store persists the CRM entities (pipelines, stages, leads, stage
// history, tags, settings, API keys) in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrNoStages is returned when a lead is created into a pipeline whose
	// stage list is empty and no explicit stage was given.
	ErrNoStages = errors.New("pipeline has no stages")
)

// Schema is applied at open; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS api_keys (
	key_hash   TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pipelines (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pipelines_user ON pipelines(user_id);

CREATE TABLE IF NOT EXISTS stages (
	id            TEXT PRIMARY KEY,
	pipeline_id   TEXT NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	color         TEXT NOT NULL DEFAULT '',
	order_index   INTEGER NOT NULL,
	default_value REAL
);
CREATE INDEX IF NOT EXISTS idx_stages_pipeline ON stages(pipeline_id);

CREATE TABLE IF NOT EXISTS leads (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	pipeline_id   TEXT NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
	stage_id      TEXT REFERENCES stages(id) ON DELETE SET NULL,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	company       TEXT NOT NULL DEFAULT '',
	origin        TEXT NOT NULL DEFAULT 'manual',
	utm_source    TEXT NOT NULL DEFAULT '',
	utm_medium    TEXT NOT NULL DEFAULT '',
	utm_campaign  TEXT NOT NULL DEFAULT '',
	utm_term      TEXT NOT NULL DEFAULT '',
	utm_content   TEXT NOT NULL DEFAULT '',
	custom_fields TEXT NOT NULL DEFAULT '{}',
	assigned_to   TEXT NOT NULL DEFAULT '',
	deal_value    REAL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_pipeline ON leads(pipeline_id);
CREATE INDEX IF NOT EXISTS idx_leads_stage ON leads(stage_id);
CREATE INDEX IF NOT EXISTS idx_leads_user_email ON leads(user_id, email);
CREATE INDEX IF NOT EXISTS idx_leads_created ON leads(created_at);

CREATE TABLE IF NOT EXISTS stage_history (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	from_stage_id TEXT,
	to_stage_id   TEXT NOT NULL,
	moved_at      TEXT NOT NULL,
	moved_by      TEXT NOT NULL DEFAULT 'user'
);
CREATE INDEX IF NOT EXISTS idx_history_lead ON stage_history(lead_id);
CREATE INDEX IF NOT EXISTS idx_history_to_stage ON stage_history(to_stage_id);

CREATE TABLE IF NOT EXISTS tags (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name    TEXT NOT NULL,
	color   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tags_user ON tags(user_id);

CREATE TABLE IF NOT EXISTS lead_tags (
	lead_id TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (lead_id, tag_id)
);

CREATE TABLE IF NOT EXISTS settings (
	user_id    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, key)
);
`

// Store wraps the database handle. It is opened once per process and passed
// in explicitly; nothing here lazily re-opens connections.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path, applies the standard
// pragmas and bootstraps the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RunTx executes fn inside a transaction, rolling back on error.
func (s *Store) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
