package store

import (
	"context"
	"database/sql"
)

// schema contains the SQLite DDL for all tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS boards (
		id         TEXT PRIMARY KEY,
		subject    TEXT NOT NULL,
		date       TEXT NOT NULL,
		time       TEXT NOT NULL DEFAULT '',
		room       TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'pending',
		examiners  TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_date ON boards(date)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_status ON boards(status)`,

	`CREATE TABLE IF NOT EXISTS reminders (
		id           TEXT PRIMARY KEY,
		board_id     TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		hours_before INTEGER NOT NULL,
		sent         INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		sent_at      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_board_id ON reminders(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_sent ON reminders(sent)`,
}

// postgresSchema is the Postgres DDL. Examiners live in a JSONB column so
// examiner lookups can use containment.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS boards (
		id         TEXT PRIMARY KEY,
		subject    TEXT NOT NULL,
		date       TEXT NOT NULL,
		time       TEXT NOT NULL DEFAULT '',
		room       TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'pending',
		examiners  JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_date ON boards(date)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_examiners ON boards USING GIN (examiners)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id           TEXT PRIMARY KEY,
		board_id     TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		hours_before INTEGER NOT NULL,
		sent         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TEXT NOT NULL,
		sent_at      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_pending ON reminders(board_id) WHERE NOT sent`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
