package storage

import "database/sql"

// migrateV001 creates the initial schema: the card index and named
// counters. Every statement uses IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			filename    TEXT PRIMARY KEY,
			id          TEXT NOT NULL,
			name        TEXT NOT NULL,
			actor       TEXT NOT NULL DEFAULT '',
			action      TEXT NOT NULL DEFAULT '',
			achievement TEXT NOT NULL DEFAULT '',
			criteria    TEXT NOT NULL DEFAULT '',
			done_when   TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS counters (
			name       TEXT PRIMARY KEY,
			value      INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_cards_id ON cards(id)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards(created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
