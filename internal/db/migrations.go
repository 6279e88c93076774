package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS trainers (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id                  TEXT PRIMARY KEY,
			session_day         DATE NOT NULL,
			starts_at           TEXT NOT NULL,
			ends_at             TEXT NOT NULL,
			duration            INTEGER NOT NULL CHECK(duration > 0),
			status              TEXT NOT NULL CHECK(status IN ('available', 'scheduled', 'confirmed', 'completed', 'cancelled', 'blocked', 'requested')),
			trainer_id          TEXT NOT NULL DEFAULT '',
			trainer_name        TEXT NOT NULL DEFAULT '',
			client_id           TEXT NOT NULL DEFAULT '',
			client_name         TEXT NOT NULL DEFAULT '',
			location            TEXT NOT NULL DEFAULT '',
			buffer_before       INTEGER NOT NULL DEFAULT 0 CHECK(buffer_before >= 0),
			buffer_after        INTEGER NOT NULL DEFAULT 0 CHECK(buffer_after >= 0),
			is_blocked          INTEGER NOT NULL DEFAULT 0,
			recurring_group_id  TEXT NOT NULL DEFAULT '',
			cancelled_by        TEXT NOT NULL DEFAULT '',
			cancellation_reason TEXT NOT NULL DEFAULT '',
			cancelled_at        TEXT,
			created_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_day ON sessions(session_day);
		CREATE INDEX IF NOT EXISTS idx_sessions_trainer ON sessions(trainer_id, starts_at);
		CREATE INDEX IF NOT EXISTS idx_sessions_group ON sessions(recurring_group_id);

		CREATE TABLE IF NOT EXISTS availability_blocks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			trainer_id TEXT NOT NULL,
			starts_at  TEXT NOT NULL,
			ends_at    TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_blocks_trainer ON availability_blocks(trainer_id, starts_at);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
