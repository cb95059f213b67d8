package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			candidate_id TEXT NOT NULL,
			state        TEXT NOT NULL DEFAULT 'active',
			started_at   TEXT NOT NULL,
			completed_at TEXT
		)`,

		// The UNIQUE constraint on (session_id, sequence_number) is the
		// backstop for the store-owned sequence counter: two appends can
		// never commit the same number for one session.
		`CREATE TABLE IF NOT EXISTS events (
			id              TEXT PRIMARY KEY,
			session_id      TEXT NOT NULL REFERENCES sessions(id),
			sequence_number INTEGER NOT NULL,
			timestamp       TEXT NOT NULL,
			category        TEXT NOT NULL,
			event_type      TEXT NOT NULL,
			payload         TEXT NOT NULL,
			checkpoint      BOOLEAN NOT NULL DEFAULT false,
			file_path       TEXT,
			UNIQUE (session_id, sequence_number)
		)`,

		`CREATE TABLE IF NOT EXISTS artifacts (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id        TEXT NOT NULL,
			checksum        TEXT NOT NULL,
			size            INTEGER NOT NULL,
			compressed_size INTEGER NOT NULL,
			created_at      TEXT NOT NULL,
			UNIQUE (owner_id, checksum)
		)`,

		// Evaluations are append-only: regeneration inserts a fresh row.
		`CREATE TABLE IF NOT EXISTS evaluations (
			id            TEXT PRIMARY KEY,
			session_id    TEXT NOT NULL REFERENCES sessions(id),
			generated_at  TEXT NOT NULL,
			overall_score REAL NOT NULL,
			payload       TEXT NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_events_session_seq ON events(session_id, sequence_number)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_checkpoint ON events(session_id, checkpoint, sequence_number)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_category ON events(session_id, category)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_owner ON artifacts(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_session ON evaluations(session_id, generated_at)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
