package storage

import (
	"database/sql"
	"fmt"

	"call-auditor-go/internal/logger"
)

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of SQLite schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS call_analyses (
    call_id TEXT PRIMARY KEY,
    call_date TEXT NOT NULL,
    audit_date TEXT NOT NULL,
    duration_seconds REAL NOT NULL DEFAULT 0,
    agent_id TEXT NOT NULL DEFAULT '',
    agent_name TEXT NOT NULL DEFAULT '',
    customer_name TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT '',
    call_type TEXT NOT NULL DEFAULT '',
    transcription TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT 'unknown',
    call_summary TEXT NOT NULL DEFAULT '',
    overall_sentiment TEXT NOT NULL DEFAULT '',
    customer_sentiment TEXT NOT NULL DEFAULT '{}',
    agent_behavior TEXT NOT NULL DEFAULT '{}',
    compliance_risk TEXT NOT NULL DEFAULT '{}',
    question_scores TEXT NOT NULL DEFAULT '[]',
    total_score INTEGER NOT NULL DEFAULT 0,
    max_score INTEGER NOT NULL DEFAULT 0,
    overall_percentage REAL NOT NULL DEFAULT 0,
    customer_intent TEXT NOT NULL DEFAULT '',
    key_issues TEXT NOT NULL DEFAULT '[]',
    resolution_status TEXT NOT NULL DEFAULT '',
    follow_up_required INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_call_analyses_audit_date ON call_analyses(audit_date);
CREATE INDEX IF NOT EXISTS idx_call_analyses_call_date ON call_analyses(call_date);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "recording retention columns",
		Up: func(tx *sql.Tx) error {
			for _, stmt := range []string{
				`ALTER TABLE call_analyses ADD COLUMN audio_file_path TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE call_analyses ADD COLUMN recording_expires_at TEXT`,
				`CREATE INDEX IF NOT EXISTS idx_call_analyses_expiry ON call_analyses(recording_expires_at)`,
			} {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// getSchemaVersion reads PRAGMA user_version from the database.
func getSchemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// migrate brings the database schema up to the latest version.
func migrate(conn *sql.DB, log *logger.Logger) error {
	current, err := getSchemaVersion(conn)
	if err != nil {
		return err
	}
	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		log.WithField("version", m.Version).Infof("applying migration: %s", m.Description)

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		// modernc/sqlite does not allow user_version inside the transaction.
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			return fmt.Errorf("setting version %d: %w", m.Version, err)
		}
	}
	return nil
}
