package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// schemaVersion is the current expected schema version.
const schemaVersion = 2

// migration represents a single schema migration step.
type migration struct {
	Version     int
	Description string
	SQL         string
}

// Tables carry a responder_ prefix because the database file may be the
// host's own database, passed as the fourth invocation argument.
var migrations = []migration{
	{
		Version:     1,
		Description: "base schema: contacts, invocations",
		SQL: `
		CREATE TABLE IF NOT EXISTS responder_contacts (
			database_id  INTEGER PRIMARY KEY,
			display_name TEXT NOT NULL,
			address      TEXT NOT NULL,
			last_seen    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS responder_invocations (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			mode         TEXT NOT NULL,
			sender_id    INTEGER NOT NULL,
			group_id     INTEGER,
			message_body TEXT NOT NULL,
			outcome      TEXT NOT NULL,
			created_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_responder_invocations_time ON responder_invocations(created_at);
		`,
	},
	{
		Version:     2,
		Description: "v2: rule name on invocations, address lookup index",
		SQL: `
		ALTER TABLE responder_invocations ADD COLUMN rule TEXT DEFAULT '';
		CREATE INDEX IF NOT EXISTS idx_responder_contacts_address ON responder_contacts(address);
		`,
	},
}

// RunMigrations applies every migration newer than the recorded version, each
// in its own transaction.
func RunMigrations(db *sql.DB, logger zerolog.Logger) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS responder_schema_version (
		version    INTEGER NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	current, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(`INSERT INTO responder_schema_version (version) VALUES (?)`, m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		logger.Debug().Int("version", m.Version).Str("description", m.Description).Msg("applied migration")
	}
	return nil
}

// GetSchemaVersion returns the highest applied migration, 0 for a fresh database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM responder_schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(version.Int64), nil
}
