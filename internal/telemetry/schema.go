package telemetry

import (
	"database/sql"

	"github.com/h3platform/pciemon/internal/errors"
)

const (
	schemaVersion = 1

	createTablesSQL = `
	CREATE TABLE IF NOT EXISTS schema_versions (
	    version     INTEGER PRIMARY KEY,
	    applied_at  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS domains (
	    id    INTEGER PRIMARY KEY AUTOINCREMENT,
	    name  TEXT NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS schemas (
	    id         INTEGER PRIMARY KEY AUTOINCREMENT,
	    domain_id  INTEGER NOT NULL REFERENCES domains(id),
	    fields     TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS counters (
	    id         INTEGER PRIMARY KEY AUTOINCREMENT,
	    domain_id  INTEGER NOT NULL REFERENCES domains(id),
	    schema_id  INTEGER NOT NULL REFERENCES schemas(id),
	    name       TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS samples (
	    timestamp   INTEGER NOT NULL,
	    counter_id  INTEGER NOT NULL REFERENCES counters(id),
	    v0          REAL NOT NULL,
	    v1          REAL NOT NULL,
	    v2          REAL NOT NULL,
	    v3          REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_samples_counter
	    ON samples(counter_id, timestamp);`

	insertSampleSQL = `
	INSERT INTO samples (timestamp, counter_id, v0, v1, v2, v3)
	VALUES (?, ?, ?, ?, ?, ?)`
)

// initSchema creates the sink tables and records the schema version.
func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
	INSERT INTO schema_versions (version, applied_at)
	VALUES (?, datetime('now'))
	ON CONFLICT(version) DO NOTHING
	`, schemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	return nil
}
