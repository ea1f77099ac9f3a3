// Package index provides a SQLite mirror of the label set for search, with
// optional FTS5 full-text matching.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is stored in PRAGMA user_version. The index only mirrors
// labels.jsonl, so a database written with another version is dropped and
// rebuilt by the next Sync rather than migrated.
const schemaVersion = 1

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS labels (
	type       TEXT NOT NULL,
	ref        TEXT NOT NULL,
	label      TEXT,
	origin     TEXT,
	spendable  INTEGER,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (type, ref)
);

CREATE INDEX IF NOT EXISTS idx_labels_type ON labels(type);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if err := resetStale(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: set schema version: %w", err)
	}
	return &DB{conn: conn}, nil
}

func resetStale(conn *sql.DB) error {
	var v int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return fmt.Errorf("index: read schema version: %w", err)
	}
	if v == 0 || v == schemaVersion {
		return nil
	}
	for _, table := range []string{"labels_fts", "labels"} {
		if _, err := conn.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("index: drop stale %s: %w", table, err)
		}
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.conn.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
