//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS labels_fts USING fts5(
			type UNINDEXED,
			ref,
			label,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, typ, ref, label string) error {
	if _, err := tx.Exec(`DELETE FROM labels_fts WHERE type = ? AND ref = ?`, typ, ref); err != nil {
		return fmt.Errorf("index: clear fts row: %w", err)
	}
	_, err := tx.Exec(`INSERT INTO labels_fts (type, ref, label) VALUES (?, ?, ?)`, typ, ref, label)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsClear(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM labels_fts`)
}

// Search performs an FTS5 full-text search and returns matching labels with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT type,
		       ref,
		       label,
		       snippet(labels_fts, 2, '<b>', '</b>', '...', 32)
		FROM labels_fts
		WHERE labels_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Type, &r.Ref, &r.Label, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
