package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/labelvault/internal/bip329"
)

// LabelRow represents a row in the labels table.
type LabelRow struct {
	Type      bip329.Type
	Ref       string
	Label     *string
	Origin    *string
	Spendable *bool
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Type    bip329.Type `json:"type"`
	Ref     string      `json:"ref"`
	Label   string      `json:"label"`
	Snippet string      `json:"snippet"`
}

// RowFromRecord flattens a record into its row form.
func RowFromRecord(rec bip329.Record) LabelRow {
	ref := rec.Ref()
	row := LabelRow{Type: ref.Type, Ref: ref.Value, UpdatedAt: time.Now()}
	if text, ok := rec.Text(); ok {
		row.Label = &text
	}
	switch r := rec.(type) {
	case bip329.TxRecord:
		row.Origin = r.Origin
	case bip329.OutputRecord:
		row.Spendable = r.Spendable
	}
	return row
}

// UpsertLabel inserts or replaces one label and its FTS entry.
func (db *DB) UpsertLabel(rec bip329.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsertRow(tx, RowFromRecord(rec)); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll swaps the whole index content for labels in one transaction.
func (db *DB) ReplaceAll(labels *bip329.Labels) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM labels`); err != nil {
		return fmt.Errorf("index: clear labels: %w", err)
	}
	ftsClear(tx)
	for rec := range labels.All() {
		if err := upsertRow(tx, RowFromRecord(rec)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertRow(tx *sql.Tx, row LabelRow) error {
	var spendable any
	if row.Spendable != nil {
		spendable = *row.Spendable
	}
	_, err := tx.Exec(`
		INSERT INTO labels (type, ref, label, origin, spendable, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, ref) DO UPDATE SET
			label      = excluded.label,
			origin     = excluded.origin,
			spendable  = excluded.spendable,
			updated_at = excluded.updated_at
	`, string(row.Type), row.Ref, row.Label, row.Origin, spendable, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert label: %w", err)
	}
	label := ""
	if row.Label != nil {
		label = *row.Label
	}
	return ftsUpsert(tx, string(row.Type), row.Ref, label)
}

// GetLabel returns the indexed row for ref, or nil when absent.
func (db *DB) GetLabel(ref bip329.Ref) (*LabelRow, error) {
	var (
		row       LabelRow
		typ       string
		label     sql.NullString
		origin    sql.NullString
		spendable sql.NullBool
	)
	err := db.conn.QueryRow(`
		SELECT type, ref, label, origin, spendable, updated_at
		FROM labels WHERE type = ? AND ref = ?
	`, string(ref.Type), ref.Value).Scan(&typ, &row.Ref, &label, &origin, &spendable, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get label: %w", err)
	}
	row.Type = bip329.Type(typ)
	if label.Valid {
		row.Label = &label.String
	}
	if origin.Valid {
		row.Origin = &origin.String
	}
	if spendable.Valid {
		row.Spendable = &spendable.Bool
	}
	return &row, nil
}

// Count returns the number of indexed labels.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM labels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
