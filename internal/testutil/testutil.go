// Package testutil provides shared test helpers for setting up label stores
// and index databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/labelvault/internal/index"
	"github.com/starford/labelvault/internal/labelstore"
)

// Txid is a well-formed transaction id for fixtures.
const Txid = "f91d0a8a78462bc59398f2c5d7a84fcff491c26ba54c4833478b202796c8aafd"

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "labelvault-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore opens a store on a fresh temporary data directory. When content
// is non-empty it is written to the label file first.
func TestStore(t *testing.T, content string) (string, *labelstore.Store) {
	t.Helper()
	dir := t.TempDir()
	if content != "" {
		if err := os.WriteFile(filepath.Join(dir, labelstore.FileName), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	store, err := labelstore.Open(dir, labelstore.WithLogger(Logger()))
	if err != nil {
		t.Fatalf("labelstore.Open: %v", err)
	}
	return dir, store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
