// Package testutil provides shared test helpers for setting up project stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/millwork/internal/storage"
)

// TestSQLite creates a temporary SQLite project store that is automatically cleaned up.
func TestSQLite(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "millwork-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFS creates a temporary data directory with a file-backed storage.Provider.
func TestFS(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "specs")
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
