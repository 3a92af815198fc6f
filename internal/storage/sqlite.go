package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/millwork/internal/checksum"
	"github.com/starford/millwork/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	spec       TEXT NOT NULL DEFAULT '[]',
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements Provider with one row per project.
type SQLite struct {
	conn *sql.DB
}

// Verify *SQLite satisfies Provider at compile time.
var _ Provider = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// List returns metadata for every stored project ordered by id.
func (s *SQLite) List() ([]models.ProjectMeta, error) {
	rows, err := s.conn.Query(`SELECT id, checksum, updated_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectMeta
	for rows.Next() {
		var m models.ProjectMeta
		if err := rows.Scan(&m.ID, &m.Checksum, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: list scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Read returns the stored blob for id.
func (s *SQLite) Read(id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var spec string
	err := s.conn.QueryRow(`SELECT spec FROM projects WHERE id = ?`, id).Scan(&spec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: read %s: %w", id, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	return []byte(spec), nil
}

// Write inserts or replaces the blob for id.
func (s *SQLite) Write(id string, data []byte) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	_, err := s.conn.Exec(`
		INSERT INTO projects (id, spec, checksum, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			spec = excluded.spec,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at`,
		id, string(data), checksum.Sum(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", id, err)
	}
	return nil
}

// Delete removes the blob for id.
func (s *SQLite) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	res, err := s.conn.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage: delete %s: %w", id, os.ErrNotExist)
	}
	return nil
}
