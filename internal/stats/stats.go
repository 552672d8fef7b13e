// Package stats records session outcomes in a local sqlite database so
// users can see how the tool is actually performing for them.
package stats

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/keyglide/keyglide/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	candidates  INTEGER NOT NULL,
	keystrokes  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_at ON sessions(at);
`

// Store persists session results.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	// One writer; sqlite serializes anyway and this avoids lock errors.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init stats schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one finished session.
func (s *Store) Record(r engine.Result) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, mode, outcome, candidates, keystrokes, duration_ms, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Mode.String(), r.Outcome, r.Candidates, r.Keystrokes,
		r.Duration.Milliseconds(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// ModeSummary aggregates sessions of one mode.
type ModeSummary struct {
	Mode          string  `json:"mode" yaml:"mode"`
	Sessions      int     `json:"sessions" yaml:"sessions"`
	Selected      int     `json:"selected" yaml:"selected"`
	Cancelled     int     `json:"cancelled" yaml:"cancelled"`
	AvgKeystrokes float64 `json:"avg_keystrokes" yaml:"avg_keystrokes"`
	AvgDurationMS float64 `json:"avg_duration_ms" yaml:"avg_duration_ms"`
}

// Summary aggregates recorded sessions per mode over the trailing window.
func (s *Store) Summary(window time.Duration) ([]ModeSummary, error) {
	since := time.Now().UTC().Add(-window).Format(time.RFC3339)
	rows, err := s.db.Query(
		`SELECT mode,
		        COUNT(*),
		        SUM(CASE WHEN outcome = 'selected' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN outcome = 'cancelled' THEN 1 ELSE 0 END),
		        AVG(keystrokes),
		        AVG(duration_ms)
		 FROM sessions WHERE at >= ? GROUP BY mode ORDER BY mode`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []ModeSummary
	for rows.Next() {
		var m ModeSummary
		if err := rows.Scan(&m.Mode, &m.Sessions, &m.Selected, &m.Cancelled, &m.AvgKeystrokes, &m.AvgDurationMS); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
