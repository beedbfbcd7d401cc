// Package tenant persists team records: the team id and its optional
// custom instructions used as a system prompt override. Teams are created
// on first contact and never hard-deleted here; dropping a team's vector
// collection is a separate storage operation.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown team.
var ErrNotFound = errors.New("team not found")

// Team is one tenant record.
type Team struct {
	ID           string
	Instructions string
}

// Store is a SQLite-backed team store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	team_id             TEXT PRIMARY KEY,
	custom_instructions TEXT NOT NULL DEFAULT '',
	created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);`

// Open opens (creating if needed) the team database at path and applies
// the schema. Parent directories are created. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("tenant: mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tenant: open %s: %w", path, err)
	}

	// Production-safe pragmas, applied via Exec so they work on any driver.
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("tenant: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tenant: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreate returns the team, inserting an empty record on first contact.
func (s *Store) GetOrCreate(ctx context.Context, teamID string) (*Team, error) {
	if teamID == "" {
		return nil, fmt.Errorf("tenant: empty team id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (team_id) VALUES (?) ON CONFLICT (team_id) DO NOTHING`, teamID)
	if err != nil {
		return nil, fmt.Errorf("tenant: create team %s: %w", teamID, err)
	}
	return s.Get(ctx, teamID)
}

// Get returns the team or ErrNotFound.
func (s *Store) Get(ctx context.Context, teamID string) (*Team, error) {
	var t Team
	err := s.db.QueryRowContext(ctx,
		`SELECT team_id, custom_instructions FROM teams WHERE team_id = ?`, teamID).
		Scan(&t.ID, &t.Instructions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("tenant: get team %s: %w", teamID, err)
	}
	return &t, nil
}

// SetInstructions updates the team's custom instructions, creating the
// team if needed.
func (s *Store) SetInstructions(ctx context.Context, teamID, instructions string) error {
	if teamID == "" {
		return fmt.Errorf("tenant: empty team id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (team_id, custom_instructions) VALUES (?, ?)
		 ON CONFLICT (team_id) DO UPDATE SET custom_instructions = excluded.custom_instructions`,
		teamID, instructions)
	if err != nil {
		return fmt.Errorf("tenant: set instructions for %s: %w", teamID, err)
	}
	return nil
}
