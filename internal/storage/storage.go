// Package storage provides SQLite-backed persistence for league snapshots,
// so weekly standings/fixture updates survive between runs.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lmoroni/dropzone/internal/league"
)

// Store wraps a SQLite database holding league snapshots. Simulation runs
// are never persisted, only their input data.
type Store struct {
	db           *sql.DB
	maxSnapshots int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/dropzone/data.db.
func New(maxSnapshots int, dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "dropzone", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Store{db: db, maxSnapshots: maxSnapshots}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id          TEXT PRIMARY KEY,
			league      TEXT NOT NULL,
			season      TEXT NOT NULL,
			matchday    INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_teams (
			snapshot_id   TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			name          TEXT NOT NULL,
			points        INTEGER NOT NULL,
			goals_for     INTEGER NOT NULL,
			goals_against INTEGER NOT NULL,
			form          TEXT,
			PRIMARY KEY (snapshot_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_fixtures (
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			home        TEXT NOT NULL,
			away        TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_updated_at ON snapshots(updated_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot validates and persists a snapshot, returning its generated
// ID. Snapshots beyond the retention limit are pruned, oldest first.
func (s *Store) SaveSnapshot(snap *league.Snapshot) (string, error) {
	if err := snap.Validate(); err != nil {
		return "", fmt.Errorf("invalid snapshot: %w", err)
	}

	id := uuid.NewString()
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(
		`INSERT INTO snapshots (id, league, season, matchday, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, snap.League, snap.Season, snap.Matchday, updatedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for name, stats := range snap.Teams {
		var formJSON interface{}
		if record, ok := snap.Form[name]; ok {
			encoded, err := json.Marshal(record)
			if err != nil {
				return "", fmt.Errorf("failed to encode form for %s: %w", name, err)
			}
			formJSON = string(encoded)
		}
		_, err = tx.Exec(
			`INSERT INTO snapshot_teams (snapshot_id, name, points, goals_for, goals_against, form)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, name, stats.Points, stats.GoalsFor, stats.GoalsAgainst, formJSON,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert team %s: %w", name, err)
		}
	}

	for i, f := range snap.Fixtures {
		_, err = tx.Exec(
			`INSERT INTO snapshot_fixtures (snapshot_id, position, home, away) VALUES (?, ?, ?, ?)`,
			id, i, f.Home, f.Away,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert fixture %d: %w", i, err)
		}
	}

	if s.maxSnapshots > 0 {
		_, err = tx.Exec(
			`DELETE FROM snapshots WHERE id NOT IN (
				SELECT id FROM snapshots ORDER BY updated_at DESC, rowid DESC LIMIT ?
			)`, s.maxSnapshots,
		)
		if err != nil {
			return "", fmt.Errorf("failed to prune old snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// LoadSnapshot loads one snapshot by ID.
func (s *Store) LoadSnapshot(id string) (*league.Snapshot, error) {
	snap := &league.Snapshot{
		Teams:    make(map[string]league.TeamStats),
		Form:     make(map[string][]int),
		Fixtures: nil,
	}

	var updatedAt int64
	err := s.db.QueryRow(
		`SELECT league, season, matchday, updated_at FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.League, &snap.Season, &snap.Matchday, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap.UpdatedAt = time.Unix(updatedAt, 0)

	rows, err := s.db.Query(
		`SELECT name, points, goals_for, goals_against, form FROM snapshot_teams WHERE snapshot_id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var stats league.TeamStats
		var formJSON sql.NullString
		if err := rows.Scan(&name, &stats.Points, &stats.GoalsFor, &stats.GoalsAgainst, &formJSON); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		snap.Teams[name] = stats
		if formJSON.Valid {
			var record []int
			if err := json.Unmarshal([]byte(formJSON.String), &record); err != nil {
				return nil, fmt.Errorf("failed to decode form for %s: %w", name, err)
			}
			snap.Form[name] = record
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}

	fixtureRows, err := s.db.Query(
		`SELECT home, away FROM snapshot_fixtures WHERE snapshot_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	defer fixtureRows.Close()
	for fixtureRows.Next() {
		var f league.Fixture
		if err := fixtureRows.Scan(&f.Home, &f.Away); err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		snap.Fixtures = append(snap.Fixtures, f)
	}
	if err := fixtureRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fixtures: %w", err)
	}

	if len(snap.Form) == 0 {
		snap.Form = nil
	}
	return snap, nil
}

// LoadLatest loads the most recently updated snapshot.
func (s *Store) LoadLatest() (*league.Snapshot, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM snapshots ORDER BY updated_at DESC, rowid DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no snapshots stored")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest snapshot: %w", err)
	}
	return s.LoadSnapshot(id)
}

// Count returns the number of stored snapshots.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
