// Package store persists judging sessions (spec.md's ambient history
// feature, SPEC_FULL.md §6.2) to SQLite so `cpjudge history` can report
// timing trends across runs. It is adapted from the teacher's
// storage.SQLiteStorage: same schema-migration and prepared-statement
// idiom, repointed at sessions/case_timings instead of suites/results.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jpequegn/cpjudge/internal/history"
	"github.com/jpequegn/cpjudge/internal/judging"
)

func judgingVerdictKind(n int) judging.VerdictKind {
	return judging.VerdictKind(n)
}

// Store persists and retrieves judging Sessions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path and
// ensures its schema is up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		suite TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_suite ON sessions(suite);
	CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp);

	CREATE TABLE IF NOT EXISTS case_timings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		verdict INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_case_timings_session_id ON case_timings(session_id);
	CREATE INDEX IF NOT EXISTS idx_case_timings_name ON case_timings(name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating history schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one completed session.
func (s *Store) Save(sess history.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`INSERT INTO sessions (suite, timestamp) VALUES (?, ?)`, sess.Suite, sess.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	sessionID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading session id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO case_timings (session_id, name, verdict, elapsed_ns) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range sess.Timings {
		if _, err := stmt.Exec(sessionID, t.Name, int(t.Verdict), t.Elapsed.Nanoseconds()); err != nil {
			return fmt.Errorf("inserting case timing: %w", err)
		}
	}

	return tx.Commit()
}

// GetHistory returns the most recent sessions for suite, oldest first
// (ready to feed directly into history.Aggregate / DetectRegressions).
// limit <= 0 means unlimited.
func (s *Store) GetHistory(suite string, limit int) ([]history.Session, error) {
	query := `SELECT id, timestamp FROM sessions WHERE suite = ? ORDER BY timestamp DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, suite)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	type idTs struct {
		id int64
		ts time.Time
	}
	var ordered []idTs
	for rows.Next() {
		var r idTs
		if err := rows.Scan(&r.id, &r.ts); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		ordered = append(ordered, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]history.Session, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		r := ordered[i]
		timings, err := s.loadTimings(r.id)
		if err != nil {
			return nil, err
		}
		sessions[len(ordered)-1-i] = history.Session{ID: r.id, Suite: suite, Timestamp: r.ts, Timings: timings}
	}
	return sessions, nil
}

func (s *Store) loadTimings(sessionID int64) ([]history.CaseTiming, error) {
	rows, err := s.db.Query(`SELECT name, verdict, elapsed_ns FROM case_timings WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying case timings: %w", err)
	}
	defer rows.Close()

	var timings []history.CaseTiming
	for rows.Next() {
		var t history.CaseTiming
		var verdict int
		var elapsedNs int64
		if err := rows.Scan(&t.Name, &verdict, &elapsedNs); err != nil {
			return nil, fmt.Errorf("scanning case timing: %w", err)
		}
		t.Verdict = judgingVerdictKind(verdict)
		t.Elapsed = time.Duration(elapsedNs)
		timings = append(timings, t)
	}
	return timings, rows.Err()
}

// GetLatest returns the most recently recorded session for suite, or
// nil if none exist.
func (s *Store) GetLatest(suite string) (*history.Session, error) {
	sessions, err := s.GetHistory(suite, 1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// Cleanup deletes sessions older than retentionDays.
func (s *Store) Cleanup(retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("retention days must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.Exec(`DELETE FROM sessions WHERE timestamp < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up old sessions: %w", err)
	}
	return nil
}
