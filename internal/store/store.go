// Package store persists grading runs and their per-submission outcomes in
// a local SQLite database so results survive the process and can be compared
// across runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/aprx/internal/rubric"
)

var (
	// ErrNoRuns is returned by LatestRun when nothing has been recorded yet.
	ErrNoRuns = errors.New("no grading runs recorded")

	// ErrRunNotFound is returned by Run for an unknown run id.
	ErrRunNotFound = errors.New("grading run not found")
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    dir         TEXT NOT NULL,
    baseline    TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT '',
    graded      INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id      TEXT NOT NULL REFERENCES runs(id),
    submission  TEXT NOT NULL,
    archive     TEXT NOT NULL DEFAULT '',
    digest      TEXT NOT NULL DEFAULT '',
    score       REAL NOT NULL DEFAULT 0,
    max_score   REAL NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    checks_json TEXT NOT NULL DEFAULT '[]',
    graded_at   TEXT NOT NULL,
    PRIMARY KEY (run_id, submission)
);

CREATE INDEX IF NOT EXISTS outcomes_digest ON outcomes(digest);
`

// Run is one invocation of the grader over a submissions directory.
type Run struct {
	ID         string
	Dir        string
	Baseline   string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	Graded     int
	Failed     int
}

// Outcome is the stored result for one submission of a run. Error is set
// when the submission could not be graded; Checks is empty then.
type Outcome struct {
	RunID      string
	Submission string
	Archive    string
	Digest     string
	Score      float64
	MaxScore   float64
	Error      string
	Checks     []rubric.CheckResult
	GradedAt   time.Time
}

// Store is a results database in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath, creating its directory,
// enables WAL mode and busy timeout, and creates the schema if needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite has a single writer; one pooled connection keeps the pragmas
	// below in effect for every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a run or replaces the row with the same id.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	const q = `
		INSERT INTO runs (id, dir, baseline, started_at, finished_at, graded, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dir = excluded.dir, baseline = excluded.baseline,
			started_at = excluded.started_at, finished_at = excluded.finished_at,
			graded = excluded.graded, failed = excluded.failed`
	_, err := s.db.ExecContext(ctx, q, r.ID, r.Dir, r.Baseline,
		formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Graded, r.Failed)
	if err != nil {
		return fmt.Errorf("store: record run %s: %w", r.ID, err)
	}
	return nil
}

// RecordOutcome upserts the outcome of a submission within its run.
func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	checks := o.Checks
	if checks == nil {
		checks = []rubric.CheckResult{}
	}
	data, err := json.Marshal(checks)
	if err != nil {
		return fmt.Errorf("store: encode checks for %s: %w", o.Submission, err)
	}
	if o.GradedAt.IsZero() {
		o.GradedAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO outcomes (run_id, submission, archive, digest, score, max_score, error, checks_json, graded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, submission) DO UPDATE SET
			archive = excluded.archive, digest = excluded.digest,
			score = excluded.score, max_score = excluded.max_score,
			error = excluded.error, checks_json = excluded.checks_json,
			graded_at = excluded.graded_at`
	_, err = s.db.ExecContext(ctx, q, o.RunID, o.Submission, o.Archive, o.Digest,
		o.Score, o.MaxScore, o.Error, string(data), formatTime(o.GradedAt))
	if err != nil {
		return fmt.Errorf("store: record outcome %s/%s: %w", o.RunID, o.Submission, err)
	}
	return nil
}

// Outcomes returns the outcomes of a run ordered by submission name.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	const q = `
		SELECT run_id, submission, archive, digest, score, max_score, error, checks_json, graded_at
		FROM outcomes WHERE run_id = ? ORDER BY submission`
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("store: outcomes of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o          Outcome
			checksJSON string
			gradedAt   string
		)
		if err := rows.Scan(&o.RunID, &o.Submission, &o.Archive, &o.Digest,
			&o.Score, &o.MaxScore, &o.Error, &checksJSON, &gradedAt); err != nil {
			return nil, fmt.Errorf("store: scan outcome: %w", err)
		}
		if err := json.Unmarshal([]byte(checksJSON), &o.Checks); err != nil {
			return nil, fmt.Errorf("store: decode checks of %s: %w", o.Submission, err)
		}
		if o.GradedAt, err = parseTime(gradedAt); err != nil {
			return nil, fmt.Errorf("store: outcome %s: %w", o.Submission, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate outcomes: %w", err)
	}
	return out, nil
}

// LatestRun returns the run with the most recent start time, or ErrNoRuns.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	const q = `
		SELECT id, dir, baseline, started_at, finished_at, graded, failed
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`
	r, err := scanRun(s.db.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: latest run: %w", err)
	}
	return r, nil
}

// Run returns the run with the given id, or ErrRunNotFound.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	const q = `
		SELECT id, dir, baseline, started_at, finished_at, graded, failed
		FROM runs WHERE id = ?`
	r, err := scanRun(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: run %s: %w", id, err)
	}
	return r, nil
}

func scanRun(row *sql.Row) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	if err := row.Scan(&r.ID, &r.Dir, &r.Baseline, &started, &finished, &r.Graded, &r.Failed); err != nil {
		return Run{}, err
	}
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("run %s: %w", r.ID, err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, fmt.Errorf("run %s: %w", r.ID, err)
	}
	return r, nil
}

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
