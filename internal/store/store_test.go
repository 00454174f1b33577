package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/aprx/internal/rubric"
)

// testStore creates a temporary results database and registers cleanup.
func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), ".aprx", "results.db")
	s, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database and tables", func(t *testing.T) {
		t.Parallel()
		s := testStore(t)

		var mode string
		if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("query journal_mode: %v", err)
		}
		if mode != "wal" {
			t.Errorf("journal_mode = %q, want %q", mode, "wal")
		}

		tables := map[string]bool{"runs": false, "outcomes": false}
		rows, err := s.db.Query("SELECT name FROM sqlite_master WHERE type='table'")
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				t.Fatalf("scan table name: %v", err)
			}
			tables[name] = true
		}
		for name, found := range tables {
			if !found {
				t.Errorf("table %q not created", name)
			}
		}
	})

	t.Run("idempotent schema creation", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "results.db")
		for i := range 2 {
			s, err := Open(context.Background(), dbPath)
			if err != nil {
				t.Fatalf("open %d: %v", i, err)
			}
			s.Close()
		}
	})
}

func TestLatestRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	if _, err := s.LatestRun(ctx); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("LatestRun on empty store = %v, want ErrNoRuns", err)
	}

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	first := Run{ID: "r1", Dir: "/subs", Baseline: "tp1.toml", StartedAt: t0}
	second := Run{ID: "r2", Dir: "/subs", Baseline: "tp1.toml", StartedAt: t0.Add(500 * time.Millisecond)}
	for _, r := range []Run{second, first} {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun(%s): %v", r.ID, err)
		}
	}

	got, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("LatestRun mismatch (-want +got):\n%s", diff)
	}

	// Finishing the run updates the same row.
	second.FinishedAt = second.StartedAt.Add(time.Minute)
	second.Graded, second.Failed = 3, 1
	if err := s.RecordRun(ctx, second); err != nil {
		t.Fatalf("RecordRun(finish): %v", err)
	}
	got, err = s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("finished run mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ByID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	r := Run{ID: "r1", Dir: "/subs", Baseline: "tp1.toml", StartedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	if err := s.RecordRun(ctx, r); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	got, err := s.Run(ctx, "r1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("Run mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Run(ctx, "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Run(unknown) = %v, want ErrRunNotFound", err)
	}
}

func TestOutcomes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	if err := s.RecordRun(ctx, Run{ID: "r1", Dir: "/subs", StartedAt: time.Now()}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	bob := Outcome{
		RunID: "r1", Submission: "bob", Archive: "/subs/bob/tp1.aprx", Digest: "abc",
		Score: 2, MaxScore: 4,
		Checks: []rubric.CheckResult{
			{ID: "map-import", Kind: rubric.KindMapImport, Passed: true, Points: 2, Max: 2},
			{ID: "lakes-style", Kind: rubric.KindLayerStyle, Max: 2, Detail: "no enabled fill"},
		},
		GradedAt: at,
	}
	alice := Outcome{RunID: "r1", Submission: "alice", Error: "archive: not a zip", Checks: []rubric.CheckResult{}, GradedAt: at}

	for _, o := range []Outcome{bob, alice} {
		if err := s.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("RecordOutcome(%s): %v", o.Submission, err)
		}
	}

	got, err := s.Outcomes(ctx, "r1")
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if diff := cmp.Diff([]Outcome{alice, bob}, got); diff != "" {
		t.Errorf("Outcomes mismatch (-want +got):\n%s", diff)
	}

	// Regrading replaces the earlier outcome.
	bob.Score = 4
	bob.Checks[1].Passed, bob.Checks[1].Points, bob.Checks[1].Detail = true, 2, ""
	if err := s.RecordOutcome(ctx, bob); err != nil {
		t.Fatalf("RecordOutcome(regrade): %v", err)
	}
	got, err = s.Outcomes(ctx, "r1")
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(got) != 2 || got[1].Score != 4 || !got[1].Checks[1].Passed {
		t.Errorf("after regrade: %+v", got)
	}

	if other, err := s.Outcomes(ctx, "r2"); err != nil || len(other) != 0 {
		t.Errorf("Outcomes(unknown run) = %v, %v", other, err)
	}
}
