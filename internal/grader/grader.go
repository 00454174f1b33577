// Package grader grades a directory of submitted project archives against a
// baseline. Submissions are graded in parallel, each in its own project
// session; results are memoized by archive digest, streamed as telemetry
// events and persisted through a Recorder.
package grader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/aprx/internal/project"
	"github.com/papapumpkin/aprx/internal/rubric"
	"github.com/papapumpkin/aprx/internal/store"
	"github.com/papapumpkin/aprx/internal/telemetry"
)

// ErrNoArchive marks a submission directory without a matching archive.
var ErrNoArchive = errors.New("no archive in submission directory")

// Recorder persists runs and outcomes. Defined here (where consumed) per
// project convention rather than in the store package.
type Recorder interface {
	RecordRun(ctx context.Context, r store.Run) error
	RecordOutcome(ctx context.Context, o store.Outcome) error
}

// Options configures a Grader. Zero values select defaults.
type Options struct {
	Workers      int                // parallel submissions; default 4
	MemoSize     int                // results kept by digest; default 256
	WorkDir      string             // where archives are extracted; default OS temp
	Dir          string             // submissions directory, recorded with each run
	BaselineName string             // baseline file, recorded with each run
	Emitter      *telemetry.Emitter // may be nil
	Recorder     Recorder           // may be nil
	Log          io.Writer          // verbose progress; may be nil
}

// Outcome is the grading result of one submission.
type Outcome struct {
	RunID      string
	Submission Submission
	Digest     string
	Result     *rubric.Result // nil when Err is set
	Err        error
	Cached     bool // Result came from the digest memo
	Elapsed    time.Duration
}

// Grader grades submissions against one baseline. It is safe to call Run
// repeatedly; the digest memo persists across runs.
type Grader struct {
	baseline *rubric.Baseline
	opts     Options
	memo     *lru.Cache[string, *rubric.Result]
}

// New creates a Grader for b.
func New(b *rubric.Baseline, opts Options) (*Grader, error) {
	if b == nil {
		return nil, fmt.Errorf("grader: %w", rubric.ErrNoBaseline)
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.MemoSize < 1 {
		opts.MemoSize = 256
	}
	if opts.Log != nil {
		opts.Log = &lockedWriter{w: opts.Log}
	}
	memo, err := lru.New[string, *rubric.Result](opts.MemoSize)
	if err != nil {
		return nil, fmt.Errorf("grader: create memo: %w", err)
	}
	return &Grader{baseline: b, opts: opts, memo: memo}, nil
}

// Run grades subs with at most Workers in parallel and returns one Outcome
// per submission in input order. A submission that cannot be graded yields
// an Outcome with Err set; Run itself fails only when ctx is cancelled or
// the Recorder fails.
func (g *Grader) Run(ctx context.Context, subs []Submission) ([]Outcome, error) {
	run := store.Run{
		ID:        uuid.NewString(),
		Dir:       g.opts.Dir,
		Baseline:  g.opts.BaselineName,
		StartedAt: time.Now().UTC(),
	}
	if err := g.recordRun(ctx, run); err != nil {
		return nil, err
	}
	g.emit(telemetry.Event{Kind: telemetry.KindRunStart, RunID: run.ID, Data: map[string]any{
		"dir":         run.Dir,
		"baseline":    run.Baseline,
		"submissions": len(subs),
		"workers":     g.opts.Workers,
	}})
	g.logf("run %s: grading %d submissions with %d workers", run.ID, len(subs), g.opts.Workers)

	outcomes := make([]Outcome, len(subs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, sub := range subs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			o := g.grade(run.ID, sub)
			outcomes[i] = o
			g.report(o)
			return g.recordOutcome(egCtx, o)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("grader: run %s: %w", run.ID, err)
	}

	for _, o := range outcomes {
		if o.Err != nil {
			run.Failed++
		} else {
			run.Graded++
		}
	}
	run.FinishedAt = time.Now().UTC()
	if err := g.recordRun(ctx, run); err != nil {
		return nil, err
	}
	g.emit(telemetry.Event{Kind: telemetry.KindRunDone, RunID: run.ID, Data: map[string]any{
		"graded":     run.Graded,
		"failed":     run.Failed,
		"elapsed_ms": run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	}})
	g.logf("run %s: %d graded, %d failed", run.ID, run.Graded, run.Failed)
	return outcomes, nil
}

// grade opens, evaluates and closes one submission.
func (g *Grader) grade(runID string, sub Submission) (o Outcome) {
	start := time.Now()
	o = Outcome{RunID: runID, Submission: sub}
	defer func() { o.Elapsed = time.Since(start) }()

	if sub.Missing() {
		o.Err = fmt.Errorf("%w: %s", ErrNoArchive, sub.Dir)
		return o
	}

	digest, err := fileDigest(sub.Archive)
	if err != nil {
		o.Err = err
		return o
	}
	o.Digest = digest

	if res, ok := g.memo.Get(digest); ok {
		o.Result, o.Cached = res, true
		return o
	}

	opts := []project.Option{project.WithWorkDir(g.opts.WorkDir)}
	if g.opts.Log != nil {
		opts = append(opts, project.WithLog(g.opts.Log))
	}
	p, err := project.Open(sub.Archive, opts...)
	if err != nil {
		o.Err = err
		return o
	}
	defer p.Close()

	o.Result = rubric.Evaluate(p, g.baseline)
	g.memo.Add(digest, o.Result)
	return o
}

// report emits the telemetry event for a finished submission.
func (g *Grader) report(o Outcome) {
	evt := telemetry.Event{RunID: o.RunID, Submission: o.Submission.Name}
	switch {
	case errors.Is(o.Err, ErrNoArchive):
		evt.Kind = telemetry.KindSubmissionMissing
		evt.Data = map[string]any{"dir": o.Submission.Dir}
	case o.Err != nil:
		evt.Kind = telemetry.KindSubmissionFailed
		evt.Data = map[string]any{"archive": o.Submission.Archive, "error": o.Err.Error()}
	default:
		evt.Kind = telemetry.KindSubmissionGraded
		if o.Cached {
			evt.Kind = telemetry.KindSubmissionCached
		}
		data := map[string]any{
			"archive":   o.Submission.Archive,
			"digest":    o.Digest,
			"score":     o.Result.Score,
			"max_score": o.Result.MaxScore,
			"failed":    o.Result.Failed(),
		}
		if o.Submission.Ambiguous() {
			data["candidates"] = o.Submission.Candidates
		}
		evt.Data = data
	}
	g.emit(evt)
	if o.Submission.Ambiguous() {
		g.logf("%s: %d archives found, %s used", o.Submission.Name, o.Submission.Candidates, filepath.Base(o.Submission.Archive))
	}
	if o.Err != nil {
		g.logf("%s: %v", o.Submission.Name, o.Err)
	} else {
		g.logf("%s: %g/%g", o.Submission.Name, o.Result.Score, o.Result.MaxScore)
	}
}

func (g *Grader) recordRun(ctx context.Context, r store.Run) error {
	if g.opts.Recorder == nil {
		return nil
	}
	if err := g.opts.Recorder.RecordRun(ctx, r); err != nil {
		return fmt.Errorf("grader: %w", err)
	}
	return nil
}

func (g *Grader) recordOutcome(ctx context.Context, o Outcome) error {
	if g.opts.Recorder == nil {
		return nil
	}
	return g.opts.Recorder.RecordOutcome(ctx, toStored(o))
}

func toStored(o Outcome) store.Outcome {
	so := store.Outcome{
		RunID:      o.RunID,
		Submission: o.Submission.Name,
		Archive:    o.Submission.Archive,
		Digest:     o.Digest,
		GradedAt:   time.Now().UTC(),
	}
	if o.Err != nil {
		so.Error = o.Err.Error()
		return so
	}
	so.Score = o.Result.Score
	so.MaxScore = o.Result.MaxScore
	so.Checks = o.Result.Checks
	return so
}

// emit writes to the optional emitter. Telemetry failures never fail a run.
func (g *Grader) emit(evt telemetry.Event) {
	if err := g.opts.Emitter.Emit(evt); err != nil {
		g.logf("telemetry: %v", err)
	}
}

func (g *Grader) logf(format string, args ...any) {
	if g.opts.Log == nil {
		return
	}
	fmt.Fprintf(g.opts.Log, "[aprx] "+format+"\n", args...)
}

// lockedWriter serializes writes from parallel workers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
