package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/aprx/internal/config"
	"github.com/papapumpkin/aprx/internal/grader"
	"github.com/papapumpkin/aprx/internal/mapview"
	"github.com/papapumpkin/aprx/internal/rubric"
	"github.com/papapumpkin/aprx/internal/store"
	"github.com/papapumpkin/aprx/internal/telemetry"
	"github.com/papapumpkin/aprx/internal/ui"
	"github.com/papapumpkin/aprx/internal/watch"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <dir>",
	Short: "Grade every submission in a directory against a baseline",
	Long: `Grades the project archives below <dir>: one subdirectory per student holding
an archive, or archives stored directly in <dir>. Results are stored in the
results database and each run writes a JSONL telemetry file.

With --watch, grade keeps running and re-grades an archive whenever it changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().String("baseline", "", "baseline file (default from config)")
	gradeCmd.Flags().Int("workers", 0, "submissions graded in parallel (default from config)")
	gradeCmd.Flags().String("tsv", "", "also write the scores as TSV to this file")
	gradeCmd.Flags().Bool("watch", false, "keep running and re-grade changed archives")
	gradeCmd.Flags().Bool("details", false, "list failing checks and warnings per submission")
	rootCmd.AddCommand(gradeCmd)
}

// gradeSession holds what a grade command needs across runs.
type gradeSession struct {
	dir      string
	glob     string
	tsvPath  string
	details  bool
	baseline *rubric.Baseline
	grader   *grader.Grader
	emitter  *telemetry.Emitter
	printer  *ui.Printer
	outcomes []grader.Outcome
}

func runGrade(cmd *cobra.Command, args []string) error {
	printer := ui.New(cmd.ErrOrStderr())
	dir := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("baseline"); v != "" {
		cfg.Baseline = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.Workers = v
	}

	b, err := loadBaseline(printer, cfg.Baseline)
	if err != nil {
		return err
	}
	if b.Tolerance == (mapview.Tolerance{}) {
		b.Tolerance = cfg.Tolerance
	}

	ctx, cancel := setupSignalContext(cmd.Context(), printer)
	defer cancel()

	st, err := store.Open(ctx, cfg.ResultsDB)
	if err != nil {
		return err
	}
	defer st.Close()

	emitter, err := telemetry.NewRunEmitter(cfg.TelemetryDir, "grade-"+time.Now().UTC().Format("20060102T150405Z"))
	if err != nil {
		return err
	}
	defer emitter.Close()

	opts := grader.Options{
		Workers:      cfg.Workers,
		MemoSize:     cfg.MemoSize,
		WorkDir:      cfg.WorkDir,
		Dir:          dir,
		BaselineName: cfg.Baseline,
		Emitter:      emitter,
		Recorder:     st,
	}
	if cfg.Verbose {
		opts.Log = cmd.ErrOrStderr()
	}
	g, err := grader.New(b, opts)
	if err != nil {
		return err
	}

	s := &gradeSession{
		dir:      dir,
		glob:     cfg.ArchiveGlob,
		baseline: b,
		grader:   g,
		emitter:  emitter,
		printer:  printer,
	}
	s.tsvPath, _ = cmd.Flags().GetString("tsv")
	s.details, _ = cmd.Flags().GetBool("details")

	subs, err := grader.Discover(dir, cfg.ArchiveGlob)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		printer.Warn(fmt.Sprintf("no submissions found in %s", dir))
	}
	s.outcomes, err = g.Run(ctx, subs)
	if err != nil {
		return err
	}
	title := b.Title
	if title == "" {
		title = filepath.Base(cfg.Baseline)
	}
	printer.Report(title, s.outcomes, s.details)
	if err := s.writeTSV(); err != nil {
		return err
	}
	printer.Info(fmt.Sprintf("telemetry: %s", emitter.Path()))

	if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
		return s.watch(ctx)
	}
	return nil
}

// loadBaseline reads and validates the baseline at path, reporting problems
// through printer.
func loadBaseline(printer *ui.Printer, path string) (*rubric.Baseline, error) {
	b, err := rubric.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := b.Validate(); len(errs) > 0 {
		printer.ValidateResult(path, len(b.Criteria), errs)
		return nil, fmt.Errorf("baseline %s: validation failed with %d error(s)", path, len(errs))
	}
	return b, nil
}

// watch re-grades each archive that changes below the session directory
// until ctx is cancelled.
func (s *gradeSession) watch(ctx context.Context) error {
	w, err := watch.New(s.dir, func(path string) bool {
		_, ok := grader.MatchArchive(s.dir, s.glob, path)
		return ok
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()
	s.printer.Info(fmt.Sprintf("watching %s for changes (ctrl-c to stop)", s.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if err := s.regrade(ctx, c); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (s *gradeSession) regrade(ctx context.Context, c watch.Change) error {
	sub, ok := resolveChange(s.dir, s.glob, c)
	if !ok {
		return nil
	}
	if err := s.emitter.Emit(telemetry.Event{
		Kind:       telemetry.KindWatchChange,
		Submission: sub.Name,
		Data:       map[string]any{"path": c.Path, "change": c.Kind.String()},
	}); err != nil {
		s.printer.Warn(err.Error())
	}

	outs, err := s.grader.Run(ctx, []grader.Submission{sub})
	if err != nil {
		return err
	}
	s.printer.Outcome(outs[0], s.details)
	s.outcomes = mergeOutcome(s.outcomes, outs[0])
	return s.writeTSV()
}

func (s *gradeSession) writeTSV() error {
	if s.tsvPath == "" {
		return nil
	}
	f, err := os.Create(s.tsvPath)
	if err != nil {
		return fmt.Errorf("tsv: %w", err)
	}
	if err := grader.WriteTSV(f, s.baseline, s.outcomes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// resolveChange maps a settled file change to the submission to re-grade.
// A written archive is graded itself; a removed one resolves to the
// student's remaining archive, if any, or to a submission without one.
func resolveChange(dir, glob string, c watch.Change) (grader.Submission, bool) {
	sub, ok := grader.MatchArchive(dir, glob, c.Path)
	if !ok {
		return grader.Submission{}, false
	}
	var found *grader.Submission
	if subs, err := grader.Discover(dir, glob); err == nil {
		for i := range subs {
			if subs[i].Name == sub.Name {
				found = &subs[i]
				break
			}
		}
	}
	if c.Kind == watch.ChangeWritten {
		sub.Candidates = 1
		if found != nil {
			sub.Candidates = found.Candidates
		}
		return sub, true
	}
	if found != nil {
		return *found, true
	}
	sub.Archive = ""
	return sub, true
}

// mergeOutcome replaces the outcome for o's submission, or inserts it in
// name order.
func mergeOutcome(outcomes []grader.Outcome, o grader.Outcome) []grader.Outcome {
	for i := range outcomes {
		if outcomes[i].Submission.Name == o.Submission.Name {
			outcomes[i] = o
			return outcomes
		}
	}
	i := 0
	for i < len(outcomes) && outcomes[i].Submission.Name < o.Submission.Name {
		i++
	}
	outcomes = append(outcomes, grader.Outcome{})
	copy(outcomes[i+1:], outcomes[i:])
	outcomes[i] = o
	return outcomes
}

// setupSignalContext returns a context that is canceled on SIGINT or SIGTERM.
func setupSignalContext(parent context.Context, printer *ui.Printer) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			printer.Info("\nshutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
