package ui

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/papapumpkin/aprx/internal/grader"
)

// Outcome prints one submission's score line. With details, every failing
// check and every warning is listed below it.
func (p *Printer) Outcome(o grader.Outcome, details bool) {
	switch {
	case errors.Is(o.Err, grader.ErrNoArchive):
		fmt.Fprintf(p.w, "%s %-20s %s\n", styleWarning.Render(iconWarning), o.Submission.Name, styleMuted.Render("no archive"))
		return
	case o.Err != nil:
		fmt.Fprintf(p.w, "%s %-20s %s\n", styleDanger.Render(iconFailed), o.Submission.Name, o.Err.Error())
		p.candidates(o.Submission)
		return
	}

	res := o.Result
	icon, style := iconPassed, styleSuccess
	if !res.Passed() {
		icon, style = iconFailed, styleDanger
	}
	score := fmt.Sprintf("%g/%g (%.0f%%)", res.Score, res.MaxScore, res.Percent())
	suffix := ""
	if o.Cached {
		suffix = " " + styleMuted.Render("(cached)")
	}
	fmt.Fprintf(p.w, "%s %-20s %s%s\n", style.Render(icon), o.Submission.Name, styleBold.Render(score), suffix)
	p.candidates(o.Submission)

	if !details {
		return
	}
	for _, c := range res.Checks {
		switch {
		case !c.Passed:
			fmt.Fprintf(p.w, "    %s %s: %s\n", styleDanger.Render(iconItem), c.ID, c.Detail)
		case c.Detail != "":
			fmt.Fprintf(p.w, "    %s %s: %s\n", styleWarning.Render(iconItem), c.ID, c.Detail)
		}
	}
}

// candidates warns when a student handed in several archives.
func (p *Printer) candidates(s grader.Submission) {
	if !s.Ambiguous() {
		return
	}
	fmt.Fprintf(p.w, "    %s %d archives found, %q used\n",
		styleWarning.Render(iconWarning), s.Candidates, filepath.Base(s.Archive))
}

// Report prints every outcome followed by a summary.
func (p *Printer) Report(title string, outcomes []grader.Outcome, details bool) {
	if title != "" {
		fmt.Fprintln(p.w, styleHeading.Render(title))
	}
	for _, o := range outcomes {
		p.Outcome(o, details)
	}
	p.Summary(outcomes)
}

// Summary prints how many submissions were graded, missing or failed, and
// the mean percentage of the graded ones.
func (p *Printer) Summary(outcomes []grader.Outcome) {
	var graded, missing, failed int
	var total float64
	for _, o := range outcomes {
		switch {
		case errors.Is(o.Err, grader.ErrNoArchive):
			missing++
		case o.Err != nil:
			failed++
		default:
			graded++
			total += o.Result.Percent()
		}
	}
	mean := 0.0
	if graded > 0 {
		mean = total / float64(graded)
	}
	fmt.Fprintf(p.w, "\n%s graded: %d, missing: %d, failed: %d, mean: %.1f%%\n",
		styleHeading.Render("summary"), graded, missing, failed, mean)
}
