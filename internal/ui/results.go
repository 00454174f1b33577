package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/aprx/internal/store"
)

// Run prints a stored grading run and its outcomes.
func (p *Printer) Run(r store.Run, outcomes []store.Outcome) {
	fmt.Fprintf(p.w, "%s %s\n", styleHeading.Render("run "+r.ID), styleMuted.Render(humanize.Time(r.StartedAt)))
	fmt.Fprintf(p.w, "  dir:      %s\n", r.Dir)
	fmt.Fprintf(p.w, "  baseline: %s\n", r.Baseline)
	if r.FinishedAt.IsZero() {
		fmt.Fprintf(p.w, "  %s\n", styleWarning.Render("not finished"))
	} else {
		fmt.Fprintf(p.w, "  took:     %s, %d graded, %d failed\n",
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Graded, r.Failed)
	}
	fmt.Fprintln(p.w)

	for _, o := range outcomes {
		if o.Error != "" {
			fmt.Fprintf(p.w, "%s %-20s %s\n", styleDanger.Render(iconFailed), o.Submission, o.Error)
			continue
		}
		icon, style := iconPassed, styleSuccess
		for _, c := range o.Checks {
			if !c.Passed {
				icon, style = iconFailed, styleDanger
				break
			}
		}
		fmt.Fprintf(p.w, "%s %-20s %s %s\n", style.Render(icon), o.Submission,
			styleBold.Render(fmt.Sprintf("%g/%g", o.Score, o.MaxScore)), styleMuted.Render(shortDigest(o.Digest)))
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
