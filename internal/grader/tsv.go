package grader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/papapumpkin/aprx/internal/rubric"
)

// WriteTSV writes one tab-separated row per outcome: submission, archive,
// score, max score, the points earned per criterion of b, and the error.
func WriteTSV(w io.Writer, b *rubric.Baseline, outcomes []Outcome) error {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'

	header := []string{"submission", "archive", "score", "max_score"}
	for _, c := range b.Criteria {
		header = append(header, c.ID)
	}
	header = append(header, "error")
	if err := tw.Write(header); err != nil {
		return fmt.Errorf("grader: write tsv header: %w", err)
	}

	for _, o := range outcomes {
		row := []string{o.Submission.Name, o.Submission.Archive}
		if o.Err != nil {
			row = append(row, "", formatPoints(b.MaxScore()))
			for range b.Criteria {
				row = append(row, "")
			}
			row = append(row, o.Err.Error())
		} else {
			row = append(row, formatPoints(o.Result.Score), formatPoints(o.Result.MaxScore))
			earned := make(map[string]float64, len(o.Result.Checks))
			for _, c := range o.Result.Checks {
				earned[c.ID] = c.Points
			}
			for _, c := range b.Criteria {
				row = append(row, formatPoints(earned[c.ID]))
			}
			row = append(row, "")
		}
		if err := tw.Write(row); err != nil {
			return fmt.Errorf("grader: write tsv row %s: %w", o.Submission.Name, err)
		}
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return fmt.Errorf("grader: flush tsv: %w", err)
	}
	return nil
}

func formatPoints(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
