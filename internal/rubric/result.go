package rubric

// Result contains the outcome of grading one project.
type Result struct {
	Score    float64       // points earned
	MaxScore float64       // points available
	Checks   []CheckResult // one per criterion, in baseline order
}

// CheckResult is the outcome of a single criterion.
type CheckResult struct {
	ID     string  `json:"id"`
	Kind   Kind    `json:"kind"`
	Passed bool    `json:"passed"`
	Points float64 `json:"points"` // earned
	Max    float64 `json:"max"`
	Detail string  `json:"detail,omitempty"` // why it failed, or a warning
}

// Passed reports whether every check passed.
func (r *Result) Passed() bool {
	return r.FirstFailure() == nil
}

// FirstFailure returns the first failing check, or nil if all passed.
func (r *Result) FirstFailure() *CheckResult {
	for i := range r.Checks {
		if !r.Checks[i].Passed {
			return &r.Checks[i]
		}
	}
	return nil
}

// Failed returns the number of failing checks.
func (r *Result) Failed() int {
	n := 0
	for _, c := range r.Checks {
		if !c.Passed {
			n++
		}
	}
	return n
}

// Percent returns Score as a percentage of MaxScore, or 0 when nothing can
// be earned.
func (r *Result) Percent() float64 {
	if r.MaxScore == 0 {
		return 0
	}
	return 100 * r.Score / r.MaxScore
}
