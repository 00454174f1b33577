// Package ui renders human-readable console output for the aprx commands:
// grading reports, archive inspection and baseline validation.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan, headings
	colorAccent  = lipgloss.Color("#FFD700") // Gold, warnings
	colorSuccess = lipgloss.Color("#00E676") // Green, passed
	colorDanger  = lipgloss.Color("#FF5252") // Red, failed
	colorMuted   = lipgloss.Color("#8C8C8C") // Gray, details
)

// Status icons.
const (
	iconPassed  = "✓"
	iconFailed  = "✗"
	iconWarning = "⚠"
	iconItem    = "•"
)

var (
	styleHeading = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleDanger  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleBold    = lipgloss.NewStyle().Bold(true)
)

// Printer writes styled output to a writer, normally os.Stderr.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", styleDanger.Render("error:"), msg)
}

// Info prints a de-emphasized message.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, styleMuted.Render(msg))
}

// Success prints a confirmation.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", styleSuccess.Render(iconPassed), msg)
}

// Warn prints a warning.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", styleWarning.Render(iconWarning), msg)
}

// ValidateResult reports the outcome of validating a baseline file.
func (p *Printer) ValidateResult(path string, criteria int, errs []error) {
	if len(errs) == 0 {
		fmt.Fprintf(p.w, "%s %s\n", styleSuccess.Render(fmt.Sprintf("%s baseline %q", iconPassed, path)),
			fmt.Sprintf("%d criteria, no errors", criteria))
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", styleDanger.Render(fmt.Sprintf("%s baseline %q", iconFailed, path)),
		fmt.Sprintf("%d error(s):", len(errs)))
	for _, e := range errs {
		fmt.Fprintf(p.w, "  %s %s\n", styleDanger.Render(iconItem), e.Error())
	}
}
