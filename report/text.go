package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// TextOptions controls WriteText.
type TextOptions struct {
	// Color enables ANSI colours for headings and severities.
	Color bool
}

// WriteText renders r for a terminal: summary, numbered issues with
// location and severity, then suggestions.
func WriteText(w io.Writer, r *AnalysisReport, opts TextOptions) error {
	heading := newColor(opts.Color, color.Bold)
	muted := newColor(opts.Color, color.Faint)

	p := &printer{w: w}
	p.line(heading.Sprint("Summary"))
	p.line(r.Summary())
	p.line("")

	p.line(heading.Sprint("Issues found"))
	findings := r.Findings()
	if len(findings) == 0 {
		p.line(muted.Sprint("No issues found."))
	}
	for i, f := range findings {
		p.line(fmt.Sprintf("%d. %s", i+1, heading.Sprint(f.Title)))
		if f.Location != nil {
			p.line("   " + muted.Sprint("Location: "+f.Location.String()))
		}
		if f.Description != "" {
			p.line("   " + f.Description)
		}
		p.line("   Severity: " + severityColor(opts.Color, f.Severity).Sprint(f.Severity))
	}
	p.line("")

	p.line(heading.Sprint("Suggestions"))
	suggestions := r.Suggestions()
	if len(suggestions) == 0 {
		p.line(muted.Sprint("No suggestions."))
	}
	for _, s := range suggestions {
		p.line("- " + s)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func severityColor(enabled bool, sev Severity) *color.Color {
	switch sev {
	case SeverityHigh:
		return newColor(enabled, color.FgRed, color.Bold)
	case SeverityMedium:
		return newColor(enabled, color.FgYellow)
	default:
		return newColor(enabled, color.FgCyan)
	}
}

func newColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
