// Package report holds the structured result of one analysis call and its
// wire representation.
package report

import (
	"encoding/json"
	"fmt"
	"slices"
)

// AnalysisReport is the complete, immutable result of one analysis call.
// Accessors return copies so that callers cannot mutate a built report.
type AnalysisReport struct {
	summary     string
	findings    []Finding
	suggestions []string
	skipped     []string
}

// New builds a report. Slices are copied.
func New(summary string, findings []Finding, suggestions []string, skipped []string) *AnalysisReport {
	return &AnalysisReport{
		summary:     summary,
		findings:    cloneFindings(findings),
		suggestions: slices.Clone(suggestions),
		skipped:     slices.Clone(skipped),
	}
}

// Summary formats the summary line callers rely on.
func Summary(lines, issues int) string {
	return fmt.Sprintf("Analyzed %d lines; found %d issues.", lines, issues)
}

// Summary returns the human-readable summary.
func (r *AnalysisReport) Summary() string { return r.summary }

// Findings returns the findings in rule evaluation order.
func (r *AnalysisReport) Findings() []Finding { return cloneFindings(r.findings) }

// Suggestions returns the free-text suggestions in order.
func (r *AnalysisReport) Suggestions() []string { return slices.Clone(r.suggestions) }

// Skipped returns the IDs of rules that could not run against this unit
// because no syntax tree was available. It is not part of the wire shape.
func (r *AnalysisReport) Skipped() []string { return slices.Clone(r.skipped) }

// HasSeverity reports whether any issue is at least sev. Diagnostics about
// rules that failed to evaluate are not counted.
func (r *AnalysisReport) HasSeverity(sev Severity) bool {
	for _, f := range r.findings {
		if f.Kind == KindIssue && f.Severity.AtLeast(sev) {
			return true
		}
	}
	return false
}

// Wire is the mapping the presentation layer consumes.
type Wire struct {
	Summary     string      `json:"summary" yaml:"summary"`
	Issues      []WireIssue `json:"issues" yaml:"issues"`
	Suggestions []string    `json:"suggestions" yaml:"suggestions"`
}

// WireIssue is one entry of Wire.Issues.
type WireIssue struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Location    *string `json:"location" yaml:"location"`
	Severity    string  `json:"severity" yaml:"severity"`
}

// Wire converts the report to its wire shape. Issues and Suggestions are
// never nil so that they encode as empty lists.
func (r *AnalysisReport) Wire() Wire {
	w := Wire{
		Summary:     r.summary,
		Issues:      make([]WireIssue, 0, len(r.findings)),
		Suggestions: make([]string, 0, len(r.suggestions)),
	}
	for _, f := range r.findings {
		issue := WireIssue{
			Title:       f.Title,
			Description: f.Description,
			Severity:    string(f.Severity),
		}
		if f.Location != nil {
			loc := f.Location.String()
			issue.Location = &loc
		}
		w.Issues = append(w.Issues, issue)
	}
	w.Suggestions = append(w.Suggestions, r.suggestions...)
	return w
}

// MarshalJSON encodes the wire shape.
func (r *AnalysisReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Wire())
}

// MarshalYAML encodes the wire shape.
func (r *AnalysisReport) MarshalYAML() (any, error) {
	return r.Wire(), nil
}

func cloneFindings(in []Finding) []Finding {
	if in == nil {
		return nil
	}
	out := make([]Finding, len(in))
	for i, f := range in {
		if f.Location != nil {
			loc := *f.Location
			f.Location = &loc
		}
		out[i] = f
	}
	return out
}
