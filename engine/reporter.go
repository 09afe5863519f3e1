package engine

import (
	"fmt"
	"slices"

	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/rules"
	"github.com/c360studio/codeguardian/scanner"
)

// Reporter assembles the final AnalysisReport.
type Reporter struct {
	observer Observer
}

// NewReporter creates a Reporter.
func NewReporter(observer Observer) *Reporter {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Reporter{observer: observer}
}

// Build runs the heuristics over the evaluation and returns the report.
// Suggestions from prepending heuristics come first, each group in declared
// order; repeated suggestion texts are kept once.
func (r *Reporter) Build(in *scanner.Input, ev Evaluation, heuristics []rules.Heuristic) *report.AnalysisReport {
	var front, back []string
	for _, h := range heuristics {
		s, ok := r.suggest(h, in, ev.Findings)
		if !ok {
			continue
		}
		if h.Prepend() {
			front = append(front, s)
		} else {
			back = append(back, s)
		}
	}

	var suggestions []string
	for _, s := range append(front, back...) {
		if !slices.Contains(suggestions, s) {
			suggestions = append(suggestions, s)
		}
	}

	lines := in.LineCount()
	rep := report.New(report.Summary(lines, len(ev.Findings)), ev.Findings, suggestions, ev.Skipped)
	r.observer.ReportBuilt(lines, len(ev.Findings), len(suggestions))
	return rep
}

func (r *Reporter) suggest(h rules.Heuristic, in *scanner.Input, findings []report.Finding) (s string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.observer.RuleFailed(&RuleEvaluationError{RuleID: h.ID(), Err: fmt.Errorf("panic: %v", rec)})
			s, ok = "", false
		}
	}()
	return h.Suggest(in, findings)
}
