package engine

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/rules"
	"github.com/c360studio/codeguardian/scanner"
)

// Evaluation is the Evaluator's output: findings in rule order plus the IDs
// of rules that were skipped for lack of a syntax tree.
type Evaluation struct {
	Findings []report.Finding
	Skipped  []string
}

// Evaluator runs rules against an Input, isolating each rule's failures.
type Evaluator struct {
	observer Observer
	parallel bool
}

// NewEvaluator creates an Evaluator. With parallel set, rules run
// concurrently on forked inputs and results are merged in declared order.
func NewEvaluator(observer Observer, parallel bool) *Evaluator {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Evaluator{observer: observer, parallel: parallel}
}

type outcome struct {
	matches []rules.Match
	skipped bool
	failure *RuleEvaluationError
}

// Evaluate runs every rule in rs and resolves matches into findings. It
// never fails: a rule that errors or panics yields one low-severity
// diagnostic finding in its place.
func (e *Evaluator) Evaluate(in *scanner.Input, rs []rules.Rule) Evaluation {
	outcomes := make([]outcome, len(rs))

	if e.parallel && len(rs) > 1 {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, r := range rs {
			g.Go(func() error {
				fork := in.Fork()
				defer fork.Close()
				outcomes[i] = e.run(fork, r)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, r := range rs {
			outcomes[i] = e.run(in, r)
		}
	}

	var ev Evaluation
	origin := in.Unit().Origin()
	for i, r := range rs {
		o := outcomes[i]
		switch {
		case o.failure != nil:
			ev.Findings = append(ev.Findings, diagnostic(o.failure))
		case o.skipped:
			ev.Skipped = append(ev.Skipped, r.ID())
		default:
			for _, m := range o.matches {
				ev.Findings = append(ev.Findings, resolve(r, m, origin))
			}
		}
	}
	return ev
}

func (e *Evaluator) run(in *scanner.Input, r rules.Rule) (out outcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			out = outcome{failure: &RuleEvaluationError{RuleID: r.ID(), Err: fmt.Errorf("panic: %v", rec)}}
			e.observer.RuleFailed(out.failure)
		}
	}()

	matches, err := r.Evaluate(in)
	switch {
	case errors.Is(err, rules.ErrSkipped):
		e.observer.RuleSkipped(r.ID(), err)
		return outcome{skipped: true}
	case err != nil:
		failure := &RuleEvaluationError{RuleID: r.ID(), Err: err}
		e.observer.RuleFailed(failure)
		return outcome{failure: failure}
	}

	e.observer.RuleEvaluated(r.ID(), len(matches), time.Since(start))
	return outcome{matches: matches}
}

// resolve turns a match into a finding, applying the rule's default
// severity unless the match overrides it.
func resolve(r rules.Rule, m rules.Match, origin string) report.Finding {
	sev := r.Severity()
	if m.Severity.Valid() {
		sev = m.Severity
	}
	f := report.Finding{
		RuleID:      r.ID(),
		Title:       r.Title(),
		Description: r.Describe(m),
		Severity:    sev,
		Kind:        report.KindIssue,
	}
	if m.Line > 0 {
		f.Location = &report.Location{Origin: origin, Line: m.Line, Column: m.Column}
	}
	return f
}

func diagnostic(err *RuleEvaluationError) report.Finding {
	return report.Finding{
		RuleID:      err.RuleID,
		Title:       fmt.Sprintf("Rule %s failed: %v", err.RuleID, err.Err),
		Description: "The rule could not be evaluated; findings from the other rules are unaffected.",
		Severity:    report.SeverityLow,
		Kind:        report.KindDiagnostic,
	}
}
