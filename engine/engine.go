// Package engine turns a source.Unit into an AnalysisReport. It performs no
// I/O: callers obtain the unit first (see package ingest).
package engine

import (
	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/rules"
	"github.com/c360studio/codeguardian/scanner"
	"github.com/c360studio/codeguardian/source"
)

// Config configures an Engine.
type Config struct {
	// Observer receives lifecycle events (default: NopObserver).
	Observer Observer

	// Parallel evaluates rules concurrently. Output is identical either way.
	Parallel bool

	// Grammars used for syntax trees (default: scanner.DefaultGrammars).
	Grammars *scanner.GrammarRegistry
}

// Engine is the synchronous analysis pipeline:
// Scanner → Evaluator → Reporter. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	rules     *rules.RuleSet
	scanner   *scanner.Scanner
	evaluator *Evaluator
	reporter  *Reporter
}

// New creates an Engine over set.
func New(set *rules.RuleSet, cfg Config) *Engine {
	return &Engine{
		rules:     set,
		scanner:   scanner.New(cfg.Grammars),
		evaluator: NewEvaluator(cfg.Observer, cfg.Parallel),
		reporter:  NewReporter(cfg.Observer),
	}
}

// RuleSet returns the engine's rules.
func (e *Engine) RuleSet() *rules.RuleSet { return e.rules }

// Analyze produces the report for unit. It never fails.
func (e *Engine) Analyze(unit source.Unit) *report.AnalysisReport {
	in := e.scanner.Scan(unit)
	defer in.Close()

	lang := unit.Language()
	ev := e.evaluator.Evaluate(in, e.rules.For(lang))
	return e.reporter.Build(in, ev, e.rules.HeuristicsFor(lang))
}
