package engine_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/codeguardian/engine"
	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/rules"
	"github.com/c360studio/codeguardian/scanner"
	_ "github.com/c360studio/codeguardian/scanner/grammars"
	"github.com/c360studio/codeguardian/source"
)

const sample = `import os

# TODO: handle missing config
def load(path, cache={}):
    try:
        return open(path).read()
    except:
        print("failed")
        return None
`

// faultyRule fails every evaluation, either by error or by panic.
type faultyRule struct {
	id    string
	panic bool
}

func (r faultyRule) ID() string                          { return r.id }
func (r faultyRule) Title() string                       { return "faulty" }
func (r faultyRule) Languages() []source.Language        { return nil }
func (r faultyRule) AppliesTo(source.Language) bool      { return true }
func (r faultyRule) Severity() report.Severity           { return report.SeverityHigh }
func (r faultyRule) Describe(rules.Match) string         { return "" }
func (r faultyRule) Evaluate(*scanner.Input) ([]rules.Match, error) {
	if r.panic {
		panic("index out of range")
	}
	return nil, errors.New("regex exploded")
}

// recorder is an Observer that remembers what it saw.
type recorder struct {
	mu        sync.Mutex
	evaluated []string
	skipped   []string
	failed    []string
	reports   int
}

func (r *recorder) RuleEvaluated(id string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluated = append(r.evaluated, id)
}

func (r *recorder) RuleSkipped(id string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, id)
}

func (r *recorder) RuleFailed(err *engine.RuleEvaluationError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err.RuleID)
}

func (r *recorder) ReportBuilt(int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports++
}

func newEngine(t *testing.T, cfg engine.Config) *engine.Engine {
	t.Helper()
	return engine.New(rules.Default(rules.DefaultOptions()), cfg)
}

func TestAnalyze_Empty(t *testing.T) {
	rep := newEngine(t, engine.Config{}).Analyze(source.NewUnit("", source.LanguagePython, ""))

	assert.Equal(t, "Analyzed 0 lines; found 0 issues.", rep.Summary())
	assert.Empty(t, rep.Findings())
	assert.Empty(t, rep.Suggestions())
}

func TestAnalyze_Sample(t *testing.T) {
	rep := newEngine(t, engine.Config{}).Analyze(source.NewUnit(sample, source.LanguagePython, "load.py"))

	var got []string
	for _, f := range rep.Findings() {
		got = append(got, f.RuleID)
	}
	assert.Equal(t, []string{"todo-marker", "python-bare-except", "python-mutable-default"}, got)
	assert.Equal(t, "Analyzed 9 lines; found 3 issues.", rep.Summary())

	todo := rep.Findings()[0]
	assert.Equal(t, report.SeverityLow, todo.Severity)
	assert.Contains(t, todo.Title, "TODO")
	require.NotNil(t, todo.Location)
	assert.Equal(t, "load.py:3:3", todo.Location.String())

	assert.Equal(t, []string{
		"Review the medium and high severity issues before merging.",
		"Replace print statements with logging for better control in production.",
	}, rep.Suggestions())
}

func TestAnalyze_FindingCountMatchesRuleMatches(t *testing.T) {
	set := rules.Default(rules.DefaultOptions())
	unit := source.NewUnit(sample, source.LanguagePython, "")

	in := scanner.New(nil).Scan(unit)
	defer in.Close()
	want := 0
	for _, r := range set.For(unit.Language()) {
		matches, err := r.Evaluate(in)
		require.NoError(t, err, r.ID())
		want += len(matches)
	}

	rep := engine.New(set, engine.Config{}).Analyze(unit)
	assert.Len(t, rep.Findings(), want)
}

func TestAnalyze_Deterministic(t *testing.T) {
	unit := source.NewUnit(sample, source.LanguagePython, "load.py")

	first, err := json.Marshal(newEngine(t, engine.Config{}).Analyze(unit))
	require.NoError(t, err)
	second, err := json.Marshal(newEngine(t, engine.Config{}).Analyze(unit))
	require.NoError(t, err)
	parallel, err := json.Marshal(newEngine(t, engine.Config{Parallel: true}).Analyze(unit))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, string(first), string(parallel), "parallel evaluation keeps declared order")
}

func TestAnalyze_TodoProperty(t *testing.T) {
	e := newEngine(t, engine.Config{})

	with := e.Analyze(source.NewUnit("x = 1  # TODO\n", source.LanguagePython, ""))
	var todo []report.Finding
	for _, f := range with.Findings() {
		if f.RuleID == "todo-marker" {
			todo = append(todo, f)
		}
	}
	require.NotEmpty(t, todo)
	assert.Equal(t, report.SeverityLow, todo[0].Severity)

	without := e.Analyze(source.NewUnit("x = 1\n", source.LanguagePython, ""))
	for _, f := range without.Findings() {
		assert.NotEqual(t, "todo-marker", f.RuleID)
	}
}

func TestAnalyze_PrintProperty(t *testing.T) {
	e := newEngine(t, engine.Config{})
	const logging = "Replace print statements with logging for better control in production."

	rep := e.Analyze(source.NewUnit("print('x')\n", source.LanguagePython, ""))
	assert.Contains(t, rep.Suggestions(), logging)

	rep = e.Analyze(source.NewUnit("import logging\nprint('x')\n", source.LanguagePython, ""))
	assert.NotContains(t, rep.Suggestions(), logging)
}

func TestAnalyze_RuleFailureIsIsolated(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		set, err := rules.NewBuilder().
			Add(faultyRule{id: "errors"}, rules.TodoMarker(), faultyRule{id: "panics", panic: true}).
			Build()
		require.NoError(t, err)

		rec := &recorder{}
		rep := engine.New(set, engine.Config{Observer: rec, Parallel: parallel}).
			Analyze(source.NewUnit("# TODO\n", source.LanguagePython, ""))

		findings := rep.Findings()
		require.Len(t, findings, 3)

		assert.Equal(t, report.KindDiagnostic, findings[0].Kind)
		assert.Equal(t, report.SeverityLow, findings[0].Severity)
		assert.Equal(t, "Rule errors failed: regex exploded", findings[0].Title)
		assert.Nil(t, findings[0].Location)

		assert.Equal(t, "todo-marker", findings[1].RuleID)

		assert.Equal(t, report.KindDiagnostic, findings[2].Kind)
		assert.Contains(t, findings[2].Title, "panics")
		assert.Contains(t, findings[2].Title, "index out of range")

		assert.ElementsMatch(t, []string{"errors", "panics"}, rec.failed)
		assert.Equal(t, []string{"todo-marker"}, rec.evaluated)
		assert.Equal(t, "Analyzed 1 lines; found 3 issues.", rep.Summary())
	}
}

func TestAnalyze_SyntaxRulesSkippedOnParseFailure(t *testing.T) {
	rec := &recorder{}
	e := newEngine(t, engine.Config{Observer: rec})

	rep := e.Analyze(source.NewUnit("def broken(:\n    # TODO\n", source.LanguagePython, ""))

	assert.Contains(t, rep.Skipped(), "python-bare-except")
	assert.Contains(t, rep.Skipped(), "long-function")
	require.NotEmpty(t, rep.Findings())
	assert.Equal(t, "todo-marker", rep.Findings()[0].RuleID, "line rules still run")
	assert.ElementsMatch(t, rep.Skipped(), rec.skipped)
	assert.Len(t, rep.Suggestions(), 1)
	assert.Contains(t, rep.Suggestions()[0], "does not parse as python")
	assert.Equal(t, 1, rec.reports)
}

func TestAnalyze_SeverityOverride(t *testing.T) {
	rep := newEngine(t, engine.Config{}).Analyze(source.NewUnit("if x:\n\t y = 1\n", source.LanguageOther, ""))
	require.Len(t, rep.Findings(), 1)
	assert.Equal(t, report.SeverityLow, rep.Findings()[0].Severity)

	rep = newEngine(t, engine.Config{}).Analyze(source.NewUnit("if x:\n\t y = 1\n", source.LanguagePython, ""))
	var mixed []report.Finding
	for _, f := range rep.Findings() {
		if f.RuleID == "mixed-indentation" {
			mixed = append(mixed, f)
		}
	}
	require.Len(t, mixed, 1)
	assert.Equal(t, report.SeverityMedium, mixed[0].Severity)
}

func TestRuleEvaluationError(t *testing.T) {
	cause := errors.New("boom")
	err := &engine.RuleEvaluationError{RuleID: "r", Err: cause}
	assert.Equal(t, "rule r: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}
