// Package rules defines the detectors the engine runs and the RuleSet that
// orders them.
package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/scanner"
	"github.com/c360studio/codeguardian/source"
)

// ErrSkipped marks a rule that could not run against an input, typically
// because the input has no syntax tree. It is not a rule failure.
var ErrSkipped = errors.New("rule skipped")

// Match is one site a rule matched. A zero Line means the match concerns the
// unit as a whole. An empty Severity keeps the rule's default.
type Match struct {
	Line     int
	Column   int
	Severity report.Severity
	Detail   string
}

// Rule is a stateless detector for one pattern.
type Rule interface {
	ID() string
	Title() string
	// Languages lists the languages the rule applies to; nil means any.
	Languages() []source.Language
	AppliesTo(lang source.Language) bool
	Severity() report.Severity
	// Describe renders the human description for one match.
	Describe(m Match) string
	Evaluate(in *scanner.Input) ([]Match, error)
}

// Heuristic emits a free-text suggestion that is not tied to a location.
type Heuristic interface {
	ID() string
	AppliesTo(lang source.Language) bool
	// Prepend reports whether the suggestion goes before all appended ones.
	Prepend() bool
	Suggest(in *scanner.Input, findings []report.Finding) (string, bool)
}

// base carries the metadata every built-in rule shares.
type base struct {
	id        string
	title     string
	languages []source.Language
	severity  report.Severity
	// template is a fmt format taking the match detail.
	template string
}

func (b base) ID() string                   { return b.id }
func (b base) Title() string                { return b.title }
func (b base) Languages() []source.Language { return slices.Clone(b.languages) }
func (b base) Severity() report.Severity    { return b.severity }

func (b base) AppliesTo(lang source.Language) bool {
	return len(b.languages) == 0 || slices.Contains(b.languages, lang)
}

func (b base) Describe(m Match) string {
	if !strings.Contains(b.template, "%s") {
		return b.template
	}
	return fmt.Sprintf(b.template, m.Detail)
}

// LineRule matches one line at a time. It needs no syntax tree and so runs
// against every input, parseable or not.
type LineRule struct {
	base
	match func(line scanner.Line) []Match
}

// NewLineRule creates a LineRule. languages may be nil for any language.
func NewLineRule(id, title string, languages []source.Language, severity report.Severity, template string, match func(line scanner.Line) []Match) *LineRule {
	return &LineRule{
		base:  base{id: id, title: title, languages: languages, severity: severity, template: template},
		match: match,
	}
}

// Evaluate implements Rule.
func (r *LineRule) Evaluate(in *scanner.Input) ([]Match, error) {
	var out []Match
	for line := range in.Lines() {
		out = append(out, r.match(line)...)
	}
	return out, nil
}

// SyntaxRule inspects the parsed syntax tree. When the input has no tree the
// rule is skipped rather than failed.
type SyntaxRule struct {
	base
	match func(tree *scanner.Tree, lang source.Language) []Match
}

// NewSyntaxRule creates a SyntaxRule. languages should list only languages
// with a registered grammar.
func NewSyntaxRule(id, title string, languages []source.Language, severity report.Severity, template string, match func(tree *scanner.Tree, lang source.Language) []Match) *SyntaxRule {
	return &SyntaxRule{
		base:  base{id: id, title: title, languages: languages, severity: severity, template: template},
		match: match,
	}
}

// Evaluate implements Rule.
func (r *SyntaxRule) Evaluate(in *scanner.Input) ([]Match, error) {
	tree, err := in.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	return r.match(tree, in.Language()), nil
}

// TextHeuristic suggests a fixed text when its predicate holds.
type TextHeuristic struct {
	id        string
	languages []source.Language
	prepend   bool
	text      string
	when      func(in *scanner.Input, findings []report.Finding) bool
}

// NewTextHeuristic creates a TextHeuristic. languages may be nil for any language.
func NewTextHeuristic(id string, languages []source.Language, prepend bool, text string, when func(in *scanner.Input, findings []report.Finding) bool) *TextHeuristic {
	return &TextHeuristic{id: id, languages: languages, prepend: prepend, text: text, when: when}
}

func (h *TextHeuristic) ID() string    { return h.id }
func (h *TextHeuristic) Prepend() bool { return h.prepend }

func (h *TextHeuristic) AppliesTo(lang source.Language) bool {
	return len(h.languages) == 0 || slices.Contains(h.languages, lang)
}

// Suggest implements Heuristic.
func (h *TextHeuristic) Suggest(in *scanner.Input, findings []report.Finding) (string, bool) {
	if !h.when(in, findings) {
		return "", false
	}
	return h.text, true
}
