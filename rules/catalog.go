package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/scanner"
	"github.com/c360studio/codeguardian/source"
)

// Options tunes the thresholds of the built-in catalog.
type Options struct {
	MaxLineLength    int
	MaxFunctionLines int
}

// DefaultOptions returns the catalog thresholds used when none are configured.
func DefaultOptions() Options {
	return Options{MaxLineLength: 120, MaxFunctionLines: 50}
}

// DefaultBuilder returns a Builder preloaded with the built-in catalog in its
// declared order, ready for Disable/Only.
func DefaultBuilder(opts Options) *Builder {
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultOptions().MaxLineLength
	}
	if opts.MaxFunctionLines <= 0 {
		opts.MaxFunctionLines = DefaultOptions().MaxFunctionLines
	}

	return NewBuilder().
		Add(
			TodoMarker(),
			FixmeMarker(),
			MergeConflictMarker(),
			PrivateKey(),
			HardcodedSecret(),
			LineTooLong(opts.MaxLineLength),
			TrailingWhitespace(),
			MixedIndentation(),
			PythonBareExcept(),
			PythonMutableDefault(),
			PythonEvalExec(),
			PythonWildcardImport(),
			GoPanicCall(),
			GoEmptyErrorCheck(),
			JSEval(),
			JSDebugger(),
			JSLooseEquality(),
			JavaEmptyCatch(),
			LongFunction(opts.MaxFunctionLines),
		).
		AddHeuristics(
			ReviewBeforeMerge(),
			PrintToLogging(),
			SyntaxUnparsed(),
		)
}

// Default returns the built-in catalog.
func Default(opts Options) *RuleSet {
	set, err := DefaultBuilder(opts).Build()
	if err != nil {
		// DefaultBuilder never disables anything, so Build cannot fail.
		panic(err)
	}
	return set
}

// column converts a byte offset within text to a 1-based rune column.
func column(text string, offset int) int {
	return utf8.RuneCountInString(text[:offset]) + 1
}

// TodoMarker flags lines containing the literal marker "TODO".
func TodoMarker() *LineRule {
	return NewLineRule("todo-marker", "Found TODO", nil, report.SeverityLow,
		"Code contains a TODO marker; consider addressing it before production.",
		func(line scanner.Line) []Match {
			i := strings.Index(line.Text, "TODO")
			if i < 0 {
				return nil
			}
			return []Match{{Line: line.Number, Column: column(line.Text, i)}}
		})
}

var fixmePattern = regexp.MustCompile(`\b(FIXME|XXX|HACK)\b`)

// FixmeMarker flags FIXME, XXX and HACK markers.
func FixmeMarker() *LineRule {
	return NewLineRule("fixme-marker", "Found FIXME marker", nil, report.SeverityMedium,
		"Code carries a %s marker that flags known broken or temporary code.",
		func(line scanner.Line) []Match {
			loc := fixmePattern.FindStringSubmatchIndex(line.Text)
			if loc == nil {
				return nil
			}
			return []Match{{
				Line:   line.Number,
				Column: column(line.Text, loc[2]),
				Detail: line.Text[loc[2]:loc[3]],
			}}
		})
}

var conflictPattern = regexp.MustCompile(`^(<{7}|>{7})( |$)`)

// MergeConflictMarker flags leftover merge conflict markers.
func MergeConflictMarker() *LineRule {
	return NewLineRule("merge-conflict-marker", "Unresolved merge conflict", nil, report.SeverityHigh,
		"Line starts with the conflict marker %s; resolve the merge before committing.",
		func(line scanner.Line) []Match {
			m := conflictPattern.FindStringSubmatch(line.Text)
			if m == nil {
				return nil
			}
			return []Match{{Line: line.Number, Column: 1, Detail: m[1]}}
		})
}

var privateKeyPattern = regexp.MustCompile(`-----BEGIN ([A-Z]+ )*PRIVATE KEY-----`)

// PrivateKey flags PEM private key blocks embedded in source.
func PrivateKey() *LineRule {
	return NewLineRule("private-key", "Embedded private key", nil, report.SeverityHigh,
		"A PEM private key block is embedded in the source; remove it and rotate the key.",
		func(line scanner.Line) []Match {
			loc := privateKeyPattern.FindStringIndex(line.Text)
			if loc == nil {
				return nil
			}
			return []Match{{Line: line.Number, Column: column(line.Text, loc[0])}}
		})
}

var secretPattern = regexp.MustCompile(`(?i)\b(password|passwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token)\b["']?\s*[:=]\s*["'][^"']{4,}["']`)

// HardcodedSecret flags credentials assigned a string literal.
func HardcodedSecret() *LineRule {
	return NewLineRule("hardcoded-secret", "Hard-coded credential", nil, report.SeverityHigh,
		`Credential "%s" is assigned a string literal; load it from configuration or a secret store instead.`,
		func(line scanner.Line) []Match {
			loc := secretPattern.FindStringSubmatchIndex(line.Text)
			if loc == nil {
				return nil
			}
			return []Match{{
				Line:   line.Number,
				Column: column(line.Text, loc[2]),
				Detail: line.Text[loc[2]:loc[3]],
			}}
		})
}

// LineTooLong flags lines longer than limit characters.
func LineTooLong(limit int) *LineRule {
	return NewLineRule("line-too-long", "Line too long", nil, report.SeverityLow,
		"Line is %s.",
		func(line scanner.Line) []Match {
			n := utf8.RuneCountInString(line.Text)
			if n <= limit {
				return nil
			}
			return []Match{{
				Line:   line.Number,
				Column: limit + 1,
				Detail: fmt.Sprintf("%d characters long; the limit is %d", n, limit),
			}}
		})
}

// TrailingWhitespace flags lines ending in spaces or tabs.
func TrailingWhitespace() *LineRule {
	return NewLineRule("trailing-whitespace", "Trailing whitespace", nil, report.SeverityLow,
		"Line ends with whitespace.",
		func(line scanner.Line) []Match {
			trimmed := strings.TrimRight(line.Text, " \t")
			if len(trimmed) == len(line.Text) {
				return nil
			}
			return []Match{{Line: line.Number, Column: column(line.Text, len(trimmed))}}
		})
}

// MixedIndentation flags indentation mixing tabs and spaces. In Python,
// where indentation is syntax, matches are raised to medium.
func MixedIndentation() Rule {
	return mixedIndentation{NewLineRule("mixed-indentation", "Mixed tabs and spaces in indentation", nil, report.SeverityLow,
		"Indentation mixes tabs and spaces; use one consistently.",
		func(line scanner.Line) []Match {
			indent := line.Text[:len(line.Text)-len(strings.TrimLeft(line.Text, " \t"))]
			if !strings.Contains(indent, "\t") || !strings.Contains(indent, " ") {
				return nil
			}
			return []Match{{Line: line.Number, Column: 1}}
		})}
}

type mixedIndentation struct {
	*LineRule
}

func (r mixedIndentation) Evaluate(in *scanner.Input) ([]Match, error) {
	matches, err := r.LineRule.Evaluate(in)
	if err != nil || in.Language() != source.LanguagePython {
		return matches, err
	}
	for i := range matches {
		matches[i].Severity = report.SeverityMedium
	}
	return matches, nil
}
