package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/scanner"
	"github.com/c360studio/codeguardian/source"
)

// ReviewBeforeMerge asks for review whenever a medium or high issue exists.
// Its suggestion is placed first.
func ReviewBeforeMerge() *TextHeuristic {
	return NewTextHeuristic("review-before-merge", nil, true,
		"Review the medium and high severity issues before merging.",
		func(_ *scanner.Input, findings []report.Finding) bool {
			for _, f := range findings {
				if f.Kind == report.KindIssue && f.Severity.AtLeast(report.SeverityMedium) {
					return true
				}
			}
			return false
		})
}

var loggingFacilities = []string{"logging", "logger"}

// PrintToLogging recommends a logging facility when print( is used and no
// logging facility appears anywhere in the text.
func PrintToLogging() *TextHeuristic {
	return NewTextHeuristic("print-to-logging", nil, false,
		"Replace print statements with logging for better control in production.",
		func(in *scanner.Input, _ []report.Finding) bool {
			text := in.Unit().Text()
			if !strings.Contains(text, "print(") {
				return false
			}
			for _, facility := range loggingFacilities {
				if strings.Contains(text, facility) {
					return false
				}
			}
			return true
		})
}

// SyntaxUnparsed notes that syntax-aware rules were skipped because the
// text did not parse as its declared language.
func SyntaxUnparsed() Heuristic {
	return syntaxUnparsed{}
}

type syntaxUnparsed struct{}

func (syntaxUnparsed) ID() string    { return "syntax-unparsed" }
func (syntaxUnparsed) Prepend() bool { return false }

func (syntaxUnparsed) AppliesTo(lang source.Language) bool { return true }

func (syntaxUnparsed) Suggest(in *scanner.Input, _ []report.Finding) (string, bool) {
	if _, err := in.Tree(); !errors.Is(err, scanner.ErrSyntax) {
		return "", false
	}
	return fmt.Sprintf("The source does not parse as %s; syntax-aware checks were skipped. Check the selected language or fix the syntax error.", in.Language()), true
}
