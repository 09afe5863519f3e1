package report

import "fmt"

// Kind separates ordinary findings from diagnostics the engine records
// about itself (a rule that failed to evaluate).
type Kind string

const (
	KindIssue      Kind = "issue"
	KindDiagnostic Kind = "diagnostic"
)

// Location points at a line and column inside a unit.
type Location struct {
	Origin string
	Line   int
	Column int
}

// String renders "origin:line:col", or "line:col" without an origin.
func (l Location) String() string {
	if l.Origin == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.Origin, l.Line, l.Column)
}

// Finding is one rule matching one site. Location is nil for findings about
// the unit as a whole.
type Finding struct {
	RuleID      string
	Title       string
	Description string
	Location    *Location
	Severity    Severity
	Kind        Kind
}
