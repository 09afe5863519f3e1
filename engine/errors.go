package engine

import "fmt"

// RuleEvaluationError records a rule that failed or panicked. It never
// leaves the Evaluator; it is turned into a diagnostic finding.
type RuleEvaluationError struct {
	RuleID string
	Err    error
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
}

func (e *RuleEvaluationError) Unwrap() error { return e.Err }
