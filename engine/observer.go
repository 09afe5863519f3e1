package engine

import (
	"log/slog"
	"time"
)

// Observer receives engine lifecycle events. Implementations must be safe
// for concurrent use when parallel evaluation is enabled.
type Observer interface {
	RuleEvaluated(ruleID string, matches int, elapsed time.Duration)
	RuleSkipped(ruleID string, reason error)
	RuleFailed(err *RuleEvaluationError)
	ReportBuilt(lines, findings, suggestions int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RuleEvaluated(string, int, time.Duration) {}
func (NopObserver) RuleSkipped(string, error)                {}
func (NopObserver) RuleFailed(*RuleEvaluationError)          {}
func (NopObserver) ReportBuilt(int, int, int)                {}

// LogObserver logs events through slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) RuleEvaluated(ruleID string, matches int, elapsed time.Duration) {
	o.logger.Debug("Rule evaluated", "rule", ruleID, "matches", matches, "elapsed", elapsed)
}

func (o *LogObserver) RuleSkipped(ruleID string, reason error) {
	o.logger.Debug("Rule skipped", "rule", ruleID, "reason", reason)
}

func (o *LogObserver) RuleFailed(err *RuleEvaluationError) {
	o.logger.Warn("Rule failed", "rule", err.RuleID, "error", err.Err)
}

func (o *LogObserver) ReportBuilt(lines, findings, suggestions int) {
	o.logger.Debug("Report built", "lines", lines, "findings", findings, "suggestions", suggestions)
}

// Observers fans events out to several observers in order.
type Observers []Observer

func (obs Observers) RuleEvaluated(ruleID string, matches int, elapsed time.Duration) {
	for _, o := range obs {
		o.RuleEvaluated(ruleID, matches, elapsed)
	}
}

func (obs Observers) RuleSkipped(ruleID string, reason error) {
	for _, o := range obs {
		o.RuleSkipped(ruleID, reason)
	}
}

func (obs Observers) RuleFailed(err *RuleEvaluationError) {
	for _, o := range obs {
		o.RuleFailed(err)
	}
}

func (obs Observers) ReportBuilt(lines, findings, suggestions int) {
	for _, o := range obs {
		o.ReportBuilt(lines, findings, suggestions)
	}
}
