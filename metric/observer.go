// Package metric exports engine activity as Prometheus metrics.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/codeguardian/engine"
)

const namespace = "codeguardian"

// Observer implements engine.Observer with Prometheus collectors.
type Observer struct {
	evaluations *prometheus.CounterVec
	matches     *prometheus.CounterVec
	skips       *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	reports     prometheus.Counter
	lines       prometheus.Histogram
}

var _ engine.Observer = (*Observer)(nil)

// NewObserver creates the collectors and registers them with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_evaluations_total",
			Help:      "Rules evaluated successfully.",
		}, []string{"rule"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Sites matched per rule.",
		}, []string{"rule"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_skips_total",
			Help:      "Rules skipped because no syntax tree was available.",
		}, []string{"rule"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Rules that errored or panicked.",
		}, []string{"rule"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_duration_seconds",
			Help:      "Time spent evaluating one rule against one unit.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"rule"}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Analysis reports built.",
		}),
		lines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_lines",
			Help:      "Lines analyzed per report.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
		}),
	}

	for _, c := range []prometheus.Collector{o.evaluations, o.matches, o.skips, o.failures, o.duration, o.reports, o.lines} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Observer) RuleEvaluated(ruleID string, matches int, elapsed time.Duration) {
	o.evaluations.WithLabelValues(ruleID).Inc()
	o.matches.WithLabelValues(ruleID).Add(float64(matches))
	o.duration.WithLabelValues(ruleID).Observe(elapsed.Seconds())
}

func (o *Observer) RuleSkipped(ruleID string, _ error) {
	o.skips.WithLabelValues(ruleID).Inc()
}

func (o *Observer) RuleFailed(err *engine.RuleEvaluationError) {
	o.failures.WithLabelValues(err.RuleID).Inc()
}

func (o *Observer) ReportBuilt(lines, _, _ int) {
	o.reports.Inc()
	o.lines.Observe(float64(lines))
}
