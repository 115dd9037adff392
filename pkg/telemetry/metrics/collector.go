// Package metrics exposes the kernel's Prometheus metrics: processed
// events, recorded violations, applied actions, current scores, and audit
// chain health. The Collector implements the governance Observer interface
// so the engine stays free of any Prometheus dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "aipos"
	subsystem = "kernel"
)

// Collector registers and updates all kernel metrics on one registry.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	eventsTotal     *prometheus.CounterVec
	violationsTotal *prometheus.CounterVec
	actionsTotal    *prometheus.CounterVec
	auditAppends    prometheus.Counter
	verifications   *prometheus.CounterVec
	globalScore     prometheus.Gauge
	stageScore      prometheus.Gauge
}

// NewCollector creates a collector on the given registry. A nil registry
// gets a fresh one. A disabled collector keeps every method a no-op.
func NewCollector(enabled bool, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		enabled:  enabled,
		registry: registry,

		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Processed governance events by type and verdict.",
		}, []string{"event_type", "verdict"}),

		violationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "violations_total",
			Help:      "Recorded violations by severity level and rule.",
		}, []string{"level", "rule_id"}),

		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "actions_total",
			Help:      "Applied governance actions by type.",
		}, []string{"action_type"}),

		auditAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "audit_appends_total",
			Help:      "Audit records appended to the ledger.",
		}),

		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "audit_verifications_total",
			Help:      "Audit chain verifications by result.",
		}, []string{"result"}),

		globalScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "score_global",
			Help:      "Current global project score.",
		}),

		stageScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "score_stage",
			Help:      "Current stage score.",
		}),
	}

	if enabled {
		registry.MustRegister(
			c.eventsTotal,
			c.violationsTotal,
			c.actionsTotal,
			c.auditAppends,
			c.verifications,
			c.globalScore,
			c.stageScore,
		)
		c.globalScore.Set(100)
		c.stageScore.Set(100)
	}
	return c
}

// Registry returns the Prometheus registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// EventProcessed counts a processed event.
func (c *Collector) EventProcessed(eventType, verdict string) {
	if !c.enabled {
		return
	}
	c.eventsTotal.WithLabelValues(eventType, verdict).Inc()
}

// ViolationRecorded counts a recorded violation.
func (c *Collector) ViolationRecorded(level, ruleID string) {
	if !c.enabled {
		return
	}
	c.violationsTotal.WithLabelValues(level, ruleID).Inc()
}

// ActionApplied counts an applied action.
func (c *Collector) ActionApplied(actionType string) {
	if !c.enabled {
		return
	}
	c.actionsTotal.WithLabelValues(actionType).Inc()
}

// ScoresUpdated sets the score gauges.
func (c *Collector) ScoresUpdated(global, stage int) {
	if !c.enabled {
		return
	}
	c.globalScore.Set(float64(global))
	c.stageScore.Set(float64(stage))
}

// AuditAppended counts a ledger append.
func (c *Collector) AuditAppended(seq uint64) {
	if !c.enabled {
		return
	}
	c.auditAppends.Inc()
}

// VerificationRan counts a chain verification by outcome.
func (c *Collector) VerificationRan(valid bool) {
	if !c.enabled {
		return
	}
	result := "valid"
	if !valid {
		result = "broken"
	}
	c.verifications.WithLabelValues(result).Inc()
}
