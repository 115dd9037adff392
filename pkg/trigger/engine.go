package trigger

import (
	"log/slog"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
)

// Engine evaluates events against a rule set.
type Engine struct {
	set    *rules.Set
	logger *slog.Logger
}

// NewEngine creates a trigger engine over the given rule set.
func NewEngine(set *rules.Set, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default().With("component", "trigger")
	}
	return &Engine{set: set, logger: logger}
}

// Evaluate runs every applicable rule against the input and returns the
// violations for all rules that fired, in rule evaluation order (system
// rules first). A fired rule never suppresses evaluation of later rules.
func (e *Engine) Evaluate(in rules.Input) []Violation {
	var violations []Violation
	for _, rule := range e.set.Rules() {
		if !rule.AppliesTo(in.Event.Type) {
			continue
		}
		def, ok := e.set.Registry().Lookup(rule.Condition)
		if !ok {
			// Load-time validation makes this unreachable for installed
			// rules; log rather than fail the cycle if it ever happens.
			e.logger.Error("installed rule references unknown condition",
				"rule_id", rule.ID,
				"condition", rule.Condition,
			)
			continue
		}
		if !def.Eval(in, rule.Params) {
			continue
		}
		v := NewViolation(rule, in.Event)
		violations = append(violations, v)
		e.logger.Debug("rule fired",
			"rule_id", rule.ID,
			"level", string(rule.Level),
			"event_id", in.Event.ID,
			"actor_id", in.Event.Actor.ID,
		)
	}
	return violations
}

// RuleFor returns the active rule with the given ID, if present.
func (e *Engine) RuleFor(id string) (rules.Rule, bool) {
	for _, r := range e.set.Rules() {
		if r.ID == id {
			return r, true
		}
	}
	return rules.Rule{}, false
}
