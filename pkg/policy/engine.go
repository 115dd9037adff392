package policy

import (
	"log/slog"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/score"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/trigger"
)

// Engine resolves violations into an ordered, deduplicated action sequence.
type Engine struct {
	set      *rules.Set
	scoreCfg score.Config
	logger   *slog.Logger
}

// NewEngine creates a policy engine over the active rule set.
func NewEngine(set *rules.Set, scoreCfg score.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default().With("component", "policy")
	}
	return &Engine{set: set, scoreCfg: scoreCfg, logger: logger}
}

// Resolve maps violations to actions. floorArmed reports that a previous
// cycle left a score below the freeze floor; it forces a project freeze
// this cycle regardless of what fired.
//
// Per violation the engine emits an implicit SCORE_PENALTY for the
// violation's level plus whatever actions the firing rule declares. Any
// CRITICAL violation adds an implicit FREEZE_PROJECT. The combined sequence
// is then deduplicated: same type and target collapse to one action keeping
// the most restrictive parameter, and system-originated actions keep their
// system marking.
func (e *Engine) Resolve(violations []trigger.Violation, floorArmed bool) []Action {
	var actions []Action

	ruleByID := make(map[string]rules.Rule)
	for _, r := range e.set.Rules() {
		ruleByID[r.ID] = r
	}

	for _, v := range violations {
		actions = append(actions, Action{
			Type:        rules.ActionScorePenalty,
			Scope:       score.ScopeFor(v.Level),
			Penalty:     e.scoreCfg.PenaltyFor(v.Level),
			RuleID:      v.RuleID,
			ViolationID: v.ID,
			Reason:      v.Message,
			System:      v.System,
		})

		if v.Level == rules.LevelCritical {
			actions = append(actions, Action{
				Type:        rules.ActionFreezeProject,
				RuleID:      v.RuleID,
				ViolationID: v.ID,
				Reason:      "critical violation: " + v.Message,
				System:      true,
			})
		}

		rule, ok := ruleByID[v.RuleID]
		if !ok {
			continue
		}
		for _, spec := range rule.Actions {
			actions = append(actions, e.fromSpec(spec, rule, v))
		}
	}

	if floorArmed {
		actions = append(actions, Action{
			Type:   rules.ActionFreezeProject,
			Reason: "score fell below the freeze floor",
			System: true,
		})
	}

	return e.dedupe(actions)
}

// fromSpec materializes a declared ActionSpec, filling level-derived
// defaults for penalties and scopes.
func (e *Engine) fromSpec(spec rules.ActionSpec, rule rules.Rule, v trigger.Violation) Action {
	a := Action{
		Type:        spec.Type,
		Scope:       spec.Scope,
		Penalty:     spec.Penalty,
		RuleID:      rule.ID,
		ViolationID: v.ID,
		Reason:      spec.Reason,
		System:      rule.System,
	}
	if a.Reason == "" {
		a.Reason = v.Message
	}
	if a.Type == rules.ActionScorePenalty {
		if a.Scope == "" {
			a.Scope = score.ScopeFor(rule.Level)
		}
		if a.Penalty == 0 {
			a.Penalty = e.scoreCfg.PenaltyFor(rule.Level)
		}
	}
	return a
}

// dedupe collapses actions sharing a type and target, keeping first-seen
// order, the largest penalty, and the system marking of any contributor.
func (e *Engine) dedupe(actions []Action) []Action {
	if len(actions) < 2 {
		return actions
	}

	index := make(map[dedupKey]int, len(actions))
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		key := dedupKey{Type: a.Type, Target: a.target()}
		if i, seen := index[key]; seen {
			if a.Penalty > out[i].Penalty {
				out[i].Penalty = a.Penalty
				out[i].RuleID = a.RuleID
				out[i].ViolationID = a.ViolationID
				out[i].Reason = a.Reason
			}
			out[i].System = out[i].System || a.System
			continue
		}
		index[key] = len(out)
		out = append(out, a)
	}

	if dropped := len(actions) - len(out); dropped > 0 {
		e.logger.Debug("deduplicated actions", "in", len(actions), "out", len(out))
	}
	return out
}
