package policy

import "github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"

// Action is a resolved governance action, ready to apply.
type Action struct {
	// Type selects the handler.
	Type rules.ActionType `json:"type"`

	// Scope is the score a SCORE_PENALTY targets. Empty for other types.
	Scope rules.Scope `json:"scope,omitempty"`

	// Penalty is the deduction for SCORE_PENALTY.
	Penalty int `json:"penalty,omitempty"`

	// RuleID names the rule whose firing produced this action. Empty for
	// implicit actions not tied to a single rule.
	RuleID string `json:"rule_id,omitempty"`

	// ViolationID links back to the violation, when there is one.
	ViolationID string `json:"violation_id,omitempty"`

	// Reason explains the action for audit readers.
	Reason string `json:"reason,omitempty"`

	// System marks actions declared or implied by system policy. System
	// actions always survive deduplication.
	System bool `json:"system"`
}

// target returns the deduplication target of the action. Two actions with
// the same type and target collapse into one.
func (a Action) target() string {
	if a.Type == rules.ActionScorePenalty {
		return string(a.Scope)
	}
	return ""
}

// dedupKey identifies actions that collapse together.
type dedupKey struct {
	Type   rules.ActionType
	Target string
}
