package rules

import (
	"fmt"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
)

// Level is the severity of a violation produced by a rule.
type Level string

const (
	// LevelCritical violations penalize the global score and freeze the
	// project in the same cycle.
	LevelCritical Level = "CRITICAL"

	// LevelMajor violations penalize the current stage score.
	LevelMajor Level = "MAJOR"

	// LevelMinor violations penalize the current stage score lightly.
	LevelMinor Level = "MINOR"
)

// Valid reports whether l is a known severity level.
func (l Level) Valid() bool {
	switch l {
	case LevelCritical, LevelMajor, LevelMinor:
		return true
	}
	return false
}

// Severity returns a comparable rank, higher meaning more severe.
func (l Level) Severity() int {
	switch l {
	case LevelCritical:
		return 3
	case LevelMajor:
		return 2
	case LevelMinor:
		return 1
	}
	return 0
}

// ParseLevel converts a string into a Level, rejecting unknown values.
func ParseLevel(v string) (Level, error) {
	l := Level(v)
	if !l.Valid() {
		return "", fmt.Errorf("invalid severity level %q", v)
	}
	return l, nil
}

// Scope identifies which score a penalty applies to.
type Scope string

const (
	// ScopeGlobal penalties hit the irreversible project-wide score.
	ScopeGlobal Scope = "global"

	// ScopeStage penalties hit the current stage score, which resets on a
	// stage advance.
	ScopeStage Scope = "stage"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeStage
}

// ActionType identifies a governance action a rule may declare.
type ActionType string

const (
	// ActionFreezeProject freezes the current stage.
	ActionFreezeProject ActionType = "FREEZE_PROJECT"

	// ActionUnfreezeProject requests a freeze reversal. Only satisfiable
	// through an authorized stage advance; direct unfreeze is always denied.
	ActionUnfreezeProject ActionType = "UNFREEZE_PROJECT"

	// ActionUnlock clears the project lock. Requires human authorization.
	ActionUnlock ActionType = "UNLOCK"

	// ActionScorePenalty deducts points from the global or stage score.
	ActionScorePenalty ActionType = "SCORE_PENALTY"

	// ActionRequireHumanApproval flags the event as needing explicit human
	// sign-off before the requested operation may proceed.
	ActionRequireHumanApproval ActionType = "REQUIRE_HUMAN_APPROVAL"

	// ActionLogAudit records the outcome in the audit ledger. Always implied;
	// declaring it lets a rule attach an extra reason string.
	ActionLogAudit ActionType = "LOG_AUDIT"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionFreezeProject, ActionUnfreezeProject, ActionUnlock,
		ActionScorePenalty, ActionRequireHumanApproval, ActionLogAudit:
		return true
	}
	return false
}

// ActionSpec is a rule's declaration of an action to apply when it fires.
type ActionSpec struct {
	// Type selects the action handler.
	Type ActionType `yaml:"type" json:"type"`

	// Scope selects the score a SCORE_PENALTY applies to. Empty defaults to
	// the scope implied by the rule's level.
	Scope Scope `yaml:"scope,omitempty" json:"scope,omitempty"`

	// Penalty is the deduction amount for SCORE_PENALTY. Zero defaults to
	// the level's standard penalty.
	Penalty int `yaml:"penalty,omitempty" json:"penalty,omitempty"`

	// Reason annotates the action in the audit record.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Rule couples a condition with a severity level and declared actions.
type Rule struct {
	// ID uniquely names the rule. Project rules may not reuse a system
	// rule's ID.
	ID string `yaml:"id" json:"id"`

	// Description explains what the rule guards, for audit readers.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Level is the severity of violations this rule produces.
	Level Level `yaml:"level" json:"level"`

	// EventTypes limits the rule to specific event types. Empty matches all.
	EventTypes []event.Type `yaml:"event_types,omitempty" json:"event_types,omitempty"`

	// Condition names a registered condition. The rule fires when the
	// condition reports non-compliance.
	Condition string `yaml:"condition" json:"condition"`

	// Params parameterize the condition, e.g. {"stage": "S5"}.
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`

	// Actions are applied, in order, when the rule fires. SCORE_PENALTY and
	// LOG_AUDIT are implied for every firing rule and need not be declared.
	Actions []ActionSpec `yaml:"actions,omitempty" json:"actions,omitempty"`

	// System marks immutable built-in rules. Never settable from YAML.
	System bool `yaml:"-" json:"system"`
}

// AppliesTo reports whether the rule should be evaluated for the event type.
func (r Rule) AppliesTo(t event.Type) bool {
	if len(r.EventTypes) == 0 {
		return true
	}
	for _, et := range r.EventTypes {
		if et == t {
			return true
		}
	}
	return false
}
