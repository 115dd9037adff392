package governance

import (
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/policy"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/score"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/trigger"
)

// Verdict is the terminal decision for a submitted event.
type Verdict string

const (
	// VerdictAllow means the event passed every rule and its requested
	// operation, if any, was applied.
	VerdictAllow Verdict = "ALLOW"

	// VerdictDeny means the event was rejected without any violation being
	// recorded, e.g. a missing actor or an untrusted ledger.
	VerdictDeny Verdict = "DENY"

	// VerdictDenyWithViolations means the event was rejected and the
	// violations that caused it are recorded in the audit trail.
	VerdictDenyWithViolations Verdict = "DENY_WITH_VIOLATIONS"
)

// Decision is the full outcome of one processed event.
type Decision struct {
	// Verdict is the terminal decision.
	Verdict Verdict `json:"verdict"`

	// Violations recorded for this event, in rule evaluation order.
	Violations []trigger.Violation `json:"violations,omitempty"`

	// Actions applied as a consequence, in application order.
	Actions []policy.Action `json:"actions_applied,omitempty"`

	// RequiresApproval is set when a REQUIRE_HUMAN_APPROVAL action fired;
	// the caller must resubmit with an explicit human approval event.
	RequiresApproval bool `json:"requires_approval,omitempty"`

	// State is the project state after the cycle.
	State state.ProjectState `json:"state"`

	// Scores is the score snapshot after the cycle.
	Scores score.Snapshot `json:"scores"`

	// Record is the appended audit record, nil when the denial happened
	// before the audit boundary (missing actor, untrusted ledger).
	Record *audit.Record `json:"record,omitempty"`
}

// Denied reports whether the event was rejected.
func (d Decision) Denied() bool {
	return d.Verdict != VerdictAllow
}
