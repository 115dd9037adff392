package rules

import (
	"strings"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
)

// AuditRequiredFields are the payload fields every AUDIT_SUBMISSION must
// carry before it is accepted into the ledger.
var AuditRequiredFields = []string{
	"sub_task_id",
	"layer",
	"files_changed",
	"correctness_assertion",
	"architecture_compliance",
	"reviewer",
}

// DefaultProtectedPrefixes are source paths whose writes always require
// explicit human approval, even in S5.
var DefaultProtectedPrefixes = []string{"core/", "governance/"}

// System rule identifiers. Project rules may not reuse these IDs.
const (
	RuleCodeOutsideS5     = "code_outside_s5"
	RuleWriteOutsideS5    = "write_outside_s5"
	RuleWriteProtected    = "write_protected_path"
	RuleAuditMissing      = "audit_missing_fields"
	RuleArchViolation     = "arch_violation_reported"
	RuleAISelfApproval    = "ai_self_approval"
	RuleArchitectureBreak = "architecture_break"
)

// SystemRules returns the immutable built-in rule set. System rules evaluate
// before project rules and cannot be overridden or shadowed.
func SystemRules() []Rule {
	return []Rule{
		{
			ID:          RuleCodeOutsideS5,
			Description: "code generation is only permitted in stage S5",
			Level:       LevelCritical,
			EventTypes:  []event.Type{event.TypeCodeGeneration},
			Condition:   "stage_not",
			Params:      map[string]string{"stage": string(state.StageS5)},
			Actions:     []ActionSpec{{Type: ActionFreezeProject, Reason: "code generation outside S5"}},
			System:      true,
		},
		{
			ID:          RuleWriteOutsideS5,
			Description: "source writes are only permitted in stage S5",
			Level:       LevelCritical,
			EventTypes:  []event.Type{event.TypeSrcWriteRequest},
			Condition:   "src_write_outside_s5",
			Actions:     []ActionSpec{{Type: ActionFreezeProject, Reason: "source write outside S5"}},
			System:      true,
		},
		{
			ID:          RuleWriteProtected,
			Description: "writes to protected paths require human approval in every stage",
			Level:       LevelMajor,
			EventTypes:  []event.Type{event.TypeSrcWriteRequest},
			Condition:   "src_write_protected_path",
			Params:      map[string]string{"prefixes": strings.Join(DefaultProtectedPrefixes, ",")},
			Actions:     []ActionSpec{{Type: ActionRequireHumanApproval, Reason: "protected path write"}},
			System:      true,
		},
		{
			ID:          RuleAuditMissing,
			Description: "audit submissions must carry the full set of required fields",
			Level:       LevelMajor,
			EventTypes:  []event.Type{event.TypeAuditSubmission},
			Condition:   "audit_fields_missing",
			System:      true,
		},
		{
			ID:          RuleArchViolation,
			Description: "reported architecture deviations are recorded and penalized",
			Level:       LevelMinor,
			EventTypes:  []event.Type{event.TypeArchViolation},
			Condition:   "always",
			System:      true,
		},
		{
			ID:          RuleAISelfApproval,
			Description: "approvals must originate from a human actor",
			Level:       LevelMajor,
			EventTypes:  []event.Type{event.TypeApproval},
			Condition:   "actor_role_is",
			Params:      map[string]string{"role": string(event.RoleAgent)},
			Actions:     []ActionSpec{{Type: ActionRequireHumanApproval, Reason: "approval submitted by an AI actor"}},
			System:      true,
		},
		{
			ID:          RuleArchitectureBreak,
			Description: "an architecture break always records a critical violation",
			Level:       LevelCritical,
			EventTypes:  []event.Type{event.TypeArchitectureBreak},
			Condition:   "always",
			System:      true,
		},
	}
}

// registerSystemConditions adds the composite conditions the system rules
// depend on. They live in the same registry as the generic built-ins so the
// closed-set validation covers both.
func (r *Registry) registerSystemConditions() {
	mustRegister := func(name string, def ConditionDef) {
		if err := r.Register(name, def); err != nil {
			panic(err)
		}
	}

	// Read intents are always allowed; anything else counts as a write.
	isWrite := func(in Input) bool {
		return in.Event.PayloadString("intent") != "read"
	}

	mustRegister("src_write_outside_s5", ConditionDef{
		Eval: func(in Input, _ map[string]string) bool {
			return isWrite(in) && in.State.Stage != state.StageS5
		},
	})

	mustRegister("src_write_protected_path", ConditionDef{
		Eval: func(in Input, params map[string]string) bool {
			if !isWrite(in) {
				return false
			}
			path := in.Event.PayloadString("path")
			if path == "" {
				return false
			}
			for _, prefix := range splitFields(params["prefixes"]) {
				if strings.HasPrefix(path, prefix) {
					return true
				}
			}
			return false
		},
	})

	mustRegister("audit_fields_missing", ConditionDef{
		Eval: func(in Input, _ map[string]string) bool {
			for _, field := range AuditRequiredFields {
				if !in.Event.HasPayloadField(field) {
					return true
				}
			}
			return false
		},
	})
}
