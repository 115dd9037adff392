package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
)

// Input is the evaluation context a condition inspects: the incoming event
// and a read-only snapshot of the project state.
type Input struct {
	Event *event.Event
	State state.ProjectState
}

// EvalFunc reports whether the rule's non-compliance condition holds for the
// given input. True means the rule fires.
type EvalFunc func(in Input, params map[string]string) bool

// ValidateFunc checks a rule's params at load time. Conditions with no
// parameters may leave it nil.
type ValidateFunc func(params map[string]string) error

// ConditionDef is a registered condition handler.
type ConditionDef struct {
	Eval     EvalFunc
	Validate ValidateFunc
}

// Registry maps condition identifiers to handlers. The registry is a closed
// set at load time: rules referencing an unregistered identifier fail to
// load.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]ConditionDef
}

// NewRegistry creates a registry pre-populated with the built-in conditions.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]ConditionDef)}
	r.registerBuiltins()
	r.registerSystemConditions()
	return r
}

// Register adds a condition handler. Re-registering an existing identifier
// returns an error; built-ins cannot be replaced.
func (r *Registry) Register(name string, def ConditionDef) error {
	if name == "" {
		return fmt.Errorf("condition name is required")
	}
	if def.Eval == nil {
		return fmt.Errorf("condition %q has no eval function", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("condition %q is already registered", name)
	}
	r.defs[name] = def
	return nil
}

// Lookup returns the handler for a condition identifier.
func (r *Registry) Lookup(name string) (ConditionDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// ValidateRule checks that a rule's condition exists and its params are
// well-formed. Called at load time, never during evaluation.
func (r *Registry) ValidateRule(rule Rule) error {
	def, ok := r.Lookup(rule.Condition)
	if !ok {
		return &UnknownConditionError{RuleID: rule.ID, Condition: rule.Condition}
	}
	if def.Validate != nil {
		if err := def.Validate(rule.Params); err != nil {
			return &RuleConfigError{RuleID: rule.ID, Message: "invalid condition params", Cause: err}
		}
	}
	return nil
}

func (r *Registry) registerBuiltins() {
	mustRegister := func(name string, def ConditionDef) {
		if err := r.Register(name, def); err != nil {
			panic(err)
		}
	}

	requireParam := func(key string) ValidateFunc {
		return func(params map[string]string) error {
			if params[key] == "" {
				return fmt.Errorf("param %q is required", key)
			}
			return nil
		}
	}

	mustRegister("always", ConditionDef{
		Eval: func(Input, map[string]string) bool { return true },
	})

	mustRegister("stage_is", ConditionDef{
		Eval: func(in Input, params map[string]string) bool {
			return string(in.State.Stage) == params["stage"]
		},
		Validate: func(params map[string]string) error {
			_, err := state.ParseStage(params["stage"])
			return err
		},
	})

	mustRegister("stage_not", ConditionDef{
		Eval: func(in Input, params map[string]string) bool {
			return string(in.State.Stage) != params["stage"]
		},
		Validate: func(params map[string]string) error {
			_, err := state.ParseStage(params["stage"])
			return err
		},
	})

	mustRegister("frozen", ConditionDef{
		Eval: func(in Input, _ map[string]string) bool { return in.State.Frozen },
	})

	mustRegister("unfrozen", ConditionDef{
		Eval: func(in Input, _ map[string]string) bool { return !in.State.Frozen },
	})

	mustRegister("locked", ConditionDef{
		Eval: func(in Input, _ map[string]string) bool { return in.State.Locked },
	})

	mustRegister("payload_missing", ConditionDef{
		Eval: func(in Input, params map[string]string) bool {
			for _, field := range splitFields(params["fields"]) {
				if !in.Event.HasPayloadField(field) {
					return true
				}
			}
			return false
		},
		Validate: requireParam("fields"),
	})

	mustRegister("payload_equals", ConditionDef{
		Eval: func(in Input, params map[string]string) bool {
			return in.Event.PayloadString(params["field"]) == params["value"]
		},
		Validate: requireParam("field"),
	})

	mustRegister("payload_not_equals", ConditionDef{
		Eval: func(in Input, params map[string]string) bool {
			return in.Event.PayloadString(params["field"]) != params["value"]
		},
		Validate: requireParam("field"),
	})

	mustRegister("actor_role_is", ConditionDef{
		Eval: func(in Input, params map[string]string) bool {
			return string(in.Event.Actor.Role) == params["role"]
		},
		Validate: func(params map[string]string) error {
			if !event.Role(params["role"]).Valid() {
				return fmt.Errorf("unknown actor role %q", params["role"])
			}
			return nil
		},
	})
}

// splitFields splits a comma-separated field list, trimming whitespace.
func splitFields(v string) []string {
	parts := strings.Split(v, ",")
	fields := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}
