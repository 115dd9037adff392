package rules

import "sync"

// Set holds the active rule configuration: the immutable system rules
// followed by the replaceable project rules. System rules always evaluate
// first and cannot be shadowed.
type Set struct {
	registry *Registry

	mu      sync.RWMutex
	system  []Rule
	project []Rule
}

// NewSet creates a rule set containing only the system rules.
func NewSet(registry *Registry) *Set {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Set{
		registry: registry,
		system:   SystemRules(),
	}
}

// Registry returns the condition registry backing this set.
func (s *Set) Registry() *Registry {
	return s.registry
}

// ReplaceProject swaps in a new project rule set after validating every rule.
// On any validation failure nothing changes and the previous project rules
// stay active.
func (s *Set) ReplaceProject(rules []Rule) error {
	systemIDs := make(map[string]bool, len(s.system))
	for _, r := range s.system {
		systemIDs[r.ID] = true
	}

	seen := make(map[string]bool, len(rules))
	validated := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return &RuleConfigError{Message: "rule is missing an id"}
		}
		if systemIDs[r.ID] {
			return &ShadowedRuleError{RuleID: r.ID}
		}
		if seen[r.ID] {
			return &RuleConfigError{RuleID: r.ID, Message: "duplicate rule id"}
		}
		seen[r.ID] = true
		if !r.Level.Valid() {
			return &RuleConfigError{RuleID: r.ID, Message: "invalid severity level " + string(r.Level)}
		}
		if r.Condition == "" {
			return &RuleConfigError{RuleID: r.ID, Message: "rule is missing a condition"}
		}
		if err := s.registry.ValidateRule(r); err != nil {
			return err
		}
		for _, a := range r.Actions {
			if !a.Type.Valid() {
				return &RuleConfigError{RuleID: r.ID, Message: "unknown action type " + string(a.Type)}
			}
			if a.Scope != "" && !a.Scope.Valid() {
				return &RuleConfigError{RuleID: r.ID, Message: "unknown action scope " + string(a.Scope)}
			}
			if a.Penalty < 0 {
				return &RuleConfigError{RuleID: r.ID, Message: "action penalty must not be negative"}
			}
		}
		r.System = false
		validated = append(validated, r)
	}

	s.mu.Lock()
	s.project = validated
	s.mu.Unlock()
	return nil
}

// Rules returns the active rules in evaluation order: system first, then
// project. The returned slice is a copy.
func (s *Set) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, 0, len(s.system)+len(s.project))
	out = append(out, s.system...)
	out = append(out, s.project...)
	return out
}

// ProjectCount returns the number of active project rules.
func (s *Set) ProjectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.project)
}
