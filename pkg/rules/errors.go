package rules

import "fmt"

// RuleConfigError indicates a rule failed load-time validation.
type RuleConfigError struct {
	File    string
	RuleID  string
	Message string
	Cause   error
}

// Error returns the error message.
func (e *RuleConfigError) Error() string {
	msg := "rule configuration error"
	if e.File != "" {
		msg += " in " + e.File
	}
	if e.RuleID != "" {
		msg += fmt.Sprintf(" (rule %q)", e.RuleID)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuleConfigError) Unwrap() error {
	return e.Cause
}

// UnknownConditionError indicates a rule references a condition identifier
// that is not in the registry. Raised at load time, never during evaluation.
type UnknownConditionError struct {
	RuleID    string
	Condition string
}

// Error returns the error message.
func (e *UnknownConditionError) Error() string {
	return fmt.Sprintf("rule %q references unknown condition %q", e.RuleID, e.Condition)
}

// ShadowedRuleError indicates a project rule tried to reuse a system rule's
// ID. System rules cannot be overridden.
type ShadowedRuleError struct {
	RuleID string
}

// Error returns the error message.
func (e *ShadowedRuleError) Error() string {
	return fmt.Sprintf("project rule %q shadows an immutable system rule", e.RuleID)
}
