package trigger

import (
	"time"

	"github.com/google/uuid"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
)

// Violation is a recorded non-compliance finding. Immutable after creation
// except for Resolved, which only an explicit resolution action may set.
type Violation struct {
	// ID uniquely identifies the violation.
	ID string `json:"id"`

	// Level is the severity inherited from the firing rule.
	Level rules.Level `json:"level"`

	// RuleID names the rule that fired.
	RuleID string `json:"rule_id"`

	// System reports whether the firing rule was a system rule.
	System bool `json:"system"`

	// EventID is the event that triggered the rule.
	EventID string `json:"event_id"`

	// ActorID is the actor responsible for the triggering event.
	ActorID string `json:"actor_id"`

	// Message describes the finding for audit readers.
	Message string `json:"message"`

	// Timestamp is when the violation was created.
	Timestamp time.Time `json:"timestamp"`

	// Resolved is set only by an explicit resolution action.
	Resolved bool `json:"resolved"`
}

// NewViolation creates a violation from a firing rule and its triggering
// event.
func NewViolation(rule rules.Rule, ev *event.Event) Violation {
	msg := rule.Description
	if msg == "" {
		msg = "rule " + rule.ID + " fired"
	}
	return Violation{
		ID:        uuid.NewString(),
		Level:     rule.Level,
		RuleID:    rule.ID,
		System:    rule.System,
		EventID:   ev.ID,
		ActorID:   ev.Actor.ID,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}
