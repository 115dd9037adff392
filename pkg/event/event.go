package event

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the kind of accountable entity behind an event.
type Role string

const (
	// RoleHuman is a human operator.
	RoleHuman Role = "human"

	// RoleAgent is an AI coding agent.
	RoleAgent Role = "ai-agent"

	// RoleSystem is the governance system itself (scheduled checks, hooks).
	RoleSystem Role = "system"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHuman, RoleAgent, RoleSystem:
		return true
	}
	return false
}

// Actor is the accountable origin of a governance event. Every event must
// carry a non-empty Actor; anonymous events are rejected before processing.
type Actor struct {
	// ID is the unique identifier of the actor (user name, agent session id).
	ID string `json:"id"`

	// Role distinguishes humans from AI agents and the system itself.
	// Human-sovereignty checks (freeze confirmation, audit approval, unlock)
	// key off this field.
	Role Role `json:"role"`

	// Source is the channel the actor arrived through (e.g., "cli", "api",
	// "claude", "cursor").
	Source string `json:"source"`

	// Name is an optional human-readable name.
	Name string `json:"name,omitempty"`
}

// Resolvable reports whether the actor carries enough identity to be held
// accountable: a non-empty ID and a known role.
func (a Actor) Resolvable() bool {
	return a.ID != "" && a.Role.Valid()
}

// Type is the kind of governed action an event describes. The enumeration is
// open: project rules may match additional types, but the kernel's state
// machine only reacts to the types declared here.
type Type string

const (
	TypeStageTransitionRequest Type = "STAGE_TRANSITION_REQUEST"
	TypeCodeGeneration         Type = "CODE_GENERATION"
	TypeSrcWriteRequest        Type = "SRC_WRITE_REQUEST"
	TypeAuditSubmission        Type = "AUDIT_SUBMISSION"
	TypeArchViolation          Type = "ARCH_VIOLATION"
	TypeFreezeRequest          Type = "FREEZE_REQUEST"
	TypeUnfreeze               Type = "UNFREEZE"
	TypeArchitectureBreak      Type = "ARCHITECTURE_BREAK"
	TypeApproval               Type = "APPROVAL"
	TypeToolCall               Type = "TOOL_CALL"
	TypeStatus                 Type = "STATUS"
)

// Event is an immutable description of an attempted actor action. It is
// constructed once and never mutated; all kernel components consume it
// read-only.
type Event struct {
	// ID is a UUID assigned at construction.
	ID string `json:"id"`

	// Type is the kind of governed action.
	Type Type `json:"event_type"`

	// Actor is the accountable origin of the event.
	Actor Actor `json:"actor"`

	// Payload carries event-specific data. The kernel treats it as opaque;
	// individual rules and state-machine handlers inspect the fields they
	// care about.
	Payload map[string]any `json:"payload,omitempty"`

	// Timestamp is when the event was constructed.
	Timestamp time.Time `json:"timestamp"`
}

// New constructs a GovernanceEvent. It fails with MissingActorError when the
// actor is not resolvable; this check runs before any rule evaluation.
func New(eventType Type, actor Actor, payload map[string]any) (*Event, error) {
	if !actor.Resolvable() {
		return nil, &MissingActorError{ActorID: actor.ID, Role: string(actor.Role)}
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

// PayloadString returns the string value of a payload field, or "" when the
// field is absent or not a string.
func (e *Event) PayloadString(key string) string {
	if e.Payload == nil {
		return ""
	}
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

// PayloadBool returns the boolean value of a payload field, or false when the
// field is absent or not a boolean.
func (e *Event) PayloadBool(key string) bool {
	if e.Payload == nil {
		return false
	}
	if b, ok := e.Payload[key].(bool); ok {
		return b
	}
	return false
}

// HasPayloadField reports whether the payload contains a non-nil value for key.
func (e *Event) HasPayloadField(key string) bool {
	if e.Payload == nil {
		return false
	}
	v, ok := e.Payload[key]
	return ok && v != nil
}
