package event

import "fmt"

// MissingActorError indicates an event arrived without a resolvable actor.
// Such events are rejected before any rule evaluation and never advance the
// audit sequence.
type MissingActorError struct {
	ActorID string
	Role    string
}

// Error returns the error message.
func (e *MissingActorError) Error() string {
	if e.ActorID == "" {
		return "event has no resolvable actor"
	}
	return fmt.Sprintf("event actor %q has unresolvable role %q", e.ActorID, e.Role)
}
