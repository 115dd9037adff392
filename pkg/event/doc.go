// Package event defines the immutable event model for the governance kernel.
//
// Every governed action enters the kernel as a GovernanceEvent carrying the
// accountable Actor, an event type, and an opaque payload. Events without a
// resolvable Actor are rejected before any rule evaluation (fail-closed);
// payload shape validation is delegated to the rules that inspect it.
package event
