package state

import "fmt"

// StageViolationError indicates an action was attempted outside its permitted
// stage, or a transition would skip or rewind the lifecycle.
type StageViolationError struct {
	Stage  Stage
	Reason string
}

// Error returns the error message.
func (e *StageViolationError) Error() string {
	return fmt.Sprintf("stage violation in %s: %s", e.Stage, e.Reason)
}

// FreezeIrreversibilityError indicates an attempt to unfreeze a stage without
// advancing it. Freeze is irreversible within a stage.
type FreezeIrreversibilityError struct {
	Stage Stage
}

// Error returns the error message.
func (e *FreezeIrreversibilityError) Error() string {
	return fmt.Sprintf("stage %s is frozen; freeze cannot be reversed without a stage advance", e.Stage)
}

// LockedProjectError indicates a mutating request arrived while the project
// lock was set.
type LockedProjectError struct {
	Stage Stage
}

// Error returns the error message.
func (e *LockedProjectError) Error() string {
	return fmt.Sprintf("project is locked in stage %s; no mutations accepted until an authorized unlock", e.Stage)
}
