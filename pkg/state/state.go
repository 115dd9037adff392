package state

import "time"

// ProjectState is the durable record of a project's lifecycle position. It is
// created once at project initialization and superseded, never deleted.
//
// Invariants enforced by the validation methods:
//   - Stage only advances forward and never skips a level.
//   - Advancing requires the current stage to be frozen; advancing resets
//     Frozen for the new stage.
//   - Locked == true blocks all stage transitions until an authorized unlock.
//   - An architecture break is the only transition that moves backwards, and
//     only from S5 to S3.
type ProjectState struct {
	// Stage is the current lifecycle stage.
	Stage Stage `json:"stage"`

	// Frozen marks the current stage's decisions as locked in. Freezing
	// requires human confirmation and is irreversible within the stage; only
	// a stage advance clears it.
	Frozen bool `json:"frozen"`

	// Locked blocks every mutating request until an authorized unlock.
	Locked bool `json:"locked"`

	// LastUpdated is when the state was last superseded.
	LastUpdated time.Time `json:"last_updated"`

	// Version is the governance schema version of this state record.
	Version string `json:"version"`
}

// DefaultVersion is the state schema version written by this kernel.
const DefaultVersion = "2.5"

// Initial returns the state of a freshly initialized project.
func Initial() ProjectState {
	return ProjectState{
		Stage:       StageS1,
		Frozen:      false,
		Locked:      false,
		LastUpdated: time.Now().UTC(),
		Version:     DefaultVersion,
	}
}

// ValidateAdvance checks whether the project may advance from its current
// stage to target. A failure is fatal to the request, not to the process.
func (s ProjectState) ValidateAdvance(target Stage) error {
	if s.Locked {
		return &LockedProjectError{Stage: s.Stage}
	}
	next, ok := s.Stage.Next()
	if !ok {
		return &StageViolationError{Stage: s.Stage, Reason: "no stage follows " + string(s.Stage)}
	}
	if !target.Valid() {
		return &StageViolationError{Stage: s.Stage, Reason: "invalid target stage " + string(target)}
	}
	if target != next {
		return &StageViolationError{
			Stage:  s.Stage,
			Reason: "stage transitions may not skip a level: " + string(s.Stage) + " can only reach " + string(next),
		}
	}
	if !s.Frozen {
		return &StageViolationError{
			Stage:  s.Stage,
			Reason: "advancing requires the current stage to be frozen first",
		}
	}
	return nil
}

// ValidateFreeze checks whether the current stage may be frozen.
func (s ProjectState) ValidateFreeze() error {
	if s.Locked {
		return &LockedProjectError{Stage: s.Stage}
	}
	if s.Frozen {
		return &FreezeIrreversibilityError{Stage: s.Stage}
	}
	return nil
}

// ValidateArchitectureBreak checks whether the project may take the special
// S5 -> S3 architecture-break transition.
func (s ProjectState) ValidateArchitectureBreak() error {
	if s.Locked {
		return &LockedProjectError{Stage: s.Stage}
	}
	if s.Stage != StageS5 {
		return &StageViolationError{Stage: s.Stage, Reason: "architecture break is only available in S5"}
	}
	return nil
}

// Advance returns the state after a validated stage advance. Frozen resets
// for the new stage.
func (s ProjectState) Advance(target Stage) ProjectState {
	s.Stage = target
	s.Frozen = false
	s.LastUpdated = time.Now().UTC()
	return s
}

// Freeze returns the state with the current stage frozen.
func (s ProjectState) Freeze() ProjectState {
	s.Frozen = true
	s.LastUpdated = time.Now().UTC()
	return s
}

// BreakArchitecture returns the state after an architecture break: back to
// S3, unfrozen.
func (s ProjectState) BreakArchitecture() ProjectState {
	s.Stage = StageS3
	s.Frozen = false
	s.LastUpdated = time.Now().UTC()
	return s
}

// Unlock returns the state with the lock cleared.
func (s ProjectState) Unlock() ProjectState {
	s.Locked = false
	s.LastUpdated = time.Now().UTC()
	return s
}

// Lock returns the state with the lock set.
func (s ProjectState) Lock() ProjectState {
	s.Locked = true
	s.LastUpdated = time.Now().UTC()
	return s
}
