package state

// Store persists the project state aggregate.
//
// Implementations must make Save atomic: a crash mid-write must leave either
// the previous state or the new one, never a torn record.
type Store interface {
	// Load returns the current project state. When no state has ever been
	// saved, Load returns Initial() and no error.
	Load() (ProjectState, error)

	// Save replaces the current project state.
	Save(ProjectState) error
}
