package state

import "sync"

// MemoryStore keeps the project state in memory. Used by tests and by
// ephemeral kernels that do not need durability.
type MemoryStore struct {
	mu    sync.RWMutex
	state ProjectState
	set   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored state, or Initial() when nothing was saved yet.
func (m *MemoryStore) Load() (ProjectState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return Initial(), nil
	}
	return m.state, nil
}

// Save replaces the stored state.
func (m *MemoryStore) Save(s ProjectState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.set = true
	return nil
}
