package storage

import (
	"sync"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
)

// MemoryStore keeps the ledger in memory. Records are stored in append
// order; sequence numbers are validated on append.
type MemoryStore struct {
	mu      sync.RWMutex
	records []audit.Record
	byEvent map[string][]int
	byActor map[string][]int
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEvent: make(map[string][]int),
		byActor: make(map[string][]int),
	}
}

// Append stores a new record, enforcing contiguous sequence numbers.
func (m *MemoryStore) Append(rec audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := uint64(len(m.records)) + 1
	if rec.Seq != expected {
		return &audit.SequenceError{Seq: rec.Seq, Expected: expected}
	}

	idx := len(m.records)
	m.records = append(m.records, rec)
	if rec.Event != nil {
		m.byEvent[rec.Event.ID] = append(m.byEvent[rec.Event.ID], idx)
		m.byActor[rec.Event.Actor.ID] = append(m.byActor[rec.Event.Actor.ID], idx)
	}
	return nil
}

// Last returns the newest record.
func (m *MemoryStore) Last() (audit.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return audit.Record{}, false, nil
	}
	return m.records[len(m.records)-1], true, nil
}

// Get returns the record with the given sequence number.
func (m *MemoryStore) Get(seq uint64) (audit.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if seq == 0 || seq > uint64(len(m.records)) {
		return audit.Record{}, false, nil
	}
	return m.records[seq-1], true, nil
}

// ByEvent returns all records for an event ID, in sequence order.
func (m *MemoryStore) ByEvent(eventID string) ([]audit.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.byEvent[eventID]), nil
}

// ByActor returns all records for an actor ID, in sequence order.
func (m *MemoryStore) ByActor(actorID string) ([]audit.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.byActor[actorID]), nil
}

func (m *MemoryStore) collect(idxs []int) []audit.Record {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]audit.Record, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, m.records[i])
	}
	return out
}

// Scan visits every record in sequence order.
func (m *MemoryStore) Scan(fn func(audit.Record) error) error {
	m.mu.RLock()
	snapshot := make([]audit.Record, len(m.records))
	copy(snapshot, m.records)
	m.mu.RUnlock()

	for _, rec := range snapshot {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored records.
func (m *MemoryStore) Count() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.records)), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Tamper overwrites a stored record in place. Only chain-verification tests
// use it; the Storage interface deliberately has no such method.
func (m *MemoryStore) Tamper(seq uint64, mutate func(*audit.Record)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq == 0 || seq > uint64(len(m.records)) {
		return false
	}
	mutate(&m.records[seq-1])
	return true
}
