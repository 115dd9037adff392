package audit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/policy"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/trigger"
)

// Entry is what the governance engine hands the ledger per processed event.
type Entry struct {
	Event      *event.Event
	Violations []trigger.Violation
	Actions    []policy.Action
	Verdict    string
	Approver   string
}

// Ledger maintains the hash chain over a storage backend. Appends are
// serialized; reads may run concurrently.
type Ledger struct {
	storage Storage
	logger  *slog.Logger

	mu       sync.Mutex
	nextSeq  uint64
	lastHash string
}

// NewLedger opens a ledger over the given storage, resuming the chain from
// the newest stored record.
func NewLedger(storage Storage, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default().With("component", "audit")
	}

	l := &Ledger{storage: storage, logger: logger}

	last, ok, err := storage.Last()
	if err != nil {
		return nil, fmt.Errorf("reading ledger head: %w", err)
	}
	if ok {
		l.nextSeq = last.Seq + 1
		l.lastHash = last.Hash
	} else {
		l.nextSeq = 1
		l.lastHash = GenesisHash()
	}
	return l, nil
}

// Append creates, hashes and stores the next record in the chain.
func (l *Ledger) Append(e Entry) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := Record{
		Seq:        l.nextSeq,
		Event:      e.Event,
		Violations: e.Violations,
		Actions:    e.Actions,
		Verdict:    e.Verdict,
		Approver:   e.Approver,
		Timestamp:  time.Now().UTC(),
		PrevHash:   l.lastHash,
	}

	hash, err := ComputeHash(rec)
	if err != nil {
		return Record{}, err
	}
	rec.Hash = hash

	if err := l.storage.Append(rec); err != nil {
		return Record{}, fmt.Errorf("appending audit record %d: %w", rec.Seq, err)
	}

	l.nextSeq++
	l.lastHash = rec.Hash

	l.logger.Debug("audit record appended",
		"seq", rec.Seq,
		"event_id", e.Event.ID,
		"verdict", e.Verdict,
		"violations", len(e.Violations),
	)
	return rec, nil
}

// Verify recomputes the hash chain end-to-end and returns the first broken
// sequence number, or success. It never mutates the ledger.
func (l *Ledger) Verify() (VerificationResult, error) {
	result := VerificationResult{CheckedAt: time.Now().UTC()}

	prev := GenesisHash()
	var broken uint64
	var checked uint64
	err := l.storage.Scan(func(rec Record) error {
		checked++
		if broken != 0 {
			return nil
		}
		if rec.Seq != checked {
			broken = rec.Seq
			return nil
		}
		if rec.PrevHash != prev {
			broken = rec.Seq
			return nil
		}
		expected, err := ComputeHash(rec)
		if err != nil {
			return err
		}
		if expected != rec.Hash {
			broken = rec.Seq
			return nil
		}
		prev = rec.Hash
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("scanning ledger: %w", err)
	}

	result.Records = checked
	result.Valid = broken == 0
	result.FirstBrokenSeq = broken
	if !result.Valid {
		l.logger.Error("audit chain verification failed", "first_broken_seq", broken)
	}
	return result, nil
}

// Get returns the record with the given sequence number.
func (l *Ledger) Get(seq uint64) (Record, bool, error) {
	return l.storage.Get(seq)
}

// ByEvent returns all records for an event ID.
func (l *Ledger) ByEvent(eventID string) ([]Record, error) {
	return l.storage.ByEvent(eventID)
}

// ByActor returns all records for an actor ID.
func (l *Ledger) ByActor(actorID string) ([]Record, error) {
	return l.storage.ByActor(actorID)
}

// Count returns the number of appended records.
func (l *Ledger) Count() (uint64, error) {
	return l.storage.Count()
}

// Scan visits every record in sequence order. Reserved for verification and
// export paths.
func (l *Ledger) Scan(fn func(Record) error) error {
	return l.storage.Scan(fn)
}

// Close releases the backing storage.
func (l *Ledger) Close() error {
	return l.storage.Close()
}
