package audit

import (
	"time"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/policy"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/trigger"
)

// Record is one entry of the audit ledger. Created exactly once per
// processed event, immediately after actions are applied, and never mutated
// or deleted afterwards.
type Record struct {
	// Seq is the 1-based position in the chain.
	Seq uint64 `json:"sequence_no"`

	// Event is the processed governance event.
	Event *event.Event `json:"event"`

	// Violations produced by the trigger engine for this event, in rule
	// evaluation order.
	Violations []trigger.Violation `json:"violations,omitempty"`

	// Actions applied as a consequence, in application order.
	Actions []policy.Action `json:"actions_applied,omitempty"`

	// Verdict is the terminal decision for the event.
	Verdict string `json:"verdict"`

	// Approver identifies the human signer for records that carry an
	// explicit approval.
	Approver string `json:"approver,omitempty"`

	// Timestamp is when the record was appended.
	Timestamp time.Time `json:"timestamp"`

	// PrevHash is the record_hash of the preceding record; the genesis
	// record carries the fixed seed digest.
	PrevHash string `json:"prior_record_hash"`

	// Hash is the digest over (sequence_no, event, violations,
	// actions_applied, prior_record_hash).
	Hash string `json:"record_hash"`
}

// VerificationResult is the outcome of an end-to-end chain verification.
type VerificationResult struct {
	// Valid reports an intact chain.
	Valid bool `json:"valid"`

	// FirstBrokenSeq is the sequence number of the first record whose hash
	// does not verify. Zero when the chain is intact.
	FirstBrokenSeq uint64 `json:"first_broken_seq,omitempty"`

	// Records is the number of records checked.
	Records uint64 `json:"records"`

	// CheckedAt is when the verification ran.
	CheckedAt time.Time `json:"checked_at"`
}

// Storage persists audit records. Implementations must reject overwrites:
// appending a sequence number that already exists is an error.
type Storage interface {
	// Append stores a new record.
	Append(rec Record) error

	// Last returns the newest record. ok is false for an empty ledger.
	Last() (rec Record, ok bool, err error)

	// Get returns the record with the given sequence number.
	Get(seq uint64) (rec Record, ok bool, err error)

	// ByEvent returns all records for an event ID, in sequence order.
	ByEvent(eventID string) ([]Record, error)

	// ByActor returns all records for an actor ID, in sequence order.
	ByActor(actorID string) ([]Record, error)

	// Scan visits every record in sequence order. Only chain verification
	// and export may scan the full ledger.
	Scan(fn func(Record) error) error

	// Count returns the number of stored records.
	Count() (uint64, error)

	// Close releases the underlying storage.
	Close() error
}
