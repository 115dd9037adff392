package audit

import "fmt"

// ChainIntegrityError indicates the hash chain failed verification. The
// caller should treat the ledger, and the project it governs, as untrusted.
type ChainIntegrityError struct {
	Seq      uint64
	Expected string
	Actual   string
}

// Error returns the error message.
func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("audit chain broken at sequence %d: recorded hash %s does not match computed %s",
		e.Seq, truncate(e.Actual), truncate(e.Expected))
}

// SequenceError indicates an append with an out-of-order or duplicate
// sequence number.
type SequenceError struct {
	Seq      uint64
	Expected uint64
}

// Error returns the error message.
func (e *SequenceError) Error() string {
	return fmt.Sprintf("audit append out of order: got sequence %d, expected %d", e.Seq, e.Expected)
}

func truncate(h string) string {
	if len(h) > 12 {
		return h[:12] + "..."
	}
	return h
}
