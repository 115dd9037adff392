package governance

import "fmt"

// UntrustedLedgerError indicates the audit chain failed verification and
// the kernel is refusing mutations until the ledger is repaired.
type UntrustedLedgerError struct {
	FirstBrokenSeq uint64
}

// Error returns the error message.
func (e *UntrustedLedgerError) Error() string {
	return fmt.Sprintf("audit chain is untrusted (first break at sequence %d); kernel is read-only", e.FirstBrokenSeq)
}

// ApprovalError indicates an approval carried a non-human approver. The
// rejection happens before any audit record is constructed.
type ApprovalError struct {
	ApproverID string
	Role       string
}

// Error returns the error message.
func (e *ApprovalError) Error() string {
	return fmt.Sprintf("approver %q has role %q; approvals require a human actor", e.ApproverID, e.Role)
}
