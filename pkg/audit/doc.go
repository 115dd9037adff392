// Package audit implements the append-only, hash-chained audit ledger.
// Every processed event yields exactly one record; records are immutable
// once appended and any later tampering is detectable by recomputing the
// chain end-to-end. Storage backends live in the storage subpackage.
package audit
