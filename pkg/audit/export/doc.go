// Package export serializes the audit ledger for external consumers:
// newline-delimited JSON for machine pipelines and CSV for spreadsheets.
// Exports read the chain in sequence order and never mutate it.
package export
