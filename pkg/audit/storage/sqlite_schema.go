package storage

// schema is the audit ledger table layout. The record body is stored as
// JSON; the indexed columns exist for the by-sequence and by-id read paths.
const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    seq INTEGER PRIMARY KEY,
    event_id TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    verdict TEXT NOT NULL,
    record_hash TEXT NOT NULL,
    prior_hash TEXT NOT NULL,
    appended_at INTEGER NOT NULL,
    body TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_records(event_id);
CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_records(actor_id);
`
