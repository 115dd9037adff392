package score

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// History persists score changes for later inspection.
type History interface {
	// Record appends a score snapshot with the scope and reason that
	// produced it.
	Record(snap Snapshot, scope, reason string) error

	// Latest returns the most recent recorded snapshot. ok is false when
	// the history is empty.
	Latest() (snap Snapshot, ok bool, err error)

	// Close releases the underlying storage.
	Close() error
}

// HistoryEntry is one persisted score change.
type HistoryEntry struct {
	Global    int       `json:"global"`
	Stage     int       `json:"stage"`
	Scope     string    `json:"scope"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// SQLiteHistory stores score changes in a SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS score_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    global INTEGER NOT NULL,
    stage INTEGER NOT NULL,
    scope TEXT NOT NULL,
    reason TEXT NOT NULL,
    recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_score_history_recorded ON score_history(recorded_at);
`

// NewSQLiteHistory opens (creating when needed) a score history database at
// path.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	if path == "" {
		return nil, fmt.Errorf("score history path is required")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening score history database: %w", err)
	}

	// A single writer keeps WAL contention away.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating score history schema: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// Record appends a score snapshot.
func (h *SQLiteHistory) Record(snap Snapshot, scope, reason string) error {
	_, err := h.db.Exec(
		`INSERT INTO score_history (global, stage, scope, reason, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		snap.Global, snap.Stage, scope, reason, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording score history: %w", err)
	}
	return nil
}

// Latest returns the newest recorded snapshot.
func (h *SQLiteHistory) Latest() (Snapshot, bool, error) {
	row := h.db.QueryRow(`SELECT global, stage FROM score_history ORDER BY id DESC LIMIT 1`)
	var snap Snapshot
	if err := row.Scan(&snap.Global, &snap.Stage); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("reading score history: %w", err)
	}
	return snap, true, nil
}

// Entries returns the most recent limit entries, newest first. limit <= 0
// returns everything.
func (h *SQLiteHistory) Entries(limit int) ([]HistoryEntry, error) {
	query := `SELECT global, stage, scope, reason, recorded_at FROM score_history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying score history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts int64
		if err := rows.Scan(&e.Global, &e.Stage, &e.Scope, &e.Reason, &ts); err != nil {
			return nil, fmt.Errorf("scanning score history row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
