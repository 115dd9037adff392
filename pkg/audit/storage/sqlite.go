package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
)

// SQLiteStore persists the audit ledger in a SQLite database. Record bodies
// are stored as JSON so every hash-covered field survives round-trips;
// indexed columns serve the point reads.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating when needed) a ledger database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("audit database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	// Single writer; the ledger serializes appends anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append stores a new record. The seq primary key rejects duplicates.
func (s *SQLiteStore) Append(rec audit.Record) error {
	count, err := s.Count()
	if err != nil {
		return err
	}
	if rec.Seq != count+1 {
		return &audit.SequenceError{Seq: rec.Seq, Expected: count + 1}
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serializing audit record %d: %w", rec.Seq, err)
	}

	actorID := ""
	eventID := ""
	if rec.Event != nil {
		eventID = rec.Event.ID
		actorID = rec.Event.Actor.ID
	}

	_, err = s.db.Exec(
		`INSERT INTO audit_records (seq, event_id, actor_id, verdict, record_hash, prior_hash, appended_at, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Seq, eventID, actorID, rec.Verdict, rec.Hash, rec.PrevHash, rec.Timestamp.UnixNano(), string(body),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return &audit.SequenceError{Seq: rec.Seq, Expected: count + 1}
		}
		return fmt.Errorf("inserting audit record %d: %w", rec.Seq, err)
	}
	return nil
}

// Last returns the newest record.
func (s *SQLiteStore) Last() (audit.Record, bool, error) {
	return s.one(`SELECT body FROM audit_records ORDER BY seq DESC LIMIT 1`)
}

// Get returns the record with the given sequence number.
func (s *SQLiteStore) Get(seq uint64) (audit.Record, bool, error) {
	return s.one(`SELECT body FROM audit_records WHERE seq = ?`, seq)
}

func (s *SQLiteStore) one(query string, args ...any) (audit.Record, bool, error) {
	var body string
	err := s.db.QueryRow(query, args...).Scan(&body)
	if err == sql.ErrNoRows {
		return audit.Record{}, false, nil
	}
	if err != nil {
		return audit.Record{}, false, fmt.Errorf("querying audit record: %w", err)
	}
	rec, err := decode(body)
	if err != nil {
		return audit.Record{}, false, err
	}
	return rec, true, nil
}

// ByEvent returns all records for an event ID, in sequence order.
func (s *SQLiteStore) ByEvent(eventID string) ([]audit.Record, error) {
	return s.many(`SELECT body FROM audit_records WHERE event_id = ? ORDER BY seq`, eventID)
}

// ByActor returns all records for an actor ID, in sequence order.
func (s *SQLiteStore) ByActor(actorID string) ([]audit.Record, error) {
	return s.many(`SELECT body FROM audit_records WHERE actor_id = ? ORDER BY seq`, actorID)
}

func (s *SQLiteStore) many(query string, args ...any) ([]audit.Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		rec, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Scan visits every record in sequence order.
func (s *SQLiteStore) Scan(fn func(audit.Record) error) error {
	rows, err := s.db.Query(`SELECT body FROM audit_records ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("scanning audit records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("scanning audit row: %w", err)
		}
		rec, err := decode(body)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count() (uint64, error) {
	var n uint64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting audit records: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decode(body string) (audit.Record, error) {
	var rec audit.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return audit.Record{}, fmt.Errorf("decoding audit record: %w", err)
	}
	return rec, nil
}
