package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
)

// csvHeader is the column layout of a CSV export. Violations and actions
// are flattened to counts; the JSON export carries the full detail.
var csvHeader = []string{
	"sequence_no",
	"timestamp",
	"event_id",
	"event_type",
	"actor_id",
	"actor_role",
	"verdict",
	"violations",
	"actions",
	"approver",
	"record_hash",
}

// WriteCSV writes the ledger to w as CSV, one row per record, in sequence
// order. Returns the number of records written.
func WriteCSV(ledger *audit.Ledger, w io.Writer) (uint64, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("writing CSV header: %w", err)
	}

	var written uint64
	err := ledger.Scan(func(rec audit.Record) error {
		row := []string{
			strconv.FormatUint(rec.Seq, 10),
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			rec.Event.ID,
			string(rec.Event.Type),
			rec.Event.Actor.ID,
			string(rec.Event.Actor.Role),
			rec.Verdict,
			strconv.Itoa(len(rec.Violations)),
			strconv.Itoa(len(rec.Actions)),
			rec.Approver,
			rec.Hash,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %d: %w", rec.Seq, err)
		}
		written++
		return nil
	})
	if err != nil {
		return written, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("flushing CSV: %w", err)
	}
	return written, nil
}
