package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
)

// WriteJSON streams every ledger record to w as newline-delimited JSON, one
// record per line, in sequence order. Returns the number of records written.
func WriteJSON(ledger *audit.Ledger, w io.Writer) (uint64, error) {
	enc := json.NewEncoder(w)
	var written uint64
	err := ledger.Scan(func(rec audit.Record) error {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding record %d: %w", rec.Seq, err)
		}
		written++
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, nil
}
