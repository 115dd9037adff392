package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/policy"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/trigger"
)

// genesisSeed is the fixed value the first record chains from. Changing it
// invalidates every existing ledger.
const genesisSeed = "aipos:audit:genesis:v1"

// GenesisHash returns the seed digest used as the genesis record's
// prior_record_hash.
func GenesisHash() string {
	sum := sha256.Sum256([]byte(genesisSeed))
	return hex.EncodeToString(sum[:])
}

// hashEnvelope is the exact field set the record digest covers. JSON
// marshaling sorts map keys, so the serialization is canonical for a given
// record.
type hashEnvelope struct {
	Seq        uint64              `json:"sequence_no"`
	Event      *event.Event        `json:"event"`
	Violations []trigger.Violation `json:"violations"`
	Actions    []policy.Action     `json:"actions_applied"`
	PrevHash   string              `json:"prior_record_hash"`
}

// ComputeHash returns the hex-encoded SHA-256 digest of the record's hash
// envelope. The Hash, Verdict, Approver and Timestamp fields are not part
// of the envelope.
func ComputeHash(rec Record) (string, error) {
	env := hashEnvelope{
		Seq:        rec.Seq,
		Event:      rec.Event,
		Violations: rec.Violations,
		Actions:    rec.Actions,
		PrevHash:   rec.PrevHash,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("serializing record %d for hashing: %w", rec.Seq, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
