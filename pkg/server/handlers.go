package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/governance"
)

// maxRequestBody caps event and audit submissions at 1 MiB.
const maxRequestBody = 1 << 20

// defaultRecordLimit bounds unfiltered record queries.
const defaultRecordLimit = 100

type actorRequest struct {
	ID     string `json:"id"`
	Role   string `json:"role"`
	Source string `json:"source"`
	Name   string `json:"name,omitempty"`
}

func (a actorRequest) actor() event.Actor {
	return event.Actor{ID: a.ID, Role: event.Role(a.Role), Source: a.Source, Name: a.Name}
}

type eventRequest struct {
	Type    string         `json:"event_type"`
	Actor   actorRequest   `json:"actor"`
	Payload map[string]any `json:"payload,omitempty"`
}

type auditRequest struct {
	Actor    actorRequest   `json:"actor"`
	Approver actorRequest   `json:"approver"`
	Metadata map[string]any `json:"metadata"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	var resp errorResponse
	resp.Error.Message = message
	writeJSON(w, status, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}

// decisionStatus maps a processed decision onto an HTTP status. The
// decision body is returned either way; a denial is a complete, audited
// outcome, not a transport failure.
func decisionStatus(d governance.Decision) int {
	if d.Denied() {
		return http.StatusForbidden
	}
	return http.StatusOK
}

// handleSubmitEvent runs one full governance cycle for a submitted event.
func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := event.New(event.Type(req.Type), req.Actor.actor(), req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := s.engine.Submit(ev)
	if err != nil {
		var untrusted *governance.UntrustedLedgerError
		if errors.As(err, &untrusted) {
			writeError(w, http.StatusServiceUnavailable, untrusted.Error())
			return
		}
	}
	writeJSON(w, decisionStatus(decision), decision)
}

// handleStage reports the current project state and scores. It never
// mutates anything, including the audit ledger.
func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	st, scores, err := s.engine.State()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "state load failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":     st,
		"scores":    scores,
		"untrusted": s.engine.Untrusted(),
	})
}

// handleSubmitAudit processes an audit submission with reviewer approval.
func (s *Server) handleSubmitAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if !decodeBody(w, r, &req) {
		return
	}

	decision, err := s.engine.SubmitAudit(req.Actor.actor(), req.Approver.actor(), req.Metadata)
	if err != nil {
		var approval *governance.ApprovalError
		var missing *event.MissingActorError
		var untrusted *governance.UntrustedLedgerError
		switch {
		case errors.As(err, &approval):
			writeError(w, http.StatusForbidden, approval.Error())
			return
		case errors.As(err, &missing):
			writeError(w, http.StatusBadRequest, missing.Error())
			return
		case errors.As(err, &untrusted):
			writeError(w, http.StatusServiceUnavailable, untrusted.Error())
			return
		}
	}
	writeJSON(w, decisionStatus(decision), decision)
}

// handleVerify walks the full hash chain. A broken chain answers 409 and
// flips the kernel read-only as a side effect of verification.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.VerifyAudit()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "verification failed: "+err.Error())
		return
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

// handleRecords queries the audit trail by seq, event_id, or actor_id.
// Without a filter it returns the most recent records up to limit.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if raw := q.Get("seq"); raw != "" {
		seq, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid seq: "+raw)
			return
		}
		rec, ok, err := s.ledger.Get(seq)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "no record with seq "+raw)
			return
		}
		writeJSON(w, http.StatusOK, []audit.Record{rec})
		return
	}

	var records []audit.Record
	var err error
	switch {
	case q.Get("event_id") != "":
		records, err = s.ledger.ByEvent(q.Get("event_id"))
	case q.Get("actor_id") != "":
		records, err = s.ledger.ByActor(q.Get("actor_id"))
	default:
		limit := defaultRecordLimit
		if raw := q.Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				writeError(w, http.StatusBadRequest, "invalid limit: "+raw)
				return
			}
		}
		err = s.ledger.Scan(func(rec audit.Record) error {
			records = append(records, rec)
			if len(records) > limit {
				records = records[1:]
			}
			return nil
		})
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
