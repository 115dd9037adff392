package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit/storage"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/config"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/governance"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/score"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	auditStore := storage.NewMemoryStore()
	ledger, err := audit.NewLedger(auditStore, nil)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	eng, err := governance.NewEngine(state.NewMemoryStore(), rules.NewSet(nil),
		score.NewEngine(score.DefaultConfig(), nil, nil), ledger, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	cfg := config.Default().Server
	cfg.ShutdownTimeout = time.Second
	return NewServer(cfg, eng, ledger, nil, "", nil), auditStore
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeDecision(t *testing.T, rec *httptest.ResponseRecorder) governance.Decision {
	t.Helper()
	var d governance.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode decision: %v\n%s", err, rec.Body.String())
	}
	return d
}

func TestSubmitEvent_CodeGenerationOutsideS5Denied(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, "POST", "/v1/events", eventRequest{
		Type:    "CODE_GENERATION",
		Actor:   actorRequest{ID: "agent-1", Role: "ai-agent", Source: "api"},
		Payload: map[string]any{"path": "src/main.go"},
	})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	d := decodeDecision(t, rec)
	if d.Verdict != governance.VerdictDenyWithViolations {
		t.Errorf("verdict = %s", d.Verdict)
	}
	if !d.State.Frozen {
		t.Error("critical violation should freeze the project")
	}
	if d.Record == nil || d.Record.Seq != 1 {
		t.Errorf("record = %+v, want seq 1", d.Record)
	}
}

func TestSubmitEvent_StatusAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/v1/events", eventRequest{
		Type:  "STATUS",
		Actor: actorRequest{ID: "alice", Role: "human", Source: "cli"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if d := decodeDecision(t, rec); d.Verdict != governance.VerdictAllow {
		t.Errorf("verdict = %s", d.Verdict)
	}
}

func TestSubmitEvent_MissingActorIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/v1/events", eventRequest{
		Type: "STATUS",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitEvent_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/v1/events", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStage_ReportsStateWithoutAppending(t *testing.T) {
	srv, store := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, "GET", "/v1/stage", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		State     state.ProjectState `json:"state"`
		Untrusted bool               `json:"untrusted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State.Stage != state.StageS1 {
		t.Errorf("stage = %s", resp.State.Stage)
	}
	if n, _ := store.Count(); n != 0 {
		t.Errorf("stage read appended %d records", n)
	}
}

func TestSubmitAudit_AIApproverForbidden(t *testing.T) {
	srv, store := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/v1/audit", auditRequest{
		Actor:    actorRequest{ID: "agent-1", Role: "ai-agent", Source: "api"},
		Approver: actorRequest{ID: "agent-2", Role: "ai-agent", Source: "api"},
		Metadata: map[string]any{"sub_task_id": "T-1"},
	})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if n, _ := store.Count(); n != 0 {
		t.Errorf("rejected approval appended %d records", n)
	}
}

func TestVerify_BrokenChainConflictsAndLocksSubmits(t *testing.T) {
	srv, store := newTestServer(t)
	handler := srv.Handler()

	for i := 0; i < 3; i++ {
		rec := doJSON(t, handler, "POST", "/v1/events", eventRequest{
			Type:  "STATUS",
			Actor: actorRequest{ID: "alice", Role: "human", Source: "cli"},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("seed event %d: status %d", i, rec.Code)
		}
	}

	store.Tamper(2, func(rec *audit.Record) {
		rec.Event.Actor.ID = "forged"
	})

	rec := doJSON(t, handler, "GET", "/v1/audit/verify", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result audit.VerificationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Valid || result.FirstBrokenSeq != 2 {
		t.Errorf("result = %+v", result)
	}

	rec = doJSON(t, handler, "POST", "/v1/events", eventRequest{
		Type:  "STATUS",
		Actor: actorRequest{ID: "alice", Role: "human", Source: "cli"},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("untrusted submit status = %d", rec.Code)
	}
}

func TestRecords_QueryBySeqAndActor(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	doJSON(t, handler, "POST", "/v1/events", eventRequest{
		Type:  "STATUS",
		Actor: actorRequest{ID: "alice", Role: "human", Source: "cli"},
	})
	doJSON(t, handler, "POST", "/v1/events", eventRequest{
		Type:    "CODE_GENERATION",
		Actor:   actorRequest{ID: "agent-1", Role: "ai-agent", Source: "api"},
		Payload: map[string]any{"path": "src/main.go"},
	})

	rec := doJSON(t, handler, "GET", "/v1/audit/records?seq=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seq query status = %d", rec.Code)
	}
	var records []audit.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Seq != 2 {
		t.Errorf("records = %+v", records)
	}

	rec = doJSON(t, handler, "GET", "/v1/audit/records?actor_id=agent-1", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Event.Actor.ID != "agent-1" {
		t.Errorf("actor query records = %+v", records)
	}

	rec = doJSON(t, handler, "GET", "/v1/audit/records?seq=99", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing seq status = %d", rec.Code)
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response missing request ID header")
	}

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied" {
		t.Errorf("request ID = %q, want client-supplied", got)
	}
}
