package governance

import (
	"errors"
	"testing"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit/storage"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/score"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
)

var (
	human = event.Actor{ID: "alice", Role: event.RoleHuman, Source: "cli"}
	agent = event.Actor{ID: "agent-1", Role: event.RoleAgent, Source: "api"}
)

type testKernel struct {
	engine *Engine
	store  *state.MemoryStore
	audit  *storage.MemoryStore
}

func newKernel(t *testing.T) *testKernel {
	t.Helper()
	stateStore := state.NewMemoryStore()
	auditStore := storage.NewMemoryStore()
	ledger, err := audit.NewLedger(auditStore, nil)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	eng, err := NewEngine(stateStore, rules.NewSet(nil), score.NewEngine(score.DefaultConfig(), nil, nil), ledger, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &testKernel{engine: eng, store: stateStore, audit: auditStore}
}

func (k *testKernel) mustState(t *testing.T) state.ProjectState {
	t.Helper()
	st, _, err := k.engine.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	return st
}

func (k *testKernel) recordCount(t *testing.T) uint64 {
	t.Helper()
	n, err := k.audit.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	return n
}

// advanceTo walks the kernel forward, freezing and advancing stage by
// stage, until it reaches target.
func advanceTo(t *testing.T, k *testKernel, target state.Stage) {
	t.Helper()
	for {
		st := k.mustState(t)
		if st.Stage == target {
			return
		}
		if dec, err := k.engine.FreezeStage(human, "stage complete"); err != nil {
			t.Fatalf("FreezeStage in %s: %v (%+v)", st.Stage, err, dec)
		}
		next, ok := st.Stage.Next()
		if !ok {
			t.Fatalf("no stage after %s", st.Stage)
		}
		if dec, err := k.engine.AdvanceStage(human, next); err != nil {
			t.Fatalf("AdvanceStage to %s: %v (%+v)", next, err, dec)
		}
	}
}

func submit(t *testing.T, k *testKernel, typ event.Type, actor event.Actor, payload map[string]any) (Decision, error) {
	t.Helper()
	ev, err := event.New(typ, actor, payload)
	if err != nil {
		t.Fatalf("event.New: %v", err)
	}
	return k.engine.Submit(ev)
}

func TestSubmit_MissingActorAppendsNothing(t *testing.T) {
	k := newKernel(t)

	dec, err := k.engine.Submit(&event.Event{Type: event.TypeCodeGeneration})
	if dec.Verdict != VerdictDeny {
		t.Errorf("Verdict = %s, want DENY", dec.Verdict)
	}
	var missing *event.MissingActorError
	if !errors.As(err, &missing) {
		t.Errorf("expected MissingActorError, got %v", err)
	}
	if n := k.recordCount(t); n != 0 {
		t.Errorf("audit sequence advanced to %d for a rejected event", n)
	}
}

func TestSubmit_CodeGenerationOutsideS5(t *testing.T) {
	k := newKernel(t)
	advanceTo(t, k, state.StageS3)

	dec, err := submit(t, k, event.TypeCodeGeneration, agent, map[string]any{"module": "kernel"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if dec.Verdict != VerdictDenyWithViolations {
		t.Errorf("Verdict = %s, want DENY_WITH_VIOLATIONS", dec.Verdict)
	}
	if len(dec.Violations) != 1 || dec.Violations[0].RuleID != rules.RuleCodeOutsideS5 {
		t.Fatalf("Violations = %+v, want one code_outside_s5", dec.Violations)
	}
	if dec.Violations[0].Level != rules.LevelCritical {
		t.Errorf("Level = %s, want CRITICAL", dec.Violations[0].Level)
	}

	types := map[rules.ActionType]bool{}
	for _, a := range dec.Actions {
		types[a.Type] = true
	}
	for _, want := range []rules.ActionType{rules.ActionFreezeProject, rules.ActionScorePenalty, rules.ActionLogAudit} {
		if !types[want] {
			t.Errorf("actions missing %s: %+v", want, dec.Actions)
		}
	}

	if !dec.State.Frozen {
		t.Error("critical violation must freeze the project in the same cycle")
	}
	if dec.Scores.Global != 70 {
		t.Errorf("global score = %d, want 70 after one critical", dec.Scores.Global)
	}
	if dec.Record == nil || dec.Record.Seq == 0 {
		t.Error("denial must still append an audit record")
	}
}

func TestSubmit_CleanWriteInS5(t *testing.T) {
	k := newKernel(t)
	advanceTo(t, k, state.StageS5)

	before := k.recordCount(t)
	dec, err := k.engine.GuardWrite(agent, "src/kernel.go", "write")
	if err != nil {
		t.Fatalf("GuardWrite: %v", err)
	}

	if dec.Verdict != VerdictAllow {
		t.Errorf("Verdict = %s, want ALLOW: %+v", dec.Verdict, dec.Violations)
	}
	if len(dec.Violations) != 0 {
		t.Errorf("clean write produced violations: %+v", dec.Violations)
	}
	if len(dec.Actions) != 1 || dec.Actions[0].Type != rules.ActionLogAudit {
		t.Errorf("actions = %+v, want only LOG_AUDIT", dec.Actions)
	}
	if k.recordCount(t) != before+1 {
		t.Error("exactly one audit record must be appended per event")
	}
}

func TestSubmit_ReadIntentAlwaysAllowed(t *testing.T) {
	k := newKernel(t)

	dec, err := k.engine.GuardWrite(agent, "src/kernel.go", "read")
	if err != nil {
		t.Fatalf("GuardWrite: %v", err)
	}
	if dec.Verdict != VerdictAllow {
		t.Errorf("read in S1 should be allowed, got %s (%+v)", dec.Verdict, dec.Violations)
	}
}

func TestSubmit_ProtectedPathNeedsApproval(t *testing.T) {
	k := newKernel(t)
	advanceTo(t, k, state.StageS5)

	dec, err := k.engine.GuardWrite(agent, "core/engine.go", "write")
	if err != nil {
		t.Fatalf("GuardWrite: %v", err)
	}
	if dec.Verdict != VerdictDenyWithViolations {
		t.Errorf("Verdict = %s, want DENY_WITH_VIOLATIONS", dec.Verdict)
	}
	if !dec.RequiresApproval {
		t.Error("protected path write must require human approval")
	}
}

func TestAdvanceStage_NeverSkipsALevel(t *testing.T) {
	k := newKernel(t)
	advanceTo(t, k, state.StageS2)
	if _, err := k.engine.FreezeStage(human, "s2 done"); err != nil {
		t.Fatalf("FreezeStage: %v", err)
	}

	dec, err := k.engine.AdvanceStage(human, state.StageS4)
	var sv *state.StageViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("expected StageViolationError, got %v", err)
	}
	if dec.Verdict != VerdictDenyWithViolations {
		t.Errorf("Verdict = %s, want DENY_WITH_VIOLATIONS", dec.Verdict)
	}
	if st := k.mustState(t); st.Stage != state.StageS2 {
		t.Errorf("stage moved to %s on a denied skip", st.Stage)
	}

	// The immediate successor is still reachable.
	if _, err := k.engine.AdvanceStage(human, state.StageS3); err != nil {
		t.Fatalf("AdvanceStage to S3: %v", err)
	}
	if st := k.mustState(t); st.Stage != state.StageS3 || st.Frozen {
		t.Errorf("state after advance = %+v, want unfrozen S3", st)
	}
}

func TestAdvanceStage_RequiresFrozen(t *testing.T) {
	k := newKernel(t)

	_, err := k.engine.AdvanceStage(human, state.StageS2)
	var sv *state.StageViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("expected StageViolationError, got %v", err)
	}
	if st := k.mustState(t); st.Stage != state.StageS1 {
		t.Errorf("stage = %s, want S1", st.Stage)
	}
}

func TestFreeze_IrreversibleWithinStage(t *testing.T) {
	k := newKernel(t)
	if _, err := k.engine.FreezeStage(human, "s1 done"); err != nil {
		t.Fatalf("FreezeStage: %v", err)
	}

	// A second freeze of the same stage is denied.
	_, err := k.engine.FreezeStage(human, "again")
	var fi *state.FreezeIrreversibilityError
	if !errors.As(err, &fi) {
		t.Fatalf("expected FreezeIrreversibilityError, got %v", err)
	}

	// An explicit unfreeze is never satisfiable.
	dec, err := submit(t, k, event.TypeUnfreeze, human, nil)
	if !errors.As(err, &fi) {
		t.Fatalf("expected FreezeIrreversibilityError, got %v", err)
	}
	if dec.Verdict != VerdictDenyWithViolations {
		t.Errorf("Verdict = %s", dec.Verdict)
	}
	if st := k.mustState(t); !st.Frozen {
		t.Error("frozen flag cleared without a stage advance")
	}

	// Only the advance clears it.
	if _, err := k.engine.AdvanceStage(human, state.StageS2); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if st := k.mustState(t); st.Frozen {
		t.Error("advance must reset the freeze for the new stage")
	}
}

func TestFreeze_RequiresHumanConfirmation(t *testing.T) {
	k := newKernel(t)

	_, err := k.engine.FreezeStage(agent, "agent tries to freeze")
	var ae *ApprovalError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ApprovalError, got %v", err)
	}
	if st := k.mustState(t); st.Frozen {
		t.Error("agent-originated freeze must not take effect")
	}
}

func TestFrozenGate_BlocksMutations(t *testing.T) {
	k := newKernel(t)
	if _, err := k.engine.FreezeStage(human, "s1 done"); err != nil {
		t.Fatalf("FreezeStage: %v", err)
	}

	dec, err := submit(t, k, event.TypeCodeGeneration, agent, nil)
	var sv *state.StageViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("expected StageViolationError, got %v", err)
	}
	if dec.Verdict != VerdictDenyWithViolations {
		t.Errorf("Verdict = %s", dec.Verdict)
	}
	if len(dec.Violations) != 1 || dec.Violations[0].RuleID != RuleFrozenProject {
		t.Errorf("Violations = %+v, want frozen_project", dec.Violations)
	}
}

func TestLockedProject_RejectsMutationsUntilUnlock(t *testing.T) {
	k := newKernel(t)
	if err := k.store.Save(state.Initial().Lock()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dec, err := submit(t, k, event.TypeCodeGeneration, agent, nil)
	var lp *state.LockedProjectError
	if !errors.As(err, &lp) {
		t.Fatalf("expected LockedProjectError, got %v", err)
	}
	if len(dec.Violations) != 1 || dec.Violations[0].RuleID != RuleProjectLocked {
		t.Errorf("Violations = %+v, want project_locked", dec.Violations)
	}

	// An agent approval cannot unlock, and trips the self-approval rule.
	dec, err = k.engine.Unlock(agent, "let me in")
	if err != nil {
		t.Fatalf("Unlock(agent): %v", err)
	}
	if dec.Verdict != VerdictDenyWithViolations {
		t.Errorf("agent unlock verdict = %s", dec.Verdict)
	}
	if st := k.mustState(t); !st.Locked {
		t.Fatal("agent approval cleared the lock")
	}

	// A human approval with the unlock authorization clears it.
	dec, err = k.engine.Unlock(human, "incident resolved")
	if err != nil {
		t.Fatalf("Unlock(human): %v", err)
	}
	if dec.Verdict != VerdictAllow {
		t.Errorf("human unlock verdict = %s (%+v)", dec.Verdict, dec.Violations)
	}
	if st := k.mustState(t); st.Locked {
		t.Error("human-authorized unlock did not clear the lock")
	}
}

func TestArchitectureBreak_OnlyFromS5(t *testing.T) {
	k := newKernel(t)

	// Not available outside S5.
	_, err := k.engine.RequestArchitectureBreak(human, "wrong shape")
	var sv *state.StageViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("expected StageViolationError, got %v", err)
	}

	advanceTo(t, k, state.StageS5)
	dec, err := k.engine.RequestArchitectureBreak(human, "layering is wrong")
	if err != nil {
		t.Fatalf("RequestArchitectureBreak: %v", err)
	}

	if dec.State.Stage != state.StageS3 {
		t.Errorf("stage = %s, want S3", dec.State.Stage)
	}
	if dec.State.Frozen {
		t.Error("architecture break must land in an unfrozen S3")
	}
	found := false
	for _, v := range dec.Violations {
		if v.RuleID == rules.RuleArchitectureBreak && v.Level == rules.LevelCritical {
			found = true
		}
	}
	if !found {
		t.Errorf("no CRITICAL architecture_break violation recorded: %+v", dec.Violations)
	}
	if dec.Scores.Global != 70 {
		t.Errorf("global score = %d, want 70 after the break penalty", dec.Scores.Global)
	}
}

func TestAuditSubmission_AIApproverRejectedBeforeAppend(t *testing.T) {
	k := newKernel(t)

	before := k.recordCount(t)
	dec, err := k.engine.SubmitAudit(agent, agent, map[string]any{"sub_task_id": "t-1"})
	var ae *ApprovalError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ApprovalError, got %v", err)
	}
	if dec.Verdict != VerdictDeny {
		t.Errorf("Verdict = %s, want DENY", dec.Verdict)
	}
	if k.recordCount(t) != before {
		t.Error("rejected approval must not append an audit record")
	}
}

func TestAuditSubmission_MissingFieldsIsMajor(t *testing.T) {
	k := newKernel(t)

	dec, err := k.engine.SubmitAudit(agent, human, map[string]any{"sub_task_id": "t-1"})
	if err != nil {
		t.Fatalf("SubmitAudit: %v", err)
	}
	if dec.Verdict != VerdictDenyWithViolations {
		t.Errorf("Verdict = %s", dec.Verdict)
	}
	if len(dec.Violations) != 1 || dec.Violations[0].RuleID != rules.RuleAuditMissing {
		t.Errorf("Violations = %+v", dec.Violations)
	}
	if dec.Record.Approver != "alice" {
		t.Errorf("Approver = %q, want alice", dec.Record.Approver)
	}
}

func TestAuditSubmission_CompleteIsAllowed(t *testing.T) {
	k := newKernel(t)

	metadata := map[string]any{
		"sub_task_id":             "t-1",
		"layer":                   "core",
		"files_changed":           "engine.go",
		"correctness_assertion":   "covered by acceptance tests",
		"architecture_compliance": "yes",
	}
	dec, err := k.engine.SubmitAudit(agent, human, metadata)
	if err != nil {
		t.Fatalf("SubmitAudit: %v", err)
	}
	if dec.Verdict != VerdictAllow {
		t.Errorf("Verdict = %s (%+v)", dec.Verdict, dec.Violations)
	}
}

func TestScoreFloor_ArmsFreezeOnNextCycle(t *testing.T) {
	k := newKernel(t)

	// Seven incomplete audit submissions drop the stage score to 30,
	// below the default floor of 40.
	for i := 0; i < 7; i++ {
		if _, err := k.engine.SubmitAudit(agent, human, map[string]any{"sub_task_id": "t"}); err != nil {
			t.Fatalf("SubmitAudit %d: %v", i, err)
		}
	}
	if st := k.mustState(t); st.Frozen {
		t.Fatal("floor breach must arm the freeze for the next cycle, not this one")
	}

	dec, err := k.engine.GuardWrite(agent, "src/a.go", "read")
	if err != nil {
		t.Fatalf("GuardWrite: %v", err)
	}
	if !dec.State.Frozen {
		t.Error("armed floor breach must freeze the project on the next cycle")
	}
	froze := false
	for _, a := range dec.Actions {
		if a.Type == rules.ActionFreezeProject && a.System {
			froze = true
		}
	}
	if !froze {
		t.Errorf("no system freeze action in %+v", dec.Actions)
	}
}

func TestUntrustedLedger_KernelGoesReadOnly(t *testing.T) {
	k := newKernel(t)
	advanceTo(t, k, state.StageS2)

	k.audit.Tamper(1, func(rec *audit.Record) { rec.Event.Actor.ID = "forged" })

	result, err := k.engine.VerifyAudit()
	if err != nil {
		t.Fatalf("VerifyAudit: %v", err)
	}
	if result.Valid || result.FirstBrokenSeq != 1 {
		t.Fatalf("verification = %+v, want break at 1", result)
	}
	if !k.engine.Untrusted() {
		t.Fatal("broken chain must mark the kernel untrusted")
	}

	before := k.recordCount(t)
	dec, err := submit(t, k, event.TypeCodeGeneration, agent, nil)
	var ul *UntrustedLedgerError
	if !errors.As(err, &ul) {
		t.Fatalf("expected UntrustedLedgerError, got %v", err)
	}
	if dec.Verdict != VerdictDeny {
		t.Errorf("Verdict = %s", dec.Verdict)
	}
	if k.recordCount(t) != before {
		t.Error("untrusted kernel appended to the broken ledger")
	}

	// Reads stay available.
	if _, _, err := k.engine.State(); err != nil {
		t.Errorf("State while untrusted: %v", err)
	}
}

func TestVerify_IdempotentOnUnmodifiedChain(t *testing.T) {
	k := newKernel(t)
	advanceTo(t, k, state.StageS3)

	first, err := k.engine.VerifyAudit()
	if err != nil {
		t.Fatalf("VerifyAudit: %v", err)
	}
	second, err := k.engine.VerifyAudit()
	if err != nil {
		t.Fatalf("VerifyAudit: %v", err)
	}
	if first.Valid != second.Valid || first.Records != second.Records || first.FirstBrokenSeq != second.FirstBrokenSeq {
		t.Errorf("verification not idempotent: %+v vs %+v", first, second)
	}
}

func TestDeny_NeverRollsBackAppliedActions(t *testing.T) {
	k := newKernel(t)
	advanceTo(t, k, state.StageS3)

	dec, err := submit(t, k, event.TypeCodeGeneration, agent, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if dec.Verdict != VerdictDenyWithViolations {
		t.Fatalf("Verdict = %s", dec.Verdict)
	}

	// The denial's consequences stick: the penalty and the freeze survive
	// the DENY verdict and are visible to the next reader.
	st := k.mustState(t)
	if !st.Frozen {
		t.Error("freeze rolled back after denial")
	}
	_, scores, err := k.engine.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if scores.Global != 70 {
		t.Errorf("global score = %d, want the penalty to persist", scores.Global)
	}
}

func TestStageAdvance_ResetsStageScoreOnly(t *testing.T) {
	k := newKernel(t)

	// One incomplete audit submission dents the stage score.
	if _, err := k.engine.SubmitAudit(agent, human, map[string]any{"sub_task_id": "t"}); err != nil {
		t.Fatalf("SubmitAudit: %v", err)
	}
	_, scores, _ := k.engine.State()
	if scores.Stage != 90 {
		t.Fatalf("stage score = %d, want 90", scores.Stage)
	}

	advanceTo(t, k, state.StageS2)
	_, scores, _ = k.engine.State()
	if scores.Stage != 100 {
		t.Errorf("stage score = %d, want reset to 100 on advance", scores.Stage)
	}
}
