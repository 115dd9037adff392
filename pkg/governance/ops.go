package governance

import (
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
)

// Typed wrappers over Submit for the boundary operations. Each constructs
// the corresponding event and runs the full pipeline; there is no shortcut
// around the single gate.

// AdvanceStage requests the transition to target. Permitted only when the
// current stage is frozen and target is the immediate successor.
func (e *Engine) AdvanceStage(actor event.Actor, target state.Stage) (Decision, error) {
	ev, err := event.New(event.TypeStageTransitionRequest, actor, map[string]any{
		PayloadTargetStage: string(target),
	})
	if err != nil {
		return Decision{Verdict: VerdictDeny}, err
	}
	return e.Submit(ev)
}

// FreezeStage freezes the current stage. Requires a human actor; freeze is
// the explicit human confirmation that a stage's decisions are final.
func (e *Engine) FreezeStage(actor event.Actor, reason string) (Decision, error) {
	ev, err := event.New(event.TypeFreezeRequest, actor, map[string]any{
		"reason": reason,
	})
	if err != nil {
		return Decision{Verdict: VerdictDeny}, err
	}
	return e.Submit(ev)
}

// RequestArchitectureBreak forces the project from S5 back to an unfrozen
// S3, recording a critical violation. Only available in S5.
func (e *Engine) RequestArchitectureBreak(actor event.Actor, reason string) (Decision, error) {
	ev, err := event.New(event.TypeArchitectureBreak, actor, map[string]any{
		"reason": reason,
	})
	if err != nil {
		return Decision{Verdict: VerdictDeny}, err
	}
	return e.Submit(ev)
}

// GuardWrite checks a source access request. Reads always pass; writes pass
// only in S5 and outside protected paths.
func (e *Engine) GuardWrite(actor event.Actor, path, intent string) (Decision, error) {
	ev, err := event.New(event.TypeSrcWriteRequest, actor, map[string]any{
		"path":   path,
		"intent": intent,
	})
	if err != nil {
		return Decision{Verdict: VerdictDeny}, err
	}
	return e.Submit(ev)
}

// SubmitAudit records an audit submission. The approver must be human; an
// AI-originated approval is rejected before any event is constructed and
// nothing is appended to the ledger.
func (e *Engine) SubmitAudit(actor, approver event.Actor, metadata map[string]any) (Decision, error) {
	if approver.Role != event.RoleHuman {
		return Decision{Verdict: VerdictDeny}, &ApprovalError{ApproverID: approver.ID, Role: string(approver.Role)}
	}

	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload[PayloadReviewer] = approver.ID

	ev, err := event.New(event.TypeAuditSubmission, actor, payload)
	if err != nil {
		return Decision{Verdict: VerdictDeny}, err
	}
	return e.Submit(ev)
}

// Unlock submits a human approval carrying the unlock authorization.
func (e *Engine) Unlock(actor event.Actor, reason string) (Decision, error) {
	ev, err := event.New(event.TypeApproval, actor, map[string]any{
		PayloadUnlock: true,
		"reason":      reason,
	})
	if err != nil {
		return Decision{Verdict: VerdictDeny}, err
	}
	return e.Submit(ev)
}
