package governance

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/event"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/policy"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/score"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/trigger"
)

// Payload keys the engine itself interprets. Everything else in a payload
// is opaque to the kernel and visible only to rules.
const (
	// PayloadTargetStage names the requested stage on a transition request.
	PayloadTargetStage = "target_stage"

	// PayloadUnlock marks an approval event as an unlock authorization.
	PayloadUnlock = "unlock"

	// PayloadReviewer names the human reviewer on an audit submission.
	PayloadReviewer = "reviewer"
)

// Synthetic rule identifiers for violations the engine records itself, for
// denials that do not originate from the rule set.
const (
	RuleFrozenProject      = "frozen_project"
	RuleProjectLocked      = "project_locked"
	RuleStageViolation     = "stage_violation"
	RuleFreezeIrreversible = "freeze_irreversible"
	RuleFreezeUnauthorized = "freeze_unauthorized"
)

// Observer receives kernel telemetry. All methods are called synchronously
// inside the processing cycle; implementations must be fast and non-blocking.
type Observer interface {
	EventProcessed(eventType, verdict string)
	ViolationRecorded(level, ruleID string)
	ActionApplied(actionType string)
	ScoresUpdated(global, stage int)
	AuditAppended(seq uint64)
	VerificationRan(valid bool)
}

// Engine is the governance kernel. It owns the only write path to project
// state, scores, and the audit ledger; every governed action goes through
// Submit.
type Engine struct {
	store    state.Store
	set      *rules.Set
	triggers *trigger.Engine
	policies *policy.Engine
	scores   *score.Engine
	ledger   *audit.Ledger
	observer Observer
	logger   *slog.Logger

	// mu serializes the full processing cycle: no two events may interleave
	// their state mutations or produce out-of-order audit records.
	mu         sync.Mutex
	floorArmed bool
	untrusted  atomic.Bool
	brokenSeq  atomic.Uint64
}

// NewEngine assembles the kernel. observer may be nil.
func NewEngine(store state.Store, set *rules.Set, scores *score.Engine, ledger *audit.Ledger, observer Observer, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default().With("component", "governance")
	}
	if _, err := store.Load(); err != nil {
		return nil, fmt.Errorf("loading project state: %w", err)
	}

	return &Engine{
		store:    store,
		set:      set,
		triggers: trigger.NewEngine(set, logger.With("component", "trigger")),
		policies: policy.NewEngine(set, scores.Config(), logger.With("component", "policy")),
		scores:   scores,
		ledger:   ledger,
		observer: observer,
		logger:   logger,
	}, nil
}

// RuleSet returns the active rule set, for loaders and watchers.
func (e *Engine) RuleSet() *rules.Set {
	return e.set
}

// State returns a consistent snapshot of the project state and scores.
func (e *Engine) State() (state.ProjectState, score.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.store.Load()
	if err != nil {
		return state.ProjectState{}, score.Snapshot{}, err
	}
	return st, e.scores.Snapshot(), nil
}

// Untrusted reports whether the kernel is in read-only mode after a chain
// break.
func (e *Engine) Untrusted() bool {
	return e.untrusted.Load()
}

// MarkUntrusted drops the kernel into read-only mode. Called when chain
// verification finds a break.
func (e *Engine) MarkUntrusted(firstBrokenSeq uint64) {
	e.brokenSeq.Store(firstBrokenSeq)
	if e.untrusted.CompareAndSwap(false, true) {
		e.logger.Error("kernel marked untrusted, mutations disabled",
			"first_broken_seq", firstBrokenSeq,
		)
	}
}

// VerifyAudit runs an end-to-end chain verification. A broken chain marks
// the kernel untrusted; the result is surfaced either way.
func (e *Engine) VerifyAudit() (audit.VerificationResult, error) {
	result, err := e.ledger.Verify()
	if err != nil {
		return result, err
	}
	if !result.Valid {
		e.MarkUntrusted(result.FirstBrokenSeq)
	}
	if e.observer != nil {
		e.observer.VerificationRan(result.Valid)
	}
	return result, nil
}

// Submit processes one event through the full pipeline: validate actor,
// evaluate triggers, resolve and apply actions, apply the event's requested
// operation, append the audit record, return the verdict. The whole cycle
// is one critical section; denials are recorded, never rolled back.
//
// The returned error classifies a denial (state.StageViolationError,
// state.LockedProjectError, ...) or reports an infrastructure failure. A
// denial decided by rule violations alone returns a nil error; the Decision
// carries the full story in every case.
func (e *Engine) Submit(ev *event.Event) (Decision, error) {
	if ev == nil {
		return Decision{Verdict: VerdictDeny}, fmt.Errorf("nil event")
	}
	if !ev.Actor.Resolvable() {
		// Rejected before any rule evaluation or audit append.
		return Decision{Verdict: VerdictDeny}, &event.MissingActorError{ActorID: ev.Actor.ID, Role: string(ev.Actor.Role)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A broken chain makes the kernel read-only: no event may append to a
	// ledger that no longer verifies. State and audit reads stay available.
	if e.untrusted.Load() {
		return Decision{Verdict: VerdictDeny}, &UntrustedLedgerError{FirstBrokenSeq: e.brokenSeq.Load()}
	}

	st, err := e.store.Load()
	if err != nil {
		return Decision{Verdict: VerdictDeny}, fmt.Errorf("loading project state: %w", err)
	}

	if st.Locked && !lockExempt(ev.Type) {
		v := e.syntheticViolation(RuleProjectLocked, rules.LevelCritical,
			"mutating request while the project is locked", ev)
		dec, err := e.finish(ev, st, []trigger.Violation{v}, nil, false)
		if err != nil {
			return dec, err
		}
		return dec, &state.LockedProjectError{Stage: st.Stage}
	}

	if st.Frozen && !freezeExempt(ev.Type) {
		v := e.syntheticViolation(RuleFrozenProject, rules.LevelCritical,
			"mutating request while the stage is frozen", ev)
		dec, err := e.finish(ev, st, []trigger.Violation{v}, nil, false)
		if err != nil {
			return dec, err
		}
		return dec, &state.StageViolationError{Stage: st.Stage, Reason: "stage is frozen"}
	}

	violations := e.triggers.Evaluate(rules.Input{Event: ev, State: st})
	actions := e.policies.Resolve(violations, e.floorArmed)

	requiresApproval := false
	for _, a := range actions {
		e.applyAction(a, ev, &st, &requiresApproval)
	}

	opErr := e.applyOperation(ev, &st, &violations)

	dec, err := e.finish(ev, st, violations, actions, requiresApproval)
	if err != nil {
		return dec, err
	}
	return dec, opErr
}

// lockExempt lists the event types still processed while locked: reads and
// the approval path that can authorize the unlock.
func lockExempt(t event.Type) bool {
	return t == event.TypeStatus || t == event.TypeApproval
}

// freezeExempt lists the event types still processed while frozen: reads,
// the stage advance that clears the freeze, approvals, and the freeze and
// unfreeze requests that resolve to their own denials.
func freezeExempt(t event.Type) bool {
	switch t {
	case event.TypeStatus, event.TypeStageTransitionRequest, event.TypeApproval,
		event.TypeFreezeRequest, event.TypeUnfreeze:
		return true
	}
	return false
}

// applyAction executes one resolved action against the mutable state.
func (e *Engine) applyAction(a policy.Action, ev *event.Event, st *state.ProjectState, requiresApproval *bool) {
	switch a.Type {
	case rules.ActionScorePenalty:
		e.scores.Apply(a.Scope, a.Penalty, a.Reason)

	case rules.ActionFreezeProject:
		if !st.Frozen {
			*st = st.Freeze()
			e.logger.Warn("project frozen by policy", "reason", a.Reason)
		}

	case rules.ActionRequireHumanApproval:
		*requiresApproval = true

	case rules.ActionUnlock:
		if authorizedUnlock(ev) {
			*st = st.Unlock()
			e.logger.Info("project unlocked", "actor_id", ev.Actor.ID)
		} else {
			e.logger.Warn("unlock action without human authorization ignored",
				"actor_id", ev.Actor.ID,
			)
		}

	case rules.ActionUnfreezeProject:
		// Freeze is irreversible within a stage; only a stage advance
		// clears it.
		e.logger.Warn("unfreeze action ignored", "rule_id", a.RuleID)

	case rules.ActionLogAudit:
		// The record is appended for every processed event.
	}

	if e.observer != nil {
		e.observer.ActionApplied(string(a.Type))
	}
}

// applyOperation performs the event-specific state transition, if the event
// requests one. A failed transition records a synthetic violation and
// returns the taxonomy error; it never aborts the cycle.
func (e *Engine) applyOperation(ev *event.Event, st *state.ProjectState, violations *[]trigger.Violation) error {
	switch ev.Type {
	case event.TypeStageTransitionRequest:
		target, err := state.ParseStage(ev.PayloadString(PayloadTargetStage))
		if err == nil {
			err = st.ValidateAdvance(target)
		}
		if err != nil {
			*violations = append(*violations, e.syntheticViolation(RuleStageViolation, rules.LevelCritical, err.Error(), ev))
			if _, ok := err.(*state.LockedProjectError); ok {
				return err
			}
			if sv, ok := err.(*state.StageViolationError); ok {
				return sv
			}
			return &state.StageViolationError{Stage: st.Stage, Reason: err.Error()}
		}
		*st = st.Advance(target)
		e.scores.ResetStage()
		e.logger.Info("stage advanced", "stage", string(st.Stage), "actor_id", ev.Actor.ID)
		return nil

	case event.TypeFreezeRequest:
		if ev.Actor.Role != event.RoleHuman {
			*violations = append(*violations, e.syntheticViolation(RuleFreezeUnauthorized, rules.LevelMajor,
				"freeze requires human confirmation", ev))
			return &ApprovalError{ApproverID: ev.Actor.ID, Role: string(ev.Actor.Role)}
		}
		if err := st.ValidateFreeze(); err != nil {
			*violations = append(*violations, e.syntheticViolation(RuleFreezeIrreversible, rules.LevelMajor, err.Error(), ev))
			return err
		}
		*st = st.Freeze()
		e.logger.Info("stage frozen", "stage", string(st.Stage), "actor_id", ev.Actor.ID)
		return nil

	case event.TypeUnfreeze:
		// Never satisfiable: the only way out of a freeze is an authorized
		// stage advance.
		*violations = append(*violations, e.syntheticViolation(RuleFreezeIrreversible, rules.LevelMajor,
			"freeze cannot be reversed without a stage advance", ev))
		return &state.FreezeIrreversibilityError{Stage: st.Stage}

	case event.TypeArchitectureBreak:
		if err := st.ValidateArchitectureBreak(); err != nil {
			*violations = append(*violations, e.syntheticViolation(RuleStageViolation, rules.LevelCritical, err.Error(), ev))
			return err
		}
		// Applied after the policy actions, so the punitive freeze from the
		// CRITICAL violation is superseded by the reset to an unfrozen S3.
		*st = st.BreakArchitecture()
		e.logger.Warn("architecture break", "actor_id", ev.Actor.ID, "stage", string(st.Stage))
		return nil

	case event.TypeApproval:
		if authorizedUnlock(ev) && st.Locked {
			*st = st.Unlock()
			e.logger.Info("project unlocked by approval", "actor_id", ev.Actor.ID)
		}
		return nil
	}
	return nil
}

// finish saves the state, appends the audit record, and assembles the
// decision. Exactly one record is appended per processed event.
func (e *Engine) finish(ev *event.Event, st state.ProjectState, violations []trigger.Violation, actions []policy.Action, requiresApproval bool) (Decision, error) {
	// Every decision is recorded; the implicit LOG_AUDIT closes the action
	// sequence.
	actions = append(actions, policy.Action{
		Type:   rules.ActionLogAudit,
		Reason: "decision recorded",
		System: true,
	})

	if err := e.store.Save(st); err != nil {
		return Decision{Verdict: VerdictDeny}, fmt.Errorf("saving project state: %w", err)
	}

	e.floorArmed = e.scores.FloorBreached()

	verdict := VerdictAllow
	if len(violations) > 0 {
		verdict = VerdictDenyWithViolations
	}

	rec, err := e.ledger.Append(audit.Entry{
		Event:      ev,
		Violations: violations,
		Actions:    actions,
		Verdict:    string(verdict),
		Approver:   approverOf(ev),
	})
	if err != nil {
		return Decision{Verdict: VerdictDeny}, fmt.Errorf("appending audit record: %w", err)
	}

	snap := e.scores.Snapshot()
	if e.observer != nil {
		e.observer.EventProcessed(string(ev.Type), string(verdict))
		for _, v := range violations {
			e.observer.ViolationRecorded(string(v.Level), v.RuleID)
		}
		e.observer.ScoresUpdated(snap.Global, snap.Stage)
		e.observer.AuditAppended(rec.Seq)
	}

	e.logger.Info("event processed",
		"event_id", ev.ID,
		"event_type", string(ev.Type),
		"actor_id", ev.Actor.ID,
		"verdict", string(verdict),
		"violations", len(violations),
		"stage", string(st.Stage),
	)

	return Decision{
		Verdict:          verdict,
		Violations:       violations,
		Actions:          actions,
		RequiresApproval: requiresApproval,
		State:            st,
		Scores:           snap,
		Record:           &rec,
	}, nil
}

// syntheticViolation records an engine-originated denial in the same shape
// as a rule violation.
func (e *Engine) syntheticViolation(ruleID string, level rules.Level, msg string, ev *event.Event) trigger.Violation {
	return trigger.NewViolation(rules.Rule{
		ID:          ruleID,
		Level:       level,
		Description: msg,
		System:      true,
	}, ev)
}

// authorizedUnlock reports whether the event is a human approval carrying
// the unlock authorization.
func authorizedUnlock(ev *event.Event) bool {
	return ev.Type == event.TypeApproval &&
		ev.Actor.Role == event.RoleHuman &&
		ev.PayloadBool(PayloadUnlock)
}

// approverOf extracts the human signer for records that carry one.
func approverOf(ev *event.Event) string {
	if ev.Type == event.TypeAuditSubmission {
		return ev.PayloadString(PayloadReviewer)
	}
	if ev.Actor.Role == event.RoleHuman &&
		(ev.Type == event.TypeApproval || ev.Type == event.TypeFreezeRequest) {
		return ev.Actor.ID
	}
	return ""
}
