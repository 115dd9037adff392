package score

import (
	"log/slog"
	"sync"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
)

// FullScore is the starting value of both scores.
const FullScore = 100

// Config holds the scoring policy: per-level default penalties and the
// freeze floor.
type Config struct {
	// CriticalPenalty is deducted from the global score per CRITICAL
	// violation.
	CriticalPenalty int `yaml:"critical_penalty"`

	// MajorPenalty is deducted from the stage score per MAJOR violation.
	MajorPenalty int `yaml:"major_penalty"`

	// MinorPenalty is deducted from the stage score per MINOR violation.
	MinorPenalty int `yaml:"minor_penalty"`

	// FreezeFloor arms an implicit project freeze on the next cycle when
	// either score falls below it.
	FreezeFloor int `yaml:"freeze_floor"`
}

// DefaultConfig returns the standard scoring policy.
func DefaultConfig() Config {
	return Config{
		CriticalPenalty: 30,
		MajorPenalty:    10,
		MinorPenalty:    2,
		FreezeFloor:     40,
	}
}

// PenaltyFor returns the default deduction for a severity level.
func (c Config) PenaltyFor(level rules.Level) int {
	switch level {
	case rules.LevelCritical:
		return c.CriticalPenalty
	case rules.LevelMajor:
		return c.MajorPenalty
	case rules.LevelMinor:
		return c.MinorPenalty
	}
	return 0
}

// ScopeFor returns the score a severity level's penalty applies to.
// CRITICAL hits the global score; everything else hits the stage score.
func ScopeFor(level rules.Level) rules.Scope {
	if level == rules.LevelCritical {
		return rules.ScopeGlobal
	}
	return rules.ScopeStage
}

// Snapshot is a read-only view of both scores.
type Snapshot struct {
	Global int `json:"global"`
	Stage  int `json:"stage"`
}

// Engine applies score penalties and reports floor breaches.
type Engine struct {
	config  Config
	logger  *slog.Logger
	history History

	mu     sync.RWMutex
	global int
	stage  int
}

// NewEngine creates a score engine with both scores at full. history may be
// nil when no persistence is wanted.
func NewEngine(config Config, history History, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default().With("component", "score")
	}
	return &Engine{
		config:  config,
		logger:  logger,
		history: history,
		global:  FullScore,
		stage:   FullScore,
	}
}

// Config returns the scoring policy.
func (e *Engine) Config() Config {
	return e.config
}

// Apply deducts a penalty from the scoped score, clamping at zero, and
// returns the resulting snapshot. The global score never recovers; the
// stage score recovers only through ResetStage.
func (e *Engine) Apply(scope rules.Scope, penalty int, reason string) Snapshot {
	if penalty <= 0 {
		return e.Snapshot()
	}

	e.mu.Lock()
	switch scope {
	case rules.ScopeGlobal:
		e.global -= penalty
		if e.global < 0 {
			e.global = 0
		}
	default:
		e.stage -= penalty
		if e.stage < 0 {
			e.stage = 0
		}
	}
	snap := Snapshot{Global: e.global, Stage: e.stage}
	e.mu.Unlock()

	e.logger.Info("score penalty applied",
		"scope", string(scope),
		"penalty", penalty,
		"reason", reason,
		"global", snap.Global,
		"stage", snap.Stage,
	)
	e.record(snap, string(scope), reason)
	return snap
}

// ResetStage restores the stage score to full. Called on stage advance.
func (e *Engine) ResetStage() Snapshot {
	e.mu.Lock()
	e.stage = FullScore
	snap := Snapshot{Global: e.global, Stage: e.stage}
	e.mu.Unlock()

	e.logger.Info("stage score reset", "global", snap.Global)
	e.record(snap, "stage", "stage advance reset")
	return snap
}

// FloorBreached reports whether either score has fallen below the freeze
// floor.
func (e *Engine) FloorBreached() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.global < e.config.FreezeFloor || e.stage < e.config.FreezeFloor
}

// Snapshot returns the current scores.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{Global: e.global, Stage: e.stage}
}

// Restore sets both scores from a persisted snapshot, clamping into range.
func (e *Engine) Restore(snap Snapshot) {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		if v > FullScore {
			return FullScore
		}
		return v
	}
	e.mu.Lock()
	e.global = clamp(snap.Global)
	e.stage = clamp(snap.Stage)
	e.mu.Unlock()
}

func (e *Engine) record(snap Snapshot, scope, reason string) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(snap, scope, reason); err != nil {
		e.logger.Error("recording score history failed", "error", err)
	}
}
