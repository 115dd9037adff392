// Package integrity runs scheduled end-to-end verifications of the audit
// chain. A broken chain is reported to the registered callback so the kernel
// can drop into read-only mode.
package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
)

// DefaultSchedule verifies the chain hourly.
const DefaultSchedule = "0 * * * *"

// Sweeper periodically verifies the audit ledger using cron syntax.
type Sweeper struct {
	ledger   *audit.Ledger
	schedule string
	onResult func(audit.VerificationResult)
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewSweeper creates a sweeper over the ledger. onResult receives every
// verification outcome, broken or clean; it may be nil. An empty schedule
// disables the sweeper.
func NewSweeper(ledger *audit.Ledger, schedule string, onResult func(audit.VerificationResult)) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		schedule: schedule,
		onResult: onResult,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "audit.integrity"),
	}
}

// Start begins scheduled verification. It returns immediately; sweeps run on
// the cron goroutine until the context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("integrity schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid integrity schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("scheduling integrity sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("integrity sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Sweep runs one verification cycle immediately.
func (s *Sweeper) Sweep() {
	result, err := s.ledger.Verify()
	if err != nil {
		s.logger.Error("integrity sweep failed", "error", err)
		return
	}

	if result.Valid {
		s.logger.Debug("integrity sweep clean", "records", result.Records)
	} else {
		s.logger.Error("integrity sweep found a broken chain",
			"first_broken_seq", result.FirstBrokenSeq,
			"records", result.Records,
		)
	}
	if s.onResult != nil {
		s.onResult(result)
	}
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("integrity sweeper stopped")
	}
}
