package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit/integrity"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/cli"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/config"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/governance"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/score"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/server"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/telemetry/logging"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the governance kernel API server",
	Long: `Start the governance kernel with the specified configuration.

The kernel loads project state and rules, resumes the audit hash chain,
and serves the event API on the configured address.

Examples:
  # Start with default config
  aipos run

  # Start with custom config
  aipos run --config /etc/aipos/config.yaml

  # Override listen address
  aipos run --listen 0.0.0.0:8080

  # Validate config without starting the server
  aipos run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger := logging.Setup(logging.Options{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Aipos v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx := cli.SetupSignalHandler()

	// Project state
	stateStore, err := buildStateStore(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	// Scoring, restored from persisted history when available
	var history score.History
	if cfg.Score.HistoryPath != "" {
		sqlHistory, err := score.NewSQLiteHistory(cfg.Score.HistoryPath)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("open score history: %w", err))
		}
		defer sqlHistory.Close()
		history = sqlHistory
	}
	scores := score.NewEngine(score.Config{
		CriticalPenalty: cfg.Score.CriticalPenalty,
		MajorPenalty:    cfg.Score.MajorPenalty,
		MinorPenalty:    cfg.Score.MinorPenalty,
		FreezeFloor:     cfg.Score.FreezeFloor,
	}, history, logger)
	if history != nil {
		if snap, ok, err := history.Latest(); err != nil {
			logger.Warn("score history unreadable, starting from full scores", "error", err)
		} else if ok {
			scores.Restore(snap)
		}
	}

	// Rules: system rules always, project rules when the file exists
	ruleSet := rules.NewSet(nil)
	if err := rules.LoadInto(ruleSet, cfg.Rules.Path); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("load project rules: %w", err))
	}
	fmt.Printf("✓ Rules loaded (%d project rules)\n", ruleSet.ProjectCount())
	if cfg.Rules.Watch {
		watcher := rules.NewWatcher(ruleSet, cfg.Rules.Path, logger)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("rule watcher stopped", "error", err)
			}
		}()
	}

	// Audit ledger
	auditStore, err := buildAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer auditStore.Close()
	ledger, err := audit.NewLedger(auditStore, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("open audit ledger: %w", err))
	}
	fmt.Println("✓ Audit ledger opened")

	// Metrics
	collector := metrics.NewCollector(cfg.Telemetry.Metrics.Enabled, nil)

	// Governance engine
	engine, err := governance.NewEngine(stateStore, ruleSet, scores, ledger, collector, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	// Verify the chain before accepting events; a broken ledger starts the
	// kernel read-only.
	result, err := engine.VerifyAudit()
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("startup verification: %w", err))
	}
	if !result.Valid {
		fmt.Printf("✗ Audit chain broken at seq %d, kernel is read-only\n", result.FirstBrokenSeq)
	} else {
		fmt.Printf("✓ Audit chain verified (%d records)\n", result.Records)
	}

	// Scheduled integrity sweeps
	if cfg.Audit.IntegritySchedule != "" {
		sweeper := integrity.NewSweeper(ledger, cfg.Audit.IntegritySchedule, func(res audit.VerificationResult) {
			collector.VerificationRan(res.Valid)
			if !res.Valid {
				engine.MarkUntrusted(res.FirstBrokenSeq)
			}
		})
		if err := sweeper.Start(ctx); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("start integrity sweeper: %w", err))
		}
		defer sweeper.Stop()
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}
	srv := server.NewServer(cfg.Server, engine, ledger, metricsHandler, cfg.Telemetry.Metrics.Path, logger)

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Println("✓ Server stopped")
	return nil
}
