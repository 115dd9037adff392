package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/cli"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/config"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/score"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
)

var stageFlags struct {
	format string
}

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Show the current project stage and scores",
	Long: `Show the persisted project state: current stage, frozen and locked
flags, and the latest recorded scores.

Examples:
  # Human-readable summary
  aipos stage

  # JSON for scripting
  aipos stage --format json`,
	RunE: showStage,
}

func init() {
	rootCmd.AddCommand(stageCmd)

	stageCmd.Flags().StringVar(&stageFlags.format, "format", "text", "output format: text, json")
}

// stageReport is the printable stage summary.
type stageReport struct {
	State  state.ProjectState `json:"state"`
	Scores score.Snapshot     `json:"scores"`
}

func (r stageReport) String() string {
	return fmt.Sprintf("stage=%s frozen=%t locked=%t global_score=%d stage_score=%d",
		r.State.Stage, r.State.Frozen, r.State.Locked, r.Scores.Global, r.Scores.Stage)
}

func showStage(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	store, err := buildStateStore(cfg)
	if err != nil {
		return cli.NewCommandError("stage", err)
	}
	st, err := store.Load()
	if err != nil {
		return cli.NewCommandError("stage", fmt.Errorf("load state: %w", err))
	}

	report := stageReport{State: st, Scores: score.Snapshot{Global: score.FullScore, Stage: score.FullScore}}
	if cfg.Score.HistoryPath != "" {
		history, err := score.NewSQLiteHistory(cfg.Score.HistoryPath)
		if err == nil {
			defer history.Close()
			if snap, ok, err := history.Latest(); err == nil && ok {
				report.Scores = snap
			}
		}
	}

	return cli.NewFormatter(cli.OutputFormat(stageFlags.format)).FormatTo(os.Stdout, report)
}
