package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "aipos",
	Short: "Aipos - governance kernel for AI-assisted projects",
	Long: `Aipos is a governance kernel that puts AI-assisted development under
human-sovereign control.

Every governed action arrives as an event, passes through a single rule
gate, and lands in a hash-chained audit ledger:
  - Staged lifecycle (S1-S5) with forward-only transitions
  - Immutable system rules plus hot-reloaded project rules
  - Global and stage scoring with an automatic freeze floor
  - Tamper-evident audit trail with scheduled verification
  - Human approval required for freezes, unlocks, and audits`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
