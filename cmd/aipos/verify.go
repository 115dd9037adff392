package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/cli"
)

var verifyFlags struct {
	format string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit hash chain",
	Long: `Walk the full audit ledger and verify the hash chain record by record.

The command exits non-zero when the chain is broken, printing the first
broken sequence number.

Examples:
  # Verify the configured ledger
  aipos verify

  # JSON result for CI
  aipos verify --format json`,
	RunE: verifyChain,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyFlags.format, "format", "text", "output format: text, json")
}

// verifyReport is the printable verification summary.
type verifyReport struct {
	audit.VerificationResult
}

func (r verifyReport) String() string {
	if r.Valid {
		return fmt.Sprintf("chain valid, %d records", r.Records)
	}
	return fmt.Sprintf("chain BROKEN at seq %d (%d records checked)", r.FirstBrokenSeq, r.Records)
}

func verifyChain(cmd *cobra.Command, args []string) error {
	ledger, _, err := openLedger(cfgFile)
	if err != nil {
		return cli.NewCommandError("verify", err)
	}
	defer ledger.Close()

	result, err := ledger.Verify()
	if err != nil {
		return cli.NewCommandError("verify", err)
	}

	formatter := cli.NewFormatter(cli.OutputFormat(verifyFlags.format))
	if err := formatter.FormatTo(os.Stdout, verifyReport{result}); err != nil {
		return err
	}

	if !result.Valid {
		return cli.NewCommandError("verify", fmt.Errorf("chain broken at seq %d", result.FirstBrokenSeq))
	}
	return nil
}
