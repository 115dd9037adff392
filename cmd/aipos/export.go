package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit/export"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/cli"
)

var exportFlags struct {
	format string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit trail",
	Long: `Export every audit record in chain order.

Formats:
  json  newline-delimited JSON, one record per line
  csv   flat rows with violation and action counts

Examples:
  # NDJSON to stdout
  aipos export

  # CSV to a file
  aipos export --format csv --output audit.csv`,
	RunE: exportRecords,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFlags.format, "format", "json", "export format: json, csv")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file (default stdout)")
}

func exportRecords(cmd *cobra.Command, args []string) error {
	ledger, _, err := openLedger(cfgFile)
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	defer ledger.Close()

	var out io.Writer = os.Stdout
	if exportFlags.output != "" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return cli.NewCommandError("export", err)
		}
		defer f.Close()
		out = f
	}

	var count uint64
	switch exportFlags.format {
	case "json":
		count, err = export.WriteJSON(ledger, out)
	case "csv":
		count, err = export.WriteCSV(ledger, out)
	default:
		return fmt.Errorf("unsupported export format: %s", exportFlags.format)
	}
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	if exportFlags.output != "" {
		fmt.Printf("✓ Exported %d records to %s\n", count, exportFlags.output)
	}
	return nil
}
