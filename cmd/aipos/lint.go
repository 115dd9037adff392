package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/cli"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/rules"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate project rule files",
	Long: `Validate project rule YAML files against the kernel's load-time checks:
  - YAML syntax and file structure
  - Known condition identifiers and parameter shapes
  - Valid severity levels and action types
  - No duplicate IDs, no shadowing of system rules

A file that fails lint would also fail loading; the kernel keeps running
on its previous rules in that case.

Examples:
  # Lint single file
  aipos lint --file rules.yaml

  # Lint directory
  aipos lint --dir rules/

  # JSON output for CI/CD
  aipos lint --file rules.yaml --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// lintResult is the validation outcome for a single rule file.
type lintResult struct {
	File  string `json:"file"`
	Rules int    `json:"rules"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func lintRules(cmd *cobra.Command, args []string) error {
	files, err := collectRuleFiles()
	if err != nil {
		return err
	}

	results := make([]lintResult, 0, len(files))
	failed := 0
	for _, file := range files {
		result := lintRuleFile(file)
		if !result.Valid {
			failed++
		}
		results = append(results, result)
	}

	if lintFlags.format == "json" {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s (%d rules)\n", r.File, r.Rules)
			} else {
				fmt.Printf("✗ %s: %s\n", r.File, r.Error)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(files))
	}
	return nil
}

func collectRuleFiles() ([]string, error) {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return nil, fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no rule files found")
	}
	return files, nil
}

func lintRuleFile(path string) lintResult {
	result := lintResult{File: path}

	if _, err := os.Stat(path); err != nil {
		result.Error = err.Error()
		return result
	}

	loaded, err := rules.LoadFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Rules = len(loaded)

	// Run the same all-or-nothing validation the kernel applies on load.
	if err := rules.NewSet(nil).ReplaceProject(loaded); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Valid = true
	return result
}
