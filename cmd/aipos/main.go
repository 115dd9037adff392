// Aipos is a governance kernel for AI-assisted software projects.
//
// It enforces a staged development lifecycle (S1 through S5), evaluates
// every governed action against system and project rules, and records each
// decision in a hash-chained audit ledger:
//   - Stage machine with forward-only, no-skip transitions
//   - Immutable system rules plus hot-reloaded project rules
//   - Global and stage scoring with an automatic freeze floor
//   - Tamper-evident audit trail with scheduled verification
//   - Human-sovereignty checks on freezes, unlocks, and audit approvals
//
// Usage:
//
//	# Start the kernel API server with default configuration
//	aipos run
//
//	# Start with custom configuration file
//	aipos run --config /path/to/config.yaml
//
//	# Show the current project stage and scores
//	aipos stage
//
//	# Verify the audit hash chain
//	aipos verify
//
//	# Export the audit trail
//	aipos export --format csv --output audit.csv
//
//	# Validate a project rule file
//	aipos lint --file rules.yaml
package main

func main() {
	Execute()
}
