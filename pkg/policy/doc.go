// Package policy maps violations to governance actions. The mapping is
// table-driven: each rule declares its actions, the policy engine adds the
// implicit consequences (score penalties per violation, a project freeze on
// any CRITICAL finding or score-floor breach), then deduplicates the result.
// System-declared actions always survive deduplication; project
// configuration can add restrictions but never weaken system policy.
package policy
