// Package trigger evaluates governance events against the active rule set
// and produces violations. Evaluation is pure: it never mutates project
// state, never short-circuits, and reports every rule that fires.
package trigger
