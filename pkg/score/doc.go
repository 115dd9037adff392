// Package score tracks the project health scores. The global score is
// project-wide and never recovers from a deduction; the stage score resets
// to full when the project advances to a new stage. Scores change only
// through governance actions, never directly from rule evaluation.
package score
