// Package governance implements the single-gate kernel: every governed
// action enters through Engine.Submit, which validates the actor, evaluates
// the rules, resolves and applies the actions, updates state and scores, and
// appends exactly one audit record before returning a verdict. There is no
// bypass path and no rollback: a denial is recorded, not suppressed.
package governance
