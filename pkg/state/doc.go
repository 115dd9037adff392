// Package state holds the durable project lifecycle state: the current stage
// (S1 through S5), the freeze and lock overlay flags, and their persistence.
//
// The state aggregate has a single writer: the governance engine. Storage
// backends implement the Store interface; all other components receive
// read-only snapshots.
package state
