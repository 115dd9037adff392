// Package rules defines the governance rule model: severity levels, action
// specifications, the string-keyed condition registry, and the partition of
// rules into an immutable system set and a configurable project set.
//
// Project rules load from YAML and validate fully at load time. Unknown
// condition identifiers, unknown action types, and attempts to shadow a
// system rule ID all fail the load; nothing is deferred to evaluation time.
package rules
