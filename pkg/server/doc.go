// Package server exposes the governance kernel over HTTP.
//
// Endpoints:
//
//	POST /v1/events          submit a governance event for a full cycle
//	GET  /v1/stage           current project state and scores
//	POST /v1/audit           submit an audit with reviewer approval
//	GET  /v1/audit/verify    walk and verify the hash chain
//	GET  /v1/audit/records   query appended audit records
//	GET  /metrics            Prometheus exposition
//	GET  /healthz            liveness probe
//
// Every request passes through recovery, request ID, and logging
// middleware. Read endpoints never mutate project state or append to
// the ledger.
package server
