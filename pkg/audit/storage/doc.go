// Package storage provides audit ledger backends: an in-memory store for
// tests and ephemeral kernels, and a SQLite store for durable ledgers.
package storage
