// Package config defines the kernel configuration: YAML file loading,
// defaults, validation, and AIPOS_* environment overrides.
package config

import "time"

// Config is the root configuration structure for the governance kernel.
type Config struct {
	// Server contains the HTTP API server configuration.
	Server ServerConfig `yaml:"server"`

	// State contains the project state persistence configuration.
	State StateConfig `yaml:"state"`

	// Rules contains the project rule set configuration.
	Rules RulesConfig `yaml:"rules"`

	// Score contains the scoring policy: per-level penalties and the
	// freeze floor.
	Score ScoreConfig `yaml:"score"`

	// Audit contains the audit ledger configuration.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8845"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are dropped.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StateConfig contains configuration for project state persistence.
type StateConfig struct {
	// Backend selects the state store.
	// Options: "file", "memory"
	// Default: "file"
	Backend string `yaml:"backend"`

	// Path is the state file location when Backend is "file".
	// Default: "./data/state.json"
	Path string `yaml:"path"`
}

// RulesConfig contains configuration for the project rule set.
type RulesConfig struct {
	// Path is the project rule YAML file. A missing file means the kernel
	// runs on system rules alone.
	// Default: "./rules.yaml"
	Path string `yaml:"path"`

	// Watch enables hot reloading when the rule file changes.
	// Default: true
	Watch bool `yaml:"watch"`
}

// ScoreConfig contains the scoring policy.
type ScoreConfig struct {
	// CriticalPenalty is the global-score deduction per CRITICAL violation.
	// Default: 30
	CriticalPenalty int `yaml:"critical_penalty"`

	// MajorPenalty is the stage-score deduction per MAJOR violation.
	// Default: 10
	MajorPenalty int `yaml:"major_penalty"`

	// MinorPenalty is the stage-score deduction per MINOR violation.
	// Default: 2
	MinorPenalty int `yaml:"minor_penalty"`

	// FreezeFloor arms an implicit project freeze when either score falls
	// below it.
	// Default: 40
	FreezeFloor int `yaml:"freeze_floor"`

	// HistoryPath is the SQLite database for score history. Empty disables
	// history.
	// Default: "./data/scores.db"
	HistoryPath string `yaml:"history_path"`
}

// AuditConfig contains configuration for the audit ledger.
type AuditConfig struct {
	// Backend selects the ledger storage.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the ledger database location when Backend is "sqlite".
	// Default: "./data/audit.db"
	Path string `yaml:"path"`

	// IntegritySchedule is a cron expression for periodic chain
	// verification. Empty disables the sweeper.
	// Default: "0 * * * *" (hourly)
	IntegritySchedule string `yaml:"integrity_schedule"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging controls the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics controls the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is the minimum level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the output encoding.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
