package config

import "time"

// ApplyDefaults fills zero-valued fields with their defaults. Called before
// validation so a minimal or empty file yields a runnable configuration.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8845"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.State.Backend == "" {
		cfg.State.Backend = "file"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = "./data/state.json"
	}

	if cfg.Rules.Path == "" {
		cfg.Rules.Path = "./rules.yaml"
		cfg.Rules.Watch = true
	}

	if cfg.Score.CriticalPenalty == 0 {
		cfg.Score.CriticalPenalty = 30
	}
	if cfg.Score.MajorPenalty == 0 {
		cfg.Score.MajorPenalty = 10
	}
	if cfg.Score.MinorPenalty == 0 {
		cfg.Score.MinorPenalty = 2
	}
	if cfg.Score.FreezeFloor == 0 {
		cfg.Score.FreezeFloor = 40
	}
	if cfg.Score.HistoryPath == "" {
		cfg.Score.HistoryPath = "./data/scores.db"
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "sqlite"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "./data/audit.db"
	}
	if cfg.Audit.IntegritySchedule == "" {
		cfg.Audit.IntegritySchedule = "0 * * * *"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
