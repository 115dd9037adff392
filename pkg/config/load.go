package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from a YAML file, applies defaults and
// validates. A missing file yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading configuration file %q: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads the configuration and applies AIPOS_*
// environment overrides on top. Environment variables follow the naming
// convention AIPOS_SECTION_FIELD (e.g. AIPOS_SERVER_LISTEN_ADDRESS) and
// always take precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("AIPOS_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("AIPOS_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("AIPOS_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("AIPOS_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	if val := os.Getenv("AIPOS_STATE_BACKEND"); val != "" {
		cfg.State.Backend = val
	}
	if val := os.Getenv("AIPOS_STATE_PATH"); val != "" {
		cfg.State.Path = val
	}

	if val := os.Getenv("AIPOS_RULES_PATH"); val != "" {
		cfg.Rules.Path = val
	}
	if val := os.Getenv("AIPOS_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}

	if val := os.Getenv("AIPOS_SCORE_CRITICAL_PENALTY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Score.CriticalPenalty = i
		}
	}
	if val := os.Getenv("AIPOS_SCORE_MAJOR_PENALTY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Score.MajorPenalty = i
		}
	}
	if val := os.Getenv("AIPOS_SCORE_MINOR_PENALTY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Score.MinorPenalty = i
		}
	}
	if val := os.Getenv("AIPOS_SCORE_FREEZE_FLOOR"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Score.FreezeFloor = i
		}
	}
	if val := os.Getenv("AIPOS_SCORE_HISTORY_PATH"); val != "" {
		cfg.Score.HistoryPath = val
	}

	if val := os.Getenv("AIPOS_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("AIPOS_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}
	if val := os.Getenv("AIPOS_AUDIT_INTEGRITY_SCHEDULE"); val != "" {
		cfg.Audit.IntegritySchedule = val
	}

	if val := os.Getenv("AIPOS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("AIPOS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("AIPOS_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("AIPOS_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
