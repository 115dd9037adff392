package config

import (
	"fmt"
	"net"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for values the kernel cannot run with.
// Configuration problems are fatal at startup, never at request time.
func Validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		return fmt.Errorf("server.listen_address %q: %w", cfg.Server.ListenAddress, err)
	}

	switch cfg.State.Backend {
	case "file":
		if cfg.State.Path == "" {
			return fmt.Errorf("state.path is required for the file backend")
		}
	case "memory":
	default:
		return fmt.Errorf("state.backend %q: must be \"file\" or \"memory\"", cfg.State.Backend)
	}

	if cfg.Score.CriticalPenalty < 0 || cfg.Score.MajorPenalty < 0 || cfg.Score.MinorPenalty < 0 {
		return fmt.Errorf("score penalties must not be negative")
	}
	if cfg.Score.FreezeFloor < 0 || cfg.Score.FreezeFloor > 100 {
		return fmt.Errorf("score.freeze_floor %d: must be within [0, 100]", cfg.Score.FreezeFloor)
	}

	switch cfg.Audit.Backend {
	case "sqlite":
		if cfg.Audit.Path == "" {
			return fmt.Errorf("audit.path is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("audit.backend %q: must be \"sqlite\" or \"memory\"", cfg.Audit.Backend)
	}
	if cfg.Audit.IntegritySchedule != "" {
		if _, err := cron.ParseStandard(cfg.Audit.IntegritySchedule); err != nil {
			return fmt.Errorf("audit.integrity_schedule %q: %w", cfg.Audit.IntegritySchedule, err)
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level %q: must be debug, info, warn or error", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format %q: must be json or text", cfg.Telemetry.Logging.Format)
	}

	return nil
}
