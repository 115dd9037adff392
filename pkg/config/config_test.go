package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8845" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Score.FreezeFloor != 40 || cfg.Score.CriticalPenalty != 30 {
		t.Errorf("score defaults = %+v", cfg.Score)
	}
	if cfg.Audit.Backend != "sqlite" || cfg.Audit.IntegritySchedule != "0 * * * *" {
		t.Errorf("audit defaults = %+v", cfg.Audit)
	}
	if !cfg.Rules.Watch {
		t.Error("rule watching should default on")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 5s
score:
  freeze_floor: 60
audit:
  backend: memory
telemetry:
  logging:
    level: debug
    format: text
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("unset fields must keep defaults, WriteTimeout = %v", cfg.Server.WriteTimeout)
	}
	if cfg.Score.FreezeFloor != 60 {
		t.Errorf("FreezeFloor = %d", cfg.Score.FreezeFloor)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("AIPOS_SERVER_LISTEN_ADDRESS", "127.0.0.1:7777")
	t.Setenv("AIPOS_SCORE_FREEZE_FLOOR", "25")
	t.Setenv("AIPOS_RULES_WATCH", "false")

	cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:7777" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Score.FreezeFloor != 25 {
		t.Errorf("FreezeFloor = %d", cfg.Score.FreezeFloor)
	}
	if cfg.Rules.Watch {
		t.Error("AIPOS_RULES_WATCH=false not applied")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "no-port" }},
		{"unknown state backend", func(c *Config) { c.State.Backend = "etcd" }},
		{"negative penalty", func(c *Config) { c.Score.MajorPenalty = -1 }},
		{"floor out of range", func(c *Config) { c.Score.FreezeFloor = 150 }},
		{"unknown audit backend", func(c *Config) { c.Audit.Backend = "postgres" }},
		{"bad cron expression", func(c *Config) { c.Audit.IntegritySchedule = "whenever" }},
		{"unknown log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
