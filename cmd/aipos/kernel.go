package main

import (
	"fmt"

	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit"
	auditstorage "github.com/wuxiaolong123121/ai-project-os-mcp/pkg/audit/storage"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/config"
	"github.com/wuxiaolong123121/ai-project-os-mcp/pkg/state"
)

// buildStateStore creates the configured project state store.
func buildStateStore(cfg *config.Config) (state.Store, error) {
	switch cfg.State.Backend {
	case "file":
		return state.NewFileStore(cfg.State.Path)
	case "memory":
		return state.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported state backend: %s", cfg.State.Backend)
	}
}

// buildAuditStorage creates the configured audit ledger storage.
func buildAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		return auditstorage.NewSQLiteStore(cfg.Audit.Path)
	case "memory":
		return auditstorage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
}

// openLedger loads configuration and opens the audit ledger for read-side
// commands (verify, export, stage). The caller must Close the ledger.
func openLedger(path string) (*audit.Ledger, *config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, nil, err
	}

	store, err := buildAuditStorage(cfg)
	if err != nil {
		return nil, nil, err
	}

	ledger, err := audit.NewLedger(store, nil)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return ledger, cfg, nil
}
