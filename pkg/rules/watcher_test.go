package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validRuleDoc = `rules:
  - id: no_force_payload
    level: MINOR
    condition: payload_equals
    params:
      field: force
      value: "true"
`

const brokenRuleDoc = `rules:
  - id: no_force_payload
    level: MINOR
    condition: does_not_exist
`

func waitForProjectCount(t *testing.T, set *Set, want int) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if set.ProjectCount() == want {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	set := NewSet(nil)
	watcher := NewWatcher(set, path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx) }()

	// Give the watcher a moment to install before the first write.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(validRuleDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !waitForProjectCount(t, set, 1) {
		t.Fatal("rule file creation did not trigger a reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatcher_KeepsPreviousRulesOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(validRuleDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	set := NewSet(nil)
	if err := LoadInto(set, path); err != nil {
		t.Fatalf("LoadInto: %v", err)
	}

	watcher := NewWatcher(set, path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(brokenRuleDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// The broken file must never evict the loaded rules. There is no
	// positive signal for a rejected reload, so settle for a quiet period.
	time.Sleep(500 * time.Millisecond)
	if set.ProjectCount() != 1 {
		t.Errorf("ProjectCount = %d after bad reload, want 1", set.ProjectCount())
	}
}
