package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRuleFile(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLintRuleFile_Valid(t *testing.T) {
	path := writeRuleFile(t, `version: "1"
rules:
  - id: no_force_payload
    description: reject force-flagged tool calls
    level: MAJOR
    event_types: [TOOL_CALL]
    condition: payload_equals
    params:
      field: force
      value: "true"
`)

	result := lintRuleFile(path)
	if !result.Valid {
		t.Fatalf("valid file rejected: %s", result.Error)
	}
	if result.Rules != 1 {
		t.Errorf("Rules = %d, want 1", result.Rules)
	}
}

func TestLintRuleFile_UnknownCondition(t *testing.T) {
	path := writeRuleFile(t, `rules:
  - id: bad_condition
    level: MINOR
    condition: does_not_exist
`)

	result := lintRuleFile(path)
	if result.Valid {
		t.Fatal("unknown condition accepted")
	}
}

func TestLintRuleFile_ShadowsSystemRule(t *testing.T) {
	path := writeRuleFile(t, `rules:
  - id: code_outside_s5
    level: MINOR
    condition: always
`)

	result := lintRuleFile(path)
	if result.Valid {
		t.Fatal("system rule shadowing accepted")
	}
}

func TestLintRuleFile_Nonexistent(t *testing.T) {
	result := lintRuleFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if result.Valid {
		t.Fatal("nonexistent file accepted")
	}
}

func TestLintRules_NoFileOrDir(t *testing.T) {
	lintFlags.file = ""
	lintFlags.dir = ""

	if err := lintRules(nil, nil); err == nil {
		t.Error("lintRules without --file or --dir should error")
	}
}

func TestLintRules_DirWithFailure(t *testing.T) {
	dir := t.TempDir()
	good := `rules:
  - id: ok_rule
    level: MINOR
    condition: always
`
	bad := `rules:
  - id: dup
    level: MINOR
    condition: always
  - id: dup
    level: MINOR
    condition: always
`
	if err := os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(good), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	lintFlags.file = ""
	lintFlags.dir = dir
	lintFlags.format = "text"

	if err := lintRules(nil, nil); err == nil {
		t.Error("lintRules with a failing file should error")
	}
}
